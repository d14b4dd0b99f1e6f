package news

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/izumo-civic/civicdata-service/internal/domain"
)

var validate = validator.New()

// Validate checks a response against the news payload schema: items must
// be present, every link an absolute URL and lastUpdated an RFC 3339
// datetime.
func Validate(resp domain.NewsResponse) error {
	if err := validate.Struct(resp); err != nil {
		return fmt.Errorf("news response schema: %w", err)
	}
	return nil
}
