package news

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/izumo-civic/civicdata-service/internal/domain"
)

//go:embed fallback.json
var embeddedFallback []byte

// FallbackSource supplies the static document served when no feed
// produced any items.
type FallbackSource interface {
	Load(ctx context.Context) (domain.NewsResponse, error)
}

// FileFallback reads the fallback document from disk on every call so
// operators can replace it without a restart. An empty Path selects the
// document built into the binary.
type FileFallback struct {
	Path string
}

// Load decodes the fallback document.
func (f FileFallback) Load(_ context.Context) (domain.NewsResponse, error) {
	data := embeddedFallback
	if f.Path != "" {
		b, err := os.ReadFile(f.Path)
		if err != nil {
			return domain.NewsResponse{}, fmt.Errorf("read fallback: %w", err)
		}
		data = b
	}

	var resp domain.NewsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return domain.NewsResponse{}, fmt.Errorf("decode fallback: %w", err)
	}
	return resp, nil
}
