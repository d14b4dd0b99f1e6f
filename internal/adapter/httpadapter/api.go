package httpadapter

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/izumo-civic/civicdata-service/internal/domain"
	"github.com/izumo-civic/civicdata-service/internal/news"
)

// CacheControl lets a CDN serve a response for five minutes and keep
// serving it for another minute while revalidating.
const CacheControl = "public, max-age=0, s-maxage=300, stale-while-revalidate=60"

const (
	parkingErrorMessage = "Failed to fetch parking data"
	newsErrorMessage    = "ニュースの取得に失敗しました" // "failed to fetch news"
)

// ParkingCollector aggregates every listing area.
type ParkingCollector interface {
	Collect(ctx context.Context) (domain.ParkingData, error)
}

// NewsProvider returns the merged feed items for a feed type.
type NewsProvider interface {
	Latest(ctx context.Context, feedType string) (domain.NewsResponse, error)
}

// API serves the public JSON endpoints.
type API struct {
	parking ParkingCollector
	news    NewsProvider
	logger  *slog.Logger
}

// NewsQuery is the query string of GET /api/news.
type NewsQuery struct {
	Type     string `form:"type"`
	Category string `form:"category"`
	Limit    int    `form:"limit" binding:"omitempty,min=1"`
}

// NewAPI creates the API handlers.
func NewAPI(parking ParkingCollector, newsProvider NewsProvider, logger *slog.Logger) *API {
	return &API{parking: parking, news: newsProvider, logger: logger}
}

// Router builds a gin engine with every route under /api.
func (a *API) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), a.requestLogger())

	api := r.Group("/api")
	{
		api.GET("/parking", a.Parking)
		api.GET("/news", a.News)
	}
	return r
}

// Parking serves GET /api/parking.
func (a *API) Parking(c *gin.Context) {
	data, err := a.parking.Collect(c.Request.Context())
	if err != nil {
		a.logger.Error("parking aggregation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success":   false,
			"error":     parkingErrorMessage,
			"timestamp": domain.FormatTimestamp(domain.Now()),
		})
		return
	}
	c.Header("Cache-Control", CacheControl)
	c.JSON(http.StatusOK, data)
}

// News serves GET /api/news, e.g. ?type=all&category=注目情報&limit=10.
func (a *API) News(c *gin.Context) {
	var q NewsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query: " + err.Error()})
		return
	}

	resp, err := a.news.Latest(c.Request.Context(), q.Type)
	if err != nil {
		a.logger.Error("news aggregation failed", "type", q.Type, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": newsErrorMessage})
		return
	}

	if q.Category != "" {
		resp.Items = news.ByCategory(resp.Items, q.Category)
	}
	resp.Items = news.LatestN(resp.Items, q.Limit)

	c.Header("Cache-Control", CacheControl)
	c.JSON(http.StatusOK, resp)
}

func (a *API) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		a.logger.Debug("api request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}
