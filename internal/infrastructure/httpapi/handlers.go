package httpapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"NewsFeedRanker/internal/domain"
	"NewsFeedRanker/internal/ports"
	"NewsFeedRanker/internal/usecase"
)

type articleView struct {
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Source        string  `json:"source"`
	SourceURL     string  `json:"source_url"`
	Link          string  `json:"link"`
	PublishedDate string  `json:"published_date"`
	Keywords      string  `json:"keywords"`
	Importance    string  `json:"importance"`
	Summary       string  `json:"summary"`
	Rank          float64 `json:"rank"`
}

type articleHandler struct {
	feed RankedReader
}

func newArticleHandler(feed RankedReader) *articleHandler {
	return &articleHandler{feed: feed}
}

// List handles GET /api/articles?max_age_days=N.
func (h *articleHandler) List(c *gin.Context) {
	maxAge := 0
	if raw := c.Query("max_age_days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_age_days must be a positive integer"})
			return
		}
		maxAge = n
	}

	views := []articleView{}
	if h.feed != nil {
		for _, a := range h.feed.Ranked(c.Request.Context(), maxAge) {
			name := a.SourceName
			if name == "" {
				name = a.Source
			}
			views = append(views, articleView{
				Title:         a.Title,
				Description:   a.Description,
				Source:        name,
				SourceURL:     a.Source,
				Link:          a.Link,
				PublishedDate: a.PublishedDate,
				Keywords:      a.Keywords,
				Importance:    string(a.Importance),
				Summary:       a.DerivedSummary,
				Rank:          a.Rank,
			})
		}
	}

	c.JSON(http.StatusOK, views)
}

type sourceView struct {
	ID            int64      `json:"id"`
	URL           string     `json:"url"`
	Name          string     `json:"name"`
	Category      string     `json:"category"`
	FeedType      string     `json:"feed_type"`
	Status        string     `json:"status"`
	LastFetchedAt *time.Time `json:"last_fetched_at,omitempty"`
}

func toSourceView(src domain.Source) sourceView {
	return sourceView{
		ID:            src.ID,
		URL:           src.URL,
		Name:          src.DisplayName,
		Category:      src.Category,
		FeedType:      src.FeedType,
		Status:        string(src.Status),
		LastFetchedAt: src.LastFetchedAt,
	}
}

type sourceHandler struct {
	sources ports.SourceAdmin
	logger  *slog.Logger
}

func newSourceHandler(sources ports.SourceAdmin, logger *slog.Logger) *sourceHandler {
	return &sourceHandler{sources: sources, logger: logger}
}

// List handles GET /admin/sources.
func (h *sourceHandler) List(c *gin.Context) {
	sources, err := h.sources.ListSources(c.Request.Context())
	if err != nil {
		h.logger.Error("list sources failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot list sources"})
		return
	}

	views := make([]sourceView, 0, len(sources))
	for _, src := range sources {
		views = append(views, toSourceView(src))
	}
	c.JSON(http.StatusOK, views)
}

type addSourceRequest struct {
	URL      string `json:"url" binding:"required,url"`
	Name     string `json:"name" binding:"required"`
	Category string `json:"category"`
	FeedType string `json:"feed_type"`
}

// Add handles POST /admin/sources.
func (h *sourceHandler) Add(c *gin.Context) {
	var req addSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	src, err := h.sources.AddSource(c.Request.Context(), domain.Source{
		URL:         req.URL,
		DisplayName: req.Name,
		Category:    req.Category,
		FeedType:    req.FeedType,
		Status:      domain.SourceActive,
	})
	switch {
	case errors.Is(err, domain.ErrSourceExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	case errors.Is(err, domain.ErrInvalidSource):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logger.Error("add source failed", "url", req.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot add source"})
		return
	}

	c.JSON(http.StatusCreated, toSourceView(src))
}

type statusRequest struct {
	URL    string `json:"url" binding:"required"`
	Status string `json:"status" binding:"required,oneof=active inactive"`
}

// SetStatus handles PATCH /admin/sources/status.
func (h *sourceHandler) SetStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.sources.SetSourceStatus(c.Request.Context(), req.URL, domain.SourceStatus(req.Status))
	switch {
	case errors.Is(err, domain.ErrSourceNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	case err != nil:
		h.logger.Error("set source status failed", "url", req.URL, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot update source"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": req.URL, "status": req.Status})
}

type refreshHandler struct {
	runner CycleRunner
}

func newRefreshHandler(runner CycleRunner) *refreshHandler {
	return &refreshHandler{runner: runner}
}

// Run handles POST /admin/refresh.
func (h *refreshHandler) Run(c *gin.Context) {
	out, ok := h.runner.RunNow(c.Request.Context())
	if !ok {
		c.JSON(http.StatusConflict, gin.H{"error": usecase.MsgAlreadyRunning})
		return
	}

	status := http.StatusOK
	if out.Failed() {
		status = http.StatusInternalServerError
	}

	c.JSON(status, gin.H{
		"run_id":         out.RunID,
		"status":         out.Status,
		"message":        out.Message,
		"sources":        out.Sources,
		"failed_sources": out.FailedSources,
		"stored":         out.Stored,
		"duration_ms":    out.Duration.Milliseconds(),
	})
}
