/*
Package httpapi serves the tracklens pipeline as a JSON HTTP API.

Routes:
  POST /v1/analyze     analysis.Request  -> analysis.AnalysisResult
  POST /v1/feedback    analysis.Feedback -> 200 learned, 202 queued (?async=true)
  POST /v1/assess      analysis.AnalysisResult -> quality.Assessment
  GET  /v1/patterns    ?category=
  GET  /v1/knowledge   ?category=
  GET  /v1/search      ?q=&limit=
  GET  /v1/runs        ?limit=
  GET  /healthz
*/
package httpapi

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/khanglvm/tracklens/internal/analysis"
	"github.com/khanglvm/tracklens/internal/app"
	"github.com/khanglvm/tracklens/internal/config"
	"github.com/khanglvm/tracklens/internal/knowledge"
	"github.com/khanglvm/tracklens/internal/learning"
	"github.com/khanglvm/tracklens/internal/version"
)

const (
	defaultSearchLimit = 10
	defaultRunsLimit   = 50
)

// errorResponse is the body of every non-2xx reply.
type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type handler struct {
	app    *app.App
	logger *zap.Logger
}

// NewRouter builds the gin engine. A nil or empty AllowedOrigins allows
// every origin.
func NewRouter(a *app.App, sc *config.ServerConfig) *gin.Engine {
	h := &handler{app: a, logger: a.Logger.Named("http")}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(h.requestLogger())

	corsConfig := cors.DefaultConfig()
	if sc != nil && len(sc.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = sc.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", h.health)

	v1 := router.Group("/v1")
	v1.POST("/analyze", h.analyze)
	v1.POST("/feedback", h.feedback)
	v1.POST("/assess", h.assess)
	v1.GET("/patterns", h.patterns)
	v1.GET("/knowledge", h.knowledge)
	v1.GET("/search", h.search)
	v1.GET("/runs", h.runs)

	return router
}

// NewServer wraps the router in an http.Server with timeouts long enough for
// a model call.
func NewServer(a *app.App, sc *config.ServerConfig) *http.Server {
	addr := config.DefaultServerAddr
	if sc != nil && sc.Addr != "" {
		addr = sc.Addr
	}
	return &http.Server{
		Addr:         addr,
		Handler:      NewRouter(a, sc),
		ReadTimeout:  2 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  5 * time.Minute,
	}
}

func (h *handler) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		h.logger.Debug("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)))
	}
}

func (h *handler) health(c *gin.Context) {
	stats := h.app.Repo.Stats()
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": version.Get(),
		"backend": h.app.BackendName(),
		"stats":   stats,
	})
}

func (h *handler) analyze(c *gin.Context) {
	var req analysis.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	if len(req.Images) == 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "at least one image is required", Field: "images"})
		return
	}
	c.JSON(http.StatusOK, h.app.Analyze(c.Request.Context(), req))
}

func (h *handler) feedback(c *gin.Context) {
	var fb analysis.Feedback
	if err := c.ShouldBindJSON(&fb); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	if async, _ := strconv.ParseBool(c.Query("async")); async {
		if err := h.app.QueueFeedback(fb); err != nil {
			h.writeFeedbackError(c, err)
			return
		}
		c.JSON(http.StatusAccepted, gin.H{"status": "queued", "analysisId": fb.AnalysisID})
		return
	}

	if err := h.app.SubmitFeedback(c.Request.Context(), fb); err != nil {
		h.writeFeedbackError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "learned", "analysisId": fb.AnalysisID})
}

func (h *handler) writeFeedbackError(c *gin.Context, err error) {
	var ve *analysis.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error(), Field: ve.Field})
	case errors.Is(err, learning.ErrQueueFull), errors.Is(err, learning.ErrStopped):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		h.logger.Error("feedback failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
	}
}

func (h *handler) assess(c *gin.Context) {
	var result analysis.AnalysisResult
	if err := c.ShouldBindJSON(&result); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, h.app.Assess(result))
}

func (h *handler) patterns(c *gin.Context) {
	category := c.Query("category")
	if category == "" || category == knowledge.CategoryAll {
		c.JSON(http.StatusOK, gin.H{"patterns": h.app.Repo.Patterns()})
		return
	}
	p, ok := h.app.Repo.Pattern(category)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"patterns": []analysis.Pattern{}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"patterns": []analysis.Pattern{p}})
}

func (h *handler) knowledge(c *gin.Context) {
	category := analysis.KnowledgeCategory(c.Query("category"))
	if category != "" && !analysis.IsKnowledgeCategory(category) {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "unknown knowledge category", Field: "category"})
		return
	}

	items := []analysis.DomainKnowledgeItem{}
	for _, item := range h.app.Repo.Knowledge() {
		if category == "" || item.Category == category {
			items = append(items, item)
		}
	}
	c.JSON(http.StatusOK, gin.H{"knowledge": items})
}

func (h *handler) search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "query is required", Field: "q"})
		return
	}
	limit, ok := queryLimit(c, defaultSearchLimit)
	if !ok {
		return
	}

	results, err := h.app.SearchHistory(query, limit)
	if err != nil {
		h.logger.Error("search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *handler) runs(c *gin.Context) {
	limit, ok := queryLimit(c, defaultRunsLimit)
	if !ok {
		return
	}
	runs, err := h.app.RunHistory(time.Time{}, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func queryLimit(c *gin.Context, def int) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return def, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "limit must be a positive integer", Field: "limit"})
		return 0, false
	}
	return limit, true
}
