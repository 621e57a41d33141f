// Package api serves the live-reference engine over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cognicore/liveref/pkg/liveref"
	"github.com/cognicore/liveref/pkg/liveref/cards"
	"github.com/cognicore/liveref/pkg/liveref/extract"
	"github.com/cognicore/liveref/pkg/liveref/history"
	"github.com/cognicore/liveref/pkg/liveref/internalerr"
	"github.com/cognicore/liveref/pkg/liveref/lookup"
)

// Engine is the part of liveref.Engine the server needs
type Engine interface {
	Extract(text string) []extract.Keyword
	Analyze(ctx context.Context, req liveref.AnalyzeRequest) (liveref.Report, error)
	LookupKeyword(ctx context.Context, keyword string) (cards.Card, error)
	History(ctx context.Context, limit int) ([]history.Entry, error)
	ClearHistory(ctx context.Context) error
	SearchCount() int64
	Mode() lookup.Mode
}

// Server routes HTTP requests to an Engine
type Server struct {
	engine Engine
	log    *log.Logger
}

// NewServer creates a server; a nil logger uses the default logger
func NewServer(engine Engine, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{engine: engine, log: logger}
}

// Router builds the gin engine with every route registered
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), s.requestLog())

	router.GET("/healthz", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/v1")
	{
		v1.POST("/extract", s.handleExtract)
		v1.POST("/analyze", s.handleAnalyze)
		v1.POST("/lookup", s.handleLookup)
		v1.GET("/history", s.handleHistory)
		v1.DELETE("/history", s.handleClearHistory)
	}
	return router
}

type textRequest struct {
	Text        string `json:"text" binding:"required"`
	SkipHistory bool   `json:"skip_history"`
}

type keywordRequest struct {
	Keyword string `json:"keyword" binding:"required"`
}

type keywordView struct {
	Text      string             `json:"text"`
	Class     string             `json:"class"`
	Category  string             `json:"category,omitempty"`
	Score     float64            `json:"score"`
	Count     int                `json:"count"`
	Offset    int                `json:"offset"`
	Breakdown map[string]float64 `json:"breakdown"`
}

func viewKeywords(kws []extract.Keyword) []keywordView {
	out := make([]keywordView, len(kws))
	for i, kw := range kws {
		out[i] = keywordView{
			Text:      kw.Text,
			Class:     kw.Class.String(),
			Category:  kw.Category,
			Score:     kw.Score,
			Count:     kw.Count,
			Offset:    kw.Offset,
			Breakdown: kw.Breakdown.Map(),
		}
	}
	return out
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"mode":     s.engine.Mode(),
		"searches": s.engine.SearchCount(),
	})
}

func (s *Server) handleExtract(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keywords": viewKeywords(s.engine.Extract(req.Text))})
}

func (s *Server) handleAnalyze(c *gin.Context) {
	var req textRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	report, err := s.engine.Analyze(c.Request.Context(), liveref.AnalyzeRequest{
		Text:        req.Text,
		SkipHistory: req.SkipHistory,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"keywords":   viewKeywords(report.Keywords),
		"cards":      report.Cards,
		"found":      report.Found,
		"history_id": report.HistoryID,
		"elapsed_ms": report.Elapsed.Milliseconds(),
	})
}

func (s *Server) handleLookup(c *gin.Context) {
	var req keywordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}
	card, err := s.engine.LookupKeyword(c.Request.Context(), req.Keyword)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

func (s *Server) handleHistory(c *gin.Context) {
	limit := history.DefaultMaxEntries
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		limit = n
	}
	entries, err := s.engine.History(c.Request.Context(), limit)
	if err != nil {
		s.fail(c, err)
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (s *Server) handleClearHistory(c *gin.Context) {
	if err := s.engine.ClearHistory(c.Request.Context()); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// fail maps engine errors to status codes
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, internalerr.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, internalerr.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, internalerr.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "path", c.FullPath(), "err", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
		)
	}
}
