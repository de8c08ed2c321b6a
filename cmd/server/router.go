
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/olcayay/shopify-tracker-sub001/internal/keywords"
	"github.com/olcayay/shopify-tracker-sub001/internal/models"
	"github.com/olcayay/shopify-tracker-sub001/internal/parser"
	"github.com/olcayay/shopify-tracker-sub001/internal/store"
)

type appPageReq struct {
	HTML string `json:"html" binding:"required"`
	Slug string `json:"slug" binding:"required"`
}

type categoryPageReq struct {
	HTML string `json:"html" binding:"required"`
	URL  string `json:"url" binding:"required"`
}

type keywordsReq struct {
	HTML     string             `json:"html"`
	Slug     string             `json:"slug"`
	Metadata *keywords.Metadata `json:"metadata"`
}

// similarityReader is the store surface the server reads from.
type similarityReader interface {
	Similarities(ctx context.Context, slug string) ([]models.SimilarityResult, error)
	LatestApp(ctx context.Context, slug string) (models.AppRecord, error)
}

type handlers struct {
	log    *slog.Logger
	parser *parser.Parser
	miner  *keywords.Miner
	db     similarityReader
}

func newRouter(h *handlers) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), h.logRequest)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/parse/app", h.parseApp)
	r.POST("/parse/category", h.parseCategory)
	r.POST("/keywords", h.keywords)

	if h.db != nil {
		apps := r.Group("/apps/:slug")
		{
			apps.GET("", h.latestApp)
			apps.GET("/similar", h.similar)
		}
	}
	return r
}

func (h *handlers) logRequest(c *gin.Context) {
	start := time.Now()
	c.Next()
	h.log.Info("request", "method", c.Request.Method, "path", c.Request.URL.Path,
		"status", c.Writer.Status(), "elapsed", time.Since(start))
}

func (h *handlers) parseApp(c *gin.Context) {
	var req appPageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "html and slug are required"})
		return
	}
	rec, diags := h.parser.ParseAppPageWithDiagnostics(req.HTML, req.Slug)
	c.JSON(http.StatusOK, gin.H{"record": rec, "diagnostics": diags})
}

func (h *handlers) parseCategory(c *gin.Context) {
	var req categoryPageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "html and url are required"})
		return
	}
	rec, diags := h.parser.ParseCategoryPageWithDiagnostics(req.HTML, req.URL)
	c.JSON(http.StatusOK, gin.H{"record": rec, "diagnostics": diags})
}

// keywords mines either explicit metadata or a raw app page.
func (h *handlers) keywords(c *gin.Context) {
	var req keywordsReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	var md keywords.Metadata
	switch {
	case req.Metadata != nil:
		md = *req.Metadata
	case req.HTML != "":
		md = keywords.MetadataFromRecord(h.parser.ParseAppPage(req.HTML, req.Slug))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "html or metadata is required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"keywords": h.miner.Extract(md)})
}

func (h *handlers) latestApp(c *gin.Context) {
	rec, err := h.db.LatestApp(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "app not found"})
		return
	}
	if err != nil {
		h.log.Error("reading app", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *handlers) similar(c *gin.Context) {
	results, err := h.db.Similarities(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.log.Error("reading similarities", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "database error"})
		return
	}
	if results == nil {
		results = []models.SimilarityResult{}
	}
	c.JSON(http.StatusOK, gin.H{"slug": c.Param("slug"), "similar": results})
}
