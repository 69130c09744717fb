// Package httpapi exposes the answering service over HTTP.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"raganswer/internal/logger"
	"raganswer/internal/service"
	"raganswer/internal/source"
)

// Version is reported by GET /.
const Version = "1.0.0"

const maxUploadBytes = 10 << 20

// Service is the subset of *service.Service the handlers need.
type Service interface {
	Initialize(ctx context.Context, forceReindex bool) (service.Outcome, error)
	Resolve(ctx context.Context, q service.Query) service.Resolution
	Status() service.Status
	Source(name string) (source.DataSource, bool)
}

type Handlers struct {
	service Service
	logger  logger.Logger
}

func NewHandlers(svc Service, log logger.Logger) *Handlers {
	return &Handlers{service: svc, logger: log}
}

func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "RAG answering API is running",
		"status":  "healthy",
		"version": Version,
	})
}

func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, newHealthResponse(h.service.Status()))
}

func (h *Handlers) Query(c *gin.Context) {
	req := defaultQueryRequest()
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "invalid request body: " + err.Error()})
		return
	}
	if err := req.validate(); err != nil {
		h.logger.Warn("invalid query parameters", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: err.Error()})
		return
	}

	h.logger.Info("processing query", "question", truncate(req.Question, 50), "mode", req.Mode, "top_k", req.TopK)
	res := h.service.Resolve(c.Request.Context(), service.Query{
		Question:     req.Question,
		Mode:         req.Mode,
		TopK:         req.TopK,
		ForceReindex: req.ForceReindex,
	})
	c.JSON(http.StatusOK, QueryResponse{
		Question: req.Question,
		Answer:   res.Answer,
		Mode:     req.Mode,
		TopK:     req.TopK,
		Status:   "success",
		Tier:     res.Tier.String(),
	})
}

func (h *Handlers) Reindex(c *gin.Context) {
	h.logger.Info("starting data reindexing")
	out, err := h.service.Initialize(c.Request.Context(), true)
	if err != nil {
		h.logger.Error("reindexing failed", "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "error reindexing data: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Data reindexed successfully",
		"status":  "success",
		"outcome": newOutcomeResponse(out),
	})
}

// Update replaces the configured source named by the :name path segment
// with an uploaded file.
func (h *Handlers) Update(c *gin.Context) {
	src, ok := h.service.Source(c.Param("name"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Detail: "unknown data source: " + c.Param("name")})
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "missing file upload"})
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "cannot read upload: " + err.Error()})
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "cannot read upload: " + err.Error()})
		return
	}
	switch {
	case len(data) == 0:
		c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "uploaded file is empty"})
		return
	case len(data) > maxUploadBytes:
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{Detail: "uploaded file is too large"})
		return
	}
	if src.Format == source.JSON {
		if _, err := source.ParseJSON(data); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Detail: "invalid JSON: " + err.Error()})
			return
		}
	}
	if err := writeAtomic(src.Path, data); err != nil {
		h.logger.Error("replacing data source failed", "source", src.Path, "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "cannot store upload: " + err.Error()})
		return
	}
	h.logger.Info("data source replaced", "source", src.Path, "bytes", len(data))

	resp := gin.H{
		"message":   "Data source updated",
		"status":    "success",
		"source":    src.Path,
		"size":      len(data),
		"reindexed": false,
	}
	if force, _ := strconv.ParseBool(c.PostForm("force_reindex")); force {
		out, err := h.service.Initialize(c.Request.Context(), true)
		if err != nil {
			c.JSON(http.StatusInternalServerError, ErrorResponse{Detail: "error reindexing data: " + err.Error()})
			return
		}
		resp["reindexed"] = true
		resp["outcome"] = newOutcomeResponse(out)
	}
	c.JSON(http.StatusOK, resp)
}

// writeAtomic replaces path with data via a temp file in the same directory.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".upload-*")
	if err != nil {
		return err
	}
	_, werr := tmp.Write(data)
	merr := tmp.Chmod(0o644)
	cerr := tmp.Close()
	if err := errors.Join(werr, merr, cerr); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
