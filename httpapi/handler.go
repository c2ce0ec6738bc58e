// Package httpapi exposes the pipeline over HTTP. Clarification is stateless: the pending state
// goes back to the client, which returns it with its answer.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"platescan"
	"platescan/pipeline"
)

const (
	maxUploadSize = 10 << 20 // 10MB
	runIDKey      = "runId"
)

type runner interface {
	Run(ctx context.Context, image []byte, grams float64) (pipeline.Outcome, error)
	Resume(ctx context.Context, p pipeline.Pending, answer string) (*pipeline.Result, error)
}

type Handler struct {
	pipeline runner
}

func NewHandler(r runner) *Handler {
	return &Handler{pipeline: r}
}

// NewRouter builds the engine with middleware and routes registered.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(requestID(), logging(), recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	h.RegisterRoutes(r.Group("/v1"))
	return r
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/analyze", h.analyze)
	rg.POST("/analyze/resume", h.resume)
}

func (h *Handler) analyze(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize)

	grams, err := strconv.ParseFloat(strings.TrimSpace(c.PostForm("grams")), 64)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "grams must be a number", nil)
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "image is required", nil)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "unable to read image", nil)
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "unable to read image", nil)
		return
	}

	out, err := h.pipeline.Run(c.Request.Context(), image, grams)
	if err != nil {
		h.fail(c, err)
		return
	}

	status := http.StatusOK
	switch {
	case out.Pending != nil:
		c.Set(runIDKey, out.Pending.RunID)
		status = http.StatusAccepted
	case out.Result != nil:
		c.Set(runIDKey, out.Result.RunID)
	}
	c.JSON(status, out)
}

type resumeRequest struct {
	Pending *pipeline.Pending `json:"pending"`
	Choice  string            `json:"choice"`
}

func (h *Handler) resume(c *gin.Context) {
	var req resumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}
	if req.Pending == nil {
		respondError(c, http.StatusBadRequest, "validation_error", "pending is required", nil)
		return
	}
	c.Set(runIDKey, req.Pending.RunID)

	res, err := h.pipeline.Resume(c.Request.Context(), *req.Pending, req.Choice)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, pipeline.Outcome{Status: res.Status, Result: res})
}

// fail maps a fatal run error to a status code. The trace goes in the details so the caller can show what was tried.
func (h *Handler) fail(c *gin.Context, err error) {
	var runErr *pipeline.RunError
	if !errors.As(err, &runErr) {
		respondError(c, http.StatusInternalServerError, "internal", err.Error(), nil)
		return
	}
	c.Set(runIDKey, runErr.RunID)

	details := gin.H{"run_id": runErr.RunID, "trace": runErr.Trace}
	switch {
	case errors.Is(err, platescan.ErrInvalidQuantity):
		respondError(c, http.StatusUnprocessableEntity, "invalid_quantity", runErr.Message, details)
	case errors.Is(err, platescan.ErrInvalidClarification):
		respondError(c, http.StatusBadRequest, "invalid_clarification", runErr.Message, details)
	case errors.Is(err, platescan.ErrClassificationUnavailable):
		respondError(c, http.StatusBadGateway, "classification_unavailable", runErr.Message, details)
	default:
		respondError(c, http.StatusInternalServerError, "internal", runErr.Message, details)
	}
}
