package handlers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotebook/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotebook/internal/adapters/http/middleware"
	"github.com/jsamuelsen/quotebook/internal/app"
	"github.com/jsamuelsen/quotebook/internal/domain"
	"github.com/jsamuelsen/quotebook/internal/platform/logging"
	"github.com/jsamuelsen/quotebook/internal/ports"
)

const (
	// importFormField is the multipart field carrying an uploaded file.
	importFormField = "file"

	// ExportFilename is the attachment name of an export.
	ExportFilename = "quotes.json"
)

// Syncer triggers an on-demand sync.
type Syncer interface {
	SyncNow(ctx context.Context) (app.SyncResult, error)
}

// StatusSource lists recent transient status messages.
type StatusSource interface {
	Recent() []ports.StatusMessage
}

// QuoteHandlerConfig contains the dependencies of a QuoteHandler.
type QuoteHandlerConfig struct {
	// Store is required.
	Store *app.QuoteStore

	// Syncer serves POST /sync. Without it the endpoint reports the remote as unavailable.
	Syncer Syncer

	// Status serves GET /status.
	Status StatusSource

	// Renderer renders the page fragment at GET /.
	Renderer ports.Renderer
}

// QuoteHandler handles quote, category, sync and status endpoints.
type QuoteHandler struct {
	store    *app.QuoteStore
	syncer   Syncer
	status   StatusSource
	renderer ports.Renderer
}

// NewQuoteHandler creates a new quote handler. Panics if Store is nil.
func NewQuoteHandler(cfg QuoteHandlerConfig) *QuoteHandler {
	if cfg.Store == nil {
		panic("QuoteHandler: Store is required")
	}

	return &QuoteHandler{
		store:    cfg.Store,
		syncer:   cfg.Syncer,
		status:   cfg.Status,
		renderer: cfg.Renderer,
	}
}

// ListQuotes handles GET /api/v1/quotes?category=&limit=&cursor=
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	var query dto.ListQuotesQuery
	if err := dto.BindQueryAndValidate(c, &query); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	offset, err := query.Offset()
	if err != nil {
		dto.HandleErrorCode(c, dto.ErrorCodeBadRequest, err.Error())
		return
	}

	quotes := dto.NewQuoteResponses(h.store.List(query.Category))

	c.JSON(http.StatusOK, dto.Paginate(quotes, offset, query.GetLimit()))
}

// AddQuote handles POST /api/v1/quotes.
func (h *QuoteHandler) AddQuote(c *gin.Context) {
	var req dto.AddQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	quote, err := h.store.Add(c.Request.Context(), req.Text, req.Category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuoteResponse(quote))
}

// RandomQuote handles GET /api/v1/quotes/random?category=
// A blank category falls back to the stored selection.
func (h *QuoteHandler) RandomQuote(c *gin.Context) {
	var query dto.CategoryQuery
	if err := dto.BindQueryAndValidate(c, &query); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	quote, ok := h.store.Random(c.Request.Context(), middleware.GetSessionID(c), query.Category)
	c.JSON(http.StatusOK, dto.NewPickResponse(quote, ok))
}

// CurrentQuote handles GET /api/v1/quotes/current?category=
func (h *QuoteHandler) CurrentQuote(c *gin.Context) {
	var query dto.CategoryQuery
	if err := dto.BindQueryAndValidate(c, &query); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	quote, ok := h.store.Current(c.Request.Context(), middleware.GetSessionID(c), query.Category)
	c.JSON(http.StatusOK, dto.NewPickResponse(quote, ok))
}

// Page handles GET / with an HTML fragment of the session's current quote.
func (h *QuoteHandler) Page(c *gin.Context) {
	quote, ok := h.store.Current(c.Request.Context(), middleware.GetSessionID(c), c.Query("category"))

	var shown *domain.Quote
	if ok {
		shown = &quote
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, shown); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// ExportQuotes handles GET /api/v1/quotes/export.
func (h *QuoteHandler) ExportQuotes(c *gin.Context) {
	data, err := h.store.Export(c.Request.Context())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", ExportFilename))
	c.Data(http.StatusOK, "application/json", data)
}

// ImportQuotes handles POST /api/v1/quotes/import. The payload is either the
// raw JSON body or a multipart upload in the "file" field.
func (h *QuoteHandler) ImportQuotes(c *gin.Context) {
	body, closeBody, err := importBody(c)
	if err != nil {
		dto.HandleErrorCode(c, dto.ErrorCodeBadRequest, err.Error())
		return
	}
	defer closeBody()

	count, err := h.store.Import(c.Request.Context(), body)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	message := fmt.Sprintf("Imported %d quotes.", count)
	if count == 0 {
		message = "No valid quotes found in the file."
	}

	c.JSON(http.StatusOK, dto.ImportResponse{Imported: count, Total: h.store.Len(), Message: message})
}

func importBody(c *gin.Context) (io.Reader, func(), error) {
	if c.ContentType() != gin.MIMEMultipartPOSTForm {
		return c.Request.Body, func() {}, nil
	}

	header, err := c.FormFile(importFormField)
	if err != nil {
		return nil, nil, fmt.Errorf("multipart upload must carry a %q field", importFormField)
	}

	file, err := header.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("opening upload: %w", err)
	}

	return file, func() { _ = file.Close() }, nil
}

// Categories handles GET /api/v1/categories.
func (h *QuoteHandler) Categories(c *gin.Context) {
	c.JSON(http.StatusOK, dto.CategoriesResponse{
		Categories: h.store.Categories(),
		Options:    h.store.CategoryOptions(),
		Selected:   h.store.SelectedCategory(c.Request.Context()),
	})
}

// SelectCategory handles PUT /api/v1/categories/selected.
func (h *QuoteHandler) SelectCategory(c *gin.Context) {
	var req dto.SelectCategoryRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	selected, err := h.store.SelectCategory(c.Request.Context(), req.Category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SelectedCategoryResponse{Selected: selected})
}

// Sync handles POST /api/v1/sync.
func (h *QuoteHandler) Sync(c *gin.Context) {
	if h.syncer == nil {
		dto.HandleErrorCode(c, dto.ErrorCodeUnavailable, "sync is not configured")
		return
	}

	result, err := h.syncer.SyncNow(c.Request.Context())
	if err != nil {
		handleSyncError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SyncResponse{
		Fetched: result.Fetched,
		Dropped: result.Merge.Dropped,
		Added:   result.Merge.Added,
		Total:   result.Merge.Total,
		At:      result.At,
	})
}

// handleSyncError reports a failed sync as a gateway problem. Statuses the
// remote returned are never passed through as our own.
func handleSyncError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	logging.FromContext(ctx).WarnContext(ctx, "sync request failed", slog.Any("error", err))

	if domain.IsUnavailable(err) {
		dto.HandleErrorCode(c, dto.ErrorCodeUnavailable, "remote quotes are unavailable, try again later")
		return
	}

	dto.HandleErrorCode(c, dto.ErrorCodeUpstream, "remote server returned an unusable response")
}

// Status handles GET /api/v1/status.
func (h *QuoteHandler) Status(c *gin.Context) {
	messages := []ports.StatusMessage{}
	if h.status != nil {
		messages = append(messages, h.status.Recent()...)
	}

	c.JSON(http.StatusOK, dto.StatusResponse{Messages: messages})
}

// RegisterQuoteRoutes registers the API routes on the given router group.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("", h.ListQuotes)
	quotes.POST("", h.AddQuote)
	quotes.GET("/random", h.RandomQuote)
	quotes.GET("/current", h.CurrentQuote)
	quotes.GET("/export", h.ExportQuotes)
	quotes.POST("/import", h.ImportQuotes)

	rg.GET("/categories", h.Categories)
	rg.PUT("/categories/selected", h.SelectCategory)
	rg.POST("/sync", h.Sync)
	rg.GET("/status", h.Status)
}

// RegisterPageRoute registers the HTML fragment at GET /.
func (h *QuoteHandler) RegisterPageRoute(engine *gin.Engine) {
	if h.renderer != nil {
		engine.GET("/", h.Page)
	}
}
