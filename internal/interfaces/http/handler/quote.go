package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	quoteapp "github.com/quotedesk/backend/internal/application/quote"
)

// QuoteHandler handles quote-related API endpoints
type QuoteHandler struct {
	BaseHandler
	quoteService *quoteapp.Service
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(quoteService *quoteapp.Service) *QuoteHandler {
	return &QuoteHandler{
		quoteService: quoteService,
	}
}

// RegisterRoutes registers all quote routes.
// Revision and lineage routes key on the folio, which identifies the
// commercial thread across revisions; the :id routes address one
// specific revision.
func (h *QuoteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	{
		quotes.POST("", h.Create)
		quotes.GET("", h.List)
		quotes.GET("/:id", h.Get)
		quotes.POST("/:id/submit", h.Submit)
		quotes.POST("/:id/accept", h.Accept)
		quotes.POST("/:id/reject", h.Reject)
		quotes.POST("/:id/invoice", h.MarkInvoiced)
		quotes.POST("/:id/production", h.StartProduction)
	}

	folios := rg.Group("/folios")
	{
		folios.GET("/:folio", h.GetByFolio)
		folios.GET("/:folio/lineage", h.GetLineage)
		folios.POST("/:folio/revisions", h.CreateRevision)
	}
}

// Create creates a new quote, allocating the next folio
func (h *QuoteHandler) Create(c *gin.Context) {
	var req quoteapp.CreateQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.quoteService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// List returns a filtered page of quotes
func (h *QuoteHandler) List(c *gin.Context) {
	var filter quoteapp.QuoteListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindingError(c, err)
		return
	}

	items, total, err := h.quoteService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, items, total, page, pageSize)
}

// Get returns a single quote revision by ID
func (h *QuoteHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid quote ID")
		return
	}

	result, err := h.quoteService.ResolveByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// folioURI binds and validates the folio path parameter
type folioURI struct {
	Folio string `uri:"folio" binding:"required,folio"`
}

func (h *QuoteHandler) bindFolio(c *gin.Context) (string, bool) {
	var uri folioURI
	if err := c.ShouldBindUri(&uri); err != nil {
		h.BindingError(c, err)
		return "", false
	}
	return uri.Folio, true
}

// GetByFolio returns the latest revision of a lineage
func (h *QuoteHandler) GetByFolio(c *gin.Context) {
	folio, ok := h.bindFolio(c)
	if !ok {
		return
	}
	result, err := h.quoteService.ResolveByFolio(c.Request.Context(), folio)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetLineage returns every revision of a lineage in version order
func (h *QuoteHandler) GetLineage(c *gin.Context) {
	folio, ok := h.bindFolio(c)
	if !ok {
		return
	}
	result, err := h.quoteService.GetLineage(c.Request.Context(), folio)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// CreateRevision issues the next revision of a lineage
func (h *QuoteHandler) CreateRevision(c *gin.Context) {
	folio, ok := h.bindFolio(c)
	if !ok {
		return
	}
	var req quoteapp.ReviseQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindingError(c, err)
		return
	}

	result, err := h.quoteService.CreateRevision(c.Request.Context(), folio, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Submit moves a draft quote to open
func (h *QuoteHandler) Submit(c *gin.Context) {
	h.transition(c, h.quoteService.Submit)
}

// Accept marks an open quote as accepted by the client
func (h *QuoteHandler) Accept(c *gin.Context) {
	h.transition(c, h.quoteService.Accept)
}

// Reject marks an open quote as rejected by the client
func (h *QuoteHandler) Reject(c *gin.Context) {
	h.transition(c, h.quoteService.Reject)
}

// MarkInvoiced records that an accepted quote was invoiced
func (h *QuoteHandler) MarkInvoiced(c *gin.Context) {
	h.transition(c, h.quoteService.MarkInvoiced)
}

// StartProduction records that an accepted quote entered production
func (h *QuoteHandler) StartProduction(c *gin.Context) {
	h.transition(c, h.quoteService.StartProduction)
}

func (h *QuoteHandler) transition(c *gin.Context, apply func(ctx context.Context, id uuid.UUID) (*quoteapp.QuoteResponse, error)) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid quote ID")
		return
	}

	result, err := apply(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
