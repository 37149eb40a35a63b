package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	documentapp "github.com/quotedesk/backend/internal/application/document"
	quoteapp "github.com/quotedesk/backend/internal/application/quote"
)

// PortalHandler serves gated client-facing document views. Every route
// registered here sits behind the session middleware; the scope check
// already happened by the time a handler runs.
type PortalHandler struct {
	BaseHandler
	quoteService    *quoteapp.Service
	documentService *documentapp.Service
}

// NewPortalHandler creates a new PortalHandler
func NewPortalHandler(quoteService *quoteapp.Service, documentService *documentapp.Service) *PortalHandler {
	return &PortalHandler{
		quoteService:    quoteService,
		documentService: documentService,
	}
}

// RegisterRoutes registers all portal routes. Folio routes resolve the
// lineage; the /revisions/:id route addresses one exact revision and
// needs a session scoped to that ID.
func (h *PortalHandler) RegisterRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	{
		quotes.GET("/:folio", h.GetQuote)
		quotes.GET("/:folio/pdf", h.GetQuotePDF)
		quotes.GET("/:folio/revisions", h.ListRevisions)
	}
	rg.GET("/revisions/:id", h.GetRevision)
}

// GetQuote returns the latest revision of the quote the session is
// scoped to
func (h *PortalHandler) GetQuote(c *gin.Context) {
	result, err := h.quoteService.ResolveByFolio(c.Request.Context(), c.Param("folio"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListRevisions returns every revision of the lineage the session is
// scoped to, in version order
func (h *PortalHandler) ListRevisions(c *gin.Context) {
	result, err := h.quoteService.GetLineage(c.Request.Context(), c.Param("folio"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetRevision returns one exact revision by its opaque ID
func (h *PortalHandler) GetRevision(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid revision ID")
		return
	}

	result, err := h.quoteService.ResolveByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetQuotePDF streams the rendered PDF of the latest revision
func (h *PortalHandler) GetQuotePDF(c *gin.Context) {
	folio := c.Param("folio")
	result, err := h.documentService.RenderLatest(c.Request.Context(), folio)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", folio+".pdf"))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
