package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockreport/internal/domain/models"
	"github.com/mamadbah2/stockreport/internal/service/reporting"
)

// ReportStore reads templates, outputs and the stock items reports are printed for.
type ReportStore interface {
	FindTemplate(ctx context.Context, id int64) (*models.ReportTemplate, error)
	ListTemplates(ctx context.Context) ([]models.ReportTemplate, error)
	FindOutput(ctx context.Context, id string) (*models.ReportOutput, error)
	FindStockItem(ctx context.Context, id int64) (*models.StockItem, error)
}

// Printer renders a template on behalf of an HTTP request.
type Printer interface {
	RenderRequest(ctx context.Context, req *http.Request, tmpl models.ReportTemplate, instances []models.Instance) (*models.ReportOutput, error)
}

type printRequest struct {
	Items []int64 `json:"items" binding:"required,min=1"`
}

// ReportHandler serves templates, manual prints and stored outputs.
type ReportHandler struct {
	store   ReportStore
	printer Printer
	logger  *zap.Logger
}

// NewReportHandler constructs the report HTTP adapter.
func NewReportHandler(store ReportStore, printer Printer, logger *zap.Logger) *ReportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportHandler{store: store, printer: printer, logger: logger}
}

// ListTemplates returns every report template.
func (h *ReportHandler) ListTemplates(c *gin.Context) {
	templates, err := h.store.ListTemplates(c.Request.Context())
	if err != nil {
		h.logger.Error("failed listing report templates", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to list templates"})
		return
	}
	c.JSON(http.StatusOK, templates)
}

// Print renders template :id for the requested stock items.
func (h *ReportHandler) Print(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid template id"})
		return
	}

	var req printRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	tmpl, err := h.store.FindTemplate(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "template not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed loading report template", zap.Int64("template_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load template"})
		return
	}

	instances := make([]models.Instance, 0, len(req.Items))
	for _, itemID := range req.Items {
		item, err := h.store.FindStockItem(ctx, itemID)
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("stock item %d not found", itemID)})
			return
		}
		if err != nil {
			h.logger.Error("failed loading stock item", zap.Int64("item_id", itemID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load stock item"})
			return
		}
		instances = append(instances, item)
	}

	output, err := h.printer.RenderRequest(ctx, c.Request, *tmpl, instances)
	if errors.Is(err, reporting.ErrUnsupportedFormat) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.logger.Error("failed printing report", zap.String("template", tmpl.Name), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "unable to render report"})
		return
	}

	c.JSON(http.StatusCreated, output)
}

// Download streams a stored output.
func (h *ReportHandler) Download(c *gin.Context) {
	output, err := h.store.FindOutput(c.Request.Context(), c.Param("id"))
	if errors.Is(err, models.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
		return
	}
	if err != nil {
		h.logger.Error("failed loading report output", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load report"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", output.Filename))
	c.Data(http.StatusOK, output.ContentType, output.Content)
}
