package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockreport/internal/domain/models"
	"github.com/mamadbah2/stockreport/internal/plugin/stockeventreport"
)

// PluginAdmin exposes a plugin's description and settings.
type PluginAdmin interface {
	Metadata() models.PluginMetadata
	Settings() []models.SettingDefinition
	SettingValues(ctx context.Context) (map[string]string, error)
	UpdateSetting(ctx context.Context, key, value string) error
}

type updateSettingRequest struct {
	Value string `json:"value"`
}

// PluginHandler serves plugin administration endpoints.
type PluginHandler struct {
	plugin PluginAdmin
	logger *zap.Logger
}

// NewPluginHandler constructs the plugin administration adapter.
func NewPluginHandler(plugin PluginAdmin, logger *zap.Logger) *PluginHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PluginHandler{plugin: plugin, logger: logger}
}

// Describe returns metadata, setting declarations and current values.
func (h *PluginHandler) Describe(c *gin.Context) {
	values, err := h.plugin.SettingValues(c.Request.Context())
	if err != nil {
		h.logger.Error("failed reading plugin settings", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to read settings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"metadata": h.plugin.Metadata(),
		"settings": h.plugin.Settings(),
		"values":   values,
	})
}

// UpdateSetting validates and stores a single setting.
func (h *PluginHandler) UpdateSetting(c *gin.Context) {
	var req updateSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	key := c.Param("key")
	err := h.plugin.UpdateSetting(c.Request.Context(), key, req.Value)
	switch {
	case err == nil:
		h.logger.Info("plugin setting updated", zap.String("key", key), zap.String("value", req.Value))
		c.Status(http.StatusNoContent)
	case errors.Is(err, stockeventreport.ErrUnknownSetting):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, stockeventreport.ErrInvalidTemplate):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.logger.Error("failed updating plugin setting", zap.String("key", key), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to update setting"})
	}
}
