// Package stockeventreport renders a report whenever stock is manually added
// to or removed from a stock item, and notifies the people involved.
package stockeventreport

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockreport/internal/domain/models"
	"github.com/mamadbah2/stockreport/internal/service/notification"
)

const (
	// Slug identifies the plugin in settings storage and HTTP routes.
	Slug    = "stockeventreport"
	Version = "0.1.0"
)

// StockStore reads stock items and their tracking history.
type StockStore interface {
	FindTrackingEntry(ctx context.Context, id int64) (*models.TrackingEntry, error)
	FindStockItem(ctx context.Context, id int64) (*models.StockItem, error)
	LatestTrackingEntry(ctx context.Context, itemID int64) (*models.TrackingEntry, error)
}

// TemplateStore resolves report templates.
type TemplateStore interface {
	FindTemplate(ctx context.Context, id int64) (*models.ReportTemplate, error)
}

// SettingsStore reads and writes plugin settings. GetSetting returns "" for unset keys.
type SettingsStore interface {
	GetSetting(ctx context.Context, plugin, key string) (string, error)
	SetSetting(ctx context.Context, plugin, key, value string) error
}

// Renderer renders a template against records.
type Renderer interface {
	Render(ctx context.Context, tmpl models.ReportTemplate, instances []models.Instance) (*models.ReportOutput, error)
}

// Plugin reacts to stock tracking events by rendering and announcing reports.
type Plugin struct {
	stock     StockStore
	templates TemplateStore
	settings  SettingsStore
	renderer  Renderer
	notifier  notification.Notifier
	logger    *zap.Logger
}

// New wires the plugin with its host collaborators.
func New(stock StockStore, templates TemplateStore, settings SettingsStore, renderer Renderer, notifier notification.Notifier, logger *zap.Logger) *Plugin {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Plugin{
		stock:     stock,
		templates: templates,
		settings:  settings,
		renderer:  renderer,
		notifier:  notifier,
		logger:    logger,
	}
}

// Metadata describes the plugin to the host.
func (p *Plugin) Metadata() models.PluginMetadata {
	return models.PluginMetadata{
		Name:        "StockEventReport",
		Slug:        Slug,
		Title:       "StockEventReport",
		Description: "Print report every stock event",
		Version:     Version,
		Author:      "Tristan Le",
		Website:     "https://github.com/tristanle22/stock_action_print#",
		License:     "MIT",
	}
}

// Wants reports whether the plugin handles event.
func (p *Plugin) Wants(event string) bool {
	return event == models.EventTrackingCreated
}

// Handle processes a tracking-created event. It never fails: every problem is
// logged and the event is dropped.
func (p *Plugin) Handle(ctx context.Context, event string, payload models.EventPayload) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("error processing stock tracking event",
				zap.String("event", event),
				zap.Int64("tracking_id", payload.ID),
				zap.Any("panic", r))
		}
	}()

	if err := p.handle(ctx, payload); err != nil {
		p.logger.Error("error processing stock tracking event",
			zap.String("event", event),
			zap.Int64("tracking_id", payload.ID),
			zap.Error(err))
	}
}

// handle returns only unexpected errors; expected early exits log and return nil.
func (p *Plugin) handle(ctx context.Context, payload models.EventPayload) error {
	created, err := p.stock.FindTrackingEntry(ctx, payload.ID)
	if errors.Is(err, models.ErrNotFound) {
		p.logger.Warn("could not find tracking entry", zap.Int64("tracking_id", payload.ID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load tracking entry %d: %w", payload.ID, err)
	}

	item, err := p.stock.FindStockItem(ctx, created.ItemID)
	if errors.Is(err, models.ErrNotFound) {
		p.logger.Warn("could not find stock item", zap.Int64("tracking_id", created.ID), zap.Int64("item_id", created.ItemID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load stock item %d: %w", created.ItemID, err)
	}

	p.logger.Info("processing stock tracking event", zap.Int64("item_id", item.ID))

	latest, err := p.stock.LatestTrackingEntry(ctx, item.ID)
	if errors.Is(err, models.ErrNotFound) {
		p.logger.Warn("no tracking entry found", zap.Int64("item_id", item.ID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("load latest tracking entry for item %d: %w", item.ID, err)
	}

	key, ok := templateSettings[latest.Code]
	if !ok {
		p.logger.Info("tracking type not handled", zap.Int("tracking_type", int(latest.Code)))
		return nil
	}

	templateID, err := p.settings.GetSetting(ctx, Slug, key)
	if err != nil {
		return fmt.Errorf("read setting %s: %w", key, err)
	}
	if strings.TrimSpace(templateID) == "" {
		p.logger.Warn("no template configured for this action type", zap.String("setting", key))
		return nil
	}

	tmpl, err := p.resolveTemplate(ctx, templateID)
	if errors.Is(err, ErrInvalidTemplate) {
		p.logger.Error("could not find report template", zap.String("setting", key), zap.String("template_id", templateID), zap.Error(err))
		return nil
	}
	if err != nil {
		return err
	}

	output, err := p.renderer.Render(ctx, *tmpl, []models.Instance{item})
	if err != nil {
		p.logger.Error("failed to generate report", zap.String("template", tmpl.Name), zap.Error(err))
		return nil
	}
	if output == nil || output.URL == "" {
		return nil
	}

	err = p.notifier.Notify(ctx, notification.Request{
		Subject:  item,
		Category: models.CategoryReportGenerated,
		Context: models.NotificationContext{
			Name:    "Stock Report Generated",
			Message: fmt.Sprintf("A report has been generated for %s", item.Part.Name),
			Link:    output.URL,
		},
		Targets:     recipients(item, latest),
		CheckRecent: false,
	})
	if err != nil {
		return fmt.Errorf("notify report %s: %w", output.URL, err)
	}

	p.logger.Info("report generated and notification sent", zap.String("url", output.URL))
	return nil
}

// recipients returns the owner and acting user, without duplicates. A nil
// result asks the notifier to fall back to its default recipients.
func recipients(item *models.StockItem, entry *models.TrackingEntry) []models.User {
	var targets []models.User
	if item.Owner != nil {
		targets = append(targets, *item.Owner)
	}
	if entry != nil && entry.User != nil && !containsUser(targets, entry.User.ID) {
		targets = append(targets, *entry.User)
	}
	return targets
}

func containsUser(users []models.User, id int64) bool {
	for _, u := range users {
		if u.ID == id {
			return true
		}
	}
	return false
}
