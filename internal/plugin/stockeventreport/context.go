package stockeventreport

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/mamadbah2/stockreport/internal/domain/models"
)

const systemUser = "System"

// AddReportContext adds the latest tracking entry of a stock item to the render
// context. Any other instance, or an item without history, passes through unchanged.
func (p *Plugin) AddReportContext(ctx context.Context, tmpl models.ReportTemplate, instance models.Instance, _ *http.Request, reportCtx models.ReportContext) models.ReportContext {
	item, ok := instance.(*models.StockItem)
	if !ok || item == nil {
		return reportCtx
	}

	entry, err := p.stock.LatestTrackingEntry(ctx, item.ID)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			p.logger.Warn("failed to load tracking entry for report context",
				zap.Int64("item_id", item.ID),
				zap.String("template", tmpl.Name),
				zap.Error(err))
		}
		return reportCtx
	}

	if reportCtx == nil {
		reportCtx = models.ReportContext{}
	}

	user := systemUser
	if entry.User != nil {
		user = entry.User.Username
	}
	deltas := entry.Deltas
	if deltas == nil {
		deltas = models.Deltas{}
	}
	reportCtx["tracking"] = map[string]any{
		"date":   entry.Date,
		"user":   user,
		"type":   entry.Label(),
		"notes":  entry.Notes,
		"deltas": deltas,
	}

	if len(entry.Deltas) == 0 {
		return reportCtx
	}

	reportCtx["quantity_change"] = entry.Deltas["quantity"]
	reportCtx["previous_quantity"] = entry.Deltas["previous_quantity"]
	reportCtx["location_change"] = entry.Deltas["location"]
	reportCtx["status_change"] = entry.Deltas["status"]

	price := 0.0
	if item.PurchasePrice != nil {
		price = *item.PurchasePrice
	}
	reportCtx["purchase_price"] = price

	total := 0.0
	if added, ok := entry.Deltas["added"]; ok && price != 0 {
		if n, ok := toFloat(added); ok {
			total = n * price
		}
	}
	reportCtx["total_price"] = total

	return reportCtx
}

// ReportCallback is invoked after every stored render.
func (p *Plugin) ReportCallback(_ context.Context, tmpl models.ReportTemplate, instance models.Instance, output models.ReportOutput) {
	p.logger.Debug("report rendered",
		zap.String("template", tmpl.Name),
		zap.String("model", instance.ModelName()),
		zap.Int64("instance_id", instance.InstanceID()),
		zap.String("url", output.URL))
}

// toFloat accepts the numeric types a decoded deltas document may carry.
func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
