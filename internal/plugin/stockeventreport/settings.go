package stockeventreport

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mamadbah2/stockreport/internal/domain/models"
)

const (
	SettingAddTemplate    = "STOCK_ADD_TEMPLATE"
	SettingRemoveTemplate = "STOCK_REMOVE_TEMPLATE"

	templateModel = "report.reporttemplate"
)

var (
	// ErrUnknownSetting is returned for keys the plugin does not declare.
	ErrUnknownSetting = errors.New("unknown setting")
	// ErrInvalidTemplate is returned when a setting value does not reference a report template.
	ErrInvalidTemplate = errors.New("invalid report template")
)

// templateSettings selects the template setting for each handled tracking code.
var templateSettings = map[models.TrackingCode]string{
	models.TrackingStockAdd:    SettingAddTemplate,
	models.TrackingStockRemove: SettingRemoveTemplate,
}

var settingDefinitions = []models.SettingDefinition{
	{
		Key:         SettingAddTemplate,
		Name:        "Stock Addition Report Template",
		Description: "Select which report template to use when stock is added",
		Model:       templateModel,
		Required:    true,
	},
	{
		Key:         SettingRemoveTemplate,
		Name:        "Stock Removal Report Template",
		Description: "Select which report template to use when stock is removed",
		Model:       templateModel,
		Required:    true,
	},
}

// Settings returns the settings declared by the plugin.
func (p *Plugin) Settings() []models.SettingDefinition {
	out := make([]models.SettingDefinition, len(settingDefinitions))
	copy(out, settingDefinitions)
	return out
}

// SettingValues returns the stored value of every declared setting.
func (p *Plugin) SettingValues(ctx context.Context) (map[string]string, error) {
	values := make(map[string]string, len(settingDefinitions))
	for _, def := range settingDefinitions {
		v, err := p.settings.GetSetting(ctx, Slug, def.Key)
		if err != nil {
			return nil, fmt.Errorf("read setting %s: %w", def.Key, err)
		}
		values[def.Key] = v
	}
	return values, nil
}

// ValidateSetting checks that key is declared and that value references an
// existing report template. An empty value is accepted and clears the setting.
func (p *Plugin) ValidateSetting(ctx context.Context, key, value string) error {
	if !declared(key) {
		return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
	}
	if strings.TrimSpace(value) == "" {
		return nil
	}
	_, err := p.resolveTemplate(ctx, value)
	return err
}

// UpdateSetting validates and stores a setting value.
func (p *Plugin) UpdateSetting(ctx context.Context, key, value string) error {
	if err := p.ValidateSetting(ctx, key, value); err != nil {
		return err
	}
	if err := p.settings.SetSetting(ctx, Slug, key, strings.TrimSpace(value)); err != nil {
		return fmt.Errorf("store setting %s: %w", key, err)
	}
	return nil
}

// resolveTemplate parses a stored template id and loads the template.
// Both a malformed id and a missing template yield ErrInvalidTemplate.
func (p *Plugin) resolveTemplate(ctx context.Context, raw string) (*models.ReportTemplate, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: id %q is not numeric", ErrInvalidTemplate, raw)
	}
	tmpl, err := p.templates.FindTemplate(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, fmt.Errorf("%w: template %d does not exist", ErrInvalidTemplate, id)
	}
	if err != nil {
		return nil, fmt.Errorf("load report template %d: %w", id, err)
	}
	return tmpl, nil
}

func declared(key string) bool {
	for _, def := range settingDefinitions {
		if def.Key == key {
			return true
		}
	}
	return false
}
