package reporting

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/stockreport/internal/domain/models"
)

// ErrUnsupportedFormat is returned for templates whose format has no renderer.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// ErrNoInstances is returned when a render is requested without any record.
var ErrNoInstances = errors.New("no instances to render")

const pageBreak = `<div style="page-break-after: always"></div>`

var filenameCleaner = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// OutputStore persists rendered outputs.
type OutputStore interface {
	SaveOutput(ctx context.Context, output models.ReportOutput) error
}

// PDFConverter turns an HTML document into PDF bytes.
type PDFConverter interface {
	ConvertHTML(ctx context.Context, html string) ([]byte, error)
}

// Ledger keeps an external trace of generated reports.
type Ledger interface {
	Record(ctx context.Context, tmpl models.ReportTemplate, output models.ReportOutput, instances []models.Instance) error
}

// Service renders report templates against host records and stores the result.
type Service struct {
	store     OutputStore
	pdf       PDFConverter
	ledger    Ledger
	baseURL   string
	hooks     []ContextHook
	callbacks []Callback
	logger    *zap.Logger
	now       func() time.Time
	newID     func() string
}

// NewService wires a new reporting service instance.
func NewService(store OutputStore, pdf PDFConverter, baseURL string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:   store,
		pdf:     pdf,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// SetLedger enables recording every stored output in ledger.
func (s *Service) SetLedger(ledger Ledger) {
	s.ledger = ledger
}

// RegisterContextHook adds a hook consulted for every rendered instance, in registration order.
func (s *Service) RegisterContextHook(hook ContextHook) {
	if hook != nil {
		s.hooks = append(s.hooks, hook)
	}
}

// RegisterCallback adds a callback run after each successful render.
func (s *Service) RegisterCallback(cb Callback) {
	if cb != nil {
		s.callbacks = append(s.callbacks, cb)
	}
}

// Render renders tmpl for instances outside of any HTTP request.
func (s *Service) Render(ctx context.Context, tmpl models.ReportTemplate, instances []models.Instance) (*models.ReportOutput, error) {
	return s.RenderRequest(ctx, nil, tmpl, instances)
}

// RenderRequest renders tmpl for instances, stores the output and returns it with its URL.
func (s *Service) RenderRequest(ctx context.Context, req *http.Request, tmpl models.ReportTemplate, instances []models.Instance) (*models.ReportOutput, error) {
	if len(instances) == 0 {
		return nil, ErrNoInstances
	}

	page, err := template.New(tmpl.Name).Parse(tmpl.Body)
	if err != nil {
		return nil, fmt.Errorf("parse template %q: %w", tmpl.Name, err)
	}

	generatedAt := s.now().UTC()
	contexts := make([]models.ReportContext, 0, len(instances))
	var html bytes.Buffer

	for i, inst := range instances {
		reportCtx := baseContext(tmpl, inst, generatedAt)
		for _, hook := range s.hooks {
			if next := hook.AddReportContext(ctx, tmpl, inst, req, reportCtx); next != nil {
				reportCtx = next
			}
		}
		contexts = append(contexts, reportCtx)

		if i > 0 {
			html.WriteString(pageBreak)
		}
		if err := page.Execute(&html, reportCtx); err != nil {
			return nil, fmt.Errorf("execute template %q for %s %d: %w", tmpl.Name, inst.ModelName(), inst.InstanceID(), err)
		}
	}

	content, contentType, ext, err := s.encode(ctx, tmpl, html.String(), contexts)
	if err != nil {
		return nil, err
	}

	id := s.newID()
	output := models.ReportOutput{
		ID:          id,
		TemplateID:  tmpl.ID,
		Filename:    outputFilename(tmpl, id, ext),
		ContentType: contentType,
		Content:     content,
		URL:         fmt.Sprintf("%s/media/report/%s", s.baseURL, id),
		CreatedAt:   generatedAt,
	}

	if err := s.store.SaveOutput(ctx, output); err != nil {
		return nil, fmt.Errorf("store output for %q: %w", tmpl.Name, err)
	}

	if s.ledger != nil {
		if err := s.ledger.Record(ctx, tmpl, output, instances); err != nil {
			s.logger.Warn("failed to record report in ledger", zap.String("output_id", id), zap.Error(err))
		}
	}

	for _, inst := range instances {
		for _, cb := range s.callbacks {
			cb.ReportCallback(ctx, tmpl, inst, output)
		}
	}

	s.logger.Debug("report rendered",
		zap.Int64("template_id", tmpl.ID),
		zap.String("format", string(tmpl.Format)),
		zap.Int("instances", len(instances)),
		zap.String("output_id", id))

	return &output, nil
}

func (s *Service) encode(ctx context.Context, tmpl models.ReportTemplate, html string, contexts []models.ReportContext) ([]byte, string, string, error) {
	switch tmpl.Format {
	case models.ReportFormatHTML, "":
		return []byte(html), "text/html; charset=utf-8", "html", nil
	case models.ReportFormatPDF:
		if s.pdf == nil {
			return nil, "", "", fmt.Errorf("pdf converter not configured: %w", ErrUnsupportedFormat)
		}
		pdf, err := s.pdf.ConvertHTML(ctx, html)
		if err != nil {
			return nil, "", "", fmt.Errorf("convert %q to pdf: %w", tmpl.Name, err)
		}
		return pdf, "application/pdf", "pdf", nil
	case models.ReportFormatXLSX:
		book, err := buildWorkbook(contexts)
		if err != nil {
			return nil, "", "", fmt.Errorf("build workbook for %q: %w", tmpl.Name, err)
		}
		return book, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx", nil
	default:
		return nil, "", "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, tmpl.Format)
	}
}

func baseContext(tmpl models.ReportTemplate, inst models.Instance, generatedAt time.Time) models.ReportContext {
	reportCtx := models.ReportContext{
		"template":     tmpl.Name,
		"generated_at": generatedAt,
		"model":        inst.ModelName(),
		"instance":     inst,
	}
	if item, ok := inst.(*models.StockItem); ok {
		reportCtx["item"] = item
		reportCtx["part"] = item.Part
		reportCtx["quantity"] = item.Quantity
	}
	return reportCtx
}

func outputFilename(tmpl models.ReportTemplate, id, ext string) string {
	name := tmpl.FilenamePattern
	if name == "" {
		name = tmpl.Name
	}
	name = strings.Trim(filenameCleaner.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if name == "" {
		name = "report"
	}
	short := id
	if len(short) > 8 {
		short = short[:8]
	}
	return fmt.Sprintf("%s-%s.%s", name, short, ext)
}
