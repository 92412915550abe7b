package reporting

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/mamadbah2/stockreport/internal/domain/models"
)

type memoryStore struct {
	saved []models.ReportOutput
	err   error
}

func (m *memoryStore) SaveOutput(_ context.Context, output models.ReportOutput) error {
	if m.err != nil {
		return m.err
	}
	m.saved = append(m.saved, output)
	return nil
}

type fakePDF struct {
	html string
	err  error
}

func (f *fakePDF) ConvertHTML(_ context.Context, html string) ([]byte, error) {
	f.html = html
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF"), nil
}

type fakeLedger struct {
	recorded int
	err      error
}

func (l *fakeLedger) Record(context.Context, models.ReportTemplate, models.ReportOutput, []models.Instance) error {
	l.recorded++
	return l.err
}

type noteHook struct{ seenRequest *http.Request }

func (h *noteHook) AddReportContext(_ context.Context, _ models.ReportTemplate, inst models.Instance, req *http.Request, reportCtx models.ReportContext) models.ReportContext {
	h.seenRequest = req
	reportCtx["note"] = "hooked " + inst.ModelName()
	return reportCtx
}

type recordingCallback struct{ outputs []string }

func (c *recordingCallback) ReportCallback(_ context.Context, _ models.ReportTemplate, _ models.Instance, output models.ReportOutput) {
	c.outputs = append(c.outputs, output.ID)
}

func newTestService(store OutputStore, pdf PDFConverter, logger *zap.Logger) *Service {
	svc := NewService(store, pdf, "http://host/", logger)
	svc.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	svc.newID = func() string { return "0123456789abcdef" }
	return svc
}

func widget() *models.StockItem {
	return &models.StockItem{ID: 9, Part: models.Part{ID: 1, Name: "Widget"}, Quantity: 12}
}

func TestRenderHTMLRunsHooksAndStoresOutput(t *testing.T) {
	store := &memoryStore{}
	svc := newTestService(store, nil, nil)
	hook := &noteHook{}
	cb := &recordingCallback{}
	svc.RegisterContextHook(hook)
	svc.RegisterCallback(cb)

	tmpl := models.ReportTemplate{ID: 7, Name: "Stock Added", Format: models.ReportFormatHTML, Body: `<h1>{{.part.Name}}</h1><p>{{.quantity}} {{.note}}</p>`}

	output, err := svc.Render(context.Background(), tmpl, []models.Instance{widget()})
	require.NoError(t, err)

	assert.Equal(t, "http://host/media/report/0123456789abcdef", output.URL)
	assert.Equal(t, "stock-added-01234567.html", output.Filename)
	assert.Equal(t, "text/html; charset=utf-8", output.ContentType)
	assert.Equal(t, "<h1>Widget</h1><p>12 hooked stock.stockitem</p>", string(output.Content))
	assert.Equal(t, int64(7), output.TemplateID)
	require.Len(t, store.saved, 1)
	assert.Equal(t, []string{"0123456789abcdef"}, cb.outputs)
	assert.Nil(t, hook.seenRequest)
}

func TestRenderRequestPassesRequestToHooks(t *testing.T) {
	svc := newTestService(&memoryStore{}, nil, nil)
	hook := &noteHook{}
	svc.RegisterContextHook(hook)
	req, err := http.NewRequest(http.MethodPost, "/reports/1/print", nil)
	require.NoError(t, err)

	_, err = svc.RenderRequest(context.Background(), req, models.ReportTemplate{Name: "x", Body: "{{.note}}"}, []models.Instance{widget()})
	require.NoError(t, err)
	assert.Same(t, req, hook.seenRequest)
}

func TestRenderMultipleInstancesSeparatesPages(t *testing.T) {
	svc := newTestService(&memoryStore{}, nil, nil)
	tmpl := models.ReportTemplate{Name: "parts", Body: `{{.model}}`}

	output, err := svc.Render(context.Background(), tmpl, []models.Instance{widget(), &models.Part{ID: 3, Name: "Bolt"}})
	require.NoError(t, err)
	assert.Equal(t, "stock.stockitem"+pageBreak+"part.part", string(output.Content))
}

func TestRenderPDF(t *testing.T) {
	pdf := &fakePDF{}
	svc := newTestService(&memoryStore{}, pdf, nil)
	tmpl := models.ReportTemplate{Name: "pdf", Format: models.ReportFormatPDF, FilenamePattern: "Stock Receipt", Body: `<b>{{.part.Name}}</b>`}

	output, err := svc.Render(context.Background(), tmpl, []models.Instance{widget()})
	require.NoError(t, err)
	assert.Equal(t, "<b>Widget</b>", pdf.html)
	assert.Equal(t, "application/pdf", output.ContentType)
	assert.Equal(t, "%PDF", string(output.Content))
	assert.Equal(t, "stock-receipt-01234567.pdf", output.Filename)
}

func TestRenderPDFConversionFailure(t *testing.T) {
	store := &memoryStore{}
	svc := newTestService(store, &fakePDF{err: errors.New("gotenberg down")}, nil)

	_, err := svc.Render(context.Background(), models.ReportTemplate{Name: "pdf", Format: models.ReportFormatPDF}, []models.Instance{widget()})
	assert.ErrorContains(t, err, "gotenberg down")
	assert.Empty(t, store.saved)
}

func TestRenderXLSX(t *testing.T) {
	svc := newTestService(&memoryStore{}, nil, nil)
	svc.RegisterContextHook(&noteHook{})

	output, err := svc.Render(context.Background(), models.ReportTemplate{Name: "sheet", Format: models.ReportFormatXLSX}, []models.Instance{widget()})
	require.NoError(t, err)

	book, err := excelize.OpenReader(bytes.NewReader(output.Content))
	require.NoError(t, err)
	rows, err := book.GetRows(workbookSheet)
	require.NoError(t, err)

	values := map[string]string{}
	for _, row := range rows[1:] {
		if len(row) > 1 {
			values[row[0]] = row[1]
		}
	}
	assert.Equal(t, []string{"Field", "Record 1"}, rows[0])
	assert.Equal(t, "hooked stock.stockitem", values["note"])
	assert.Equal(t, "12", values["quantity"])
	assert.Equal(t, "2026-01-02T03:04:05Z", values["generated_at"])
	_, hasInstance := values["instance"]
	assert.False(t, hasInstance)
}

func TestRenderErrors(t *testing.T) {
	svc := newTestService(&memoryStore{}, nil, nil)

	_, err := svc.Render(context.Background(), models.ReportTemplate{Name: "x"}, nil)
	assert.ErrorIs(t, err, ErrNoInstances)

	_, err = svc.Render(context.Background(), models.ReportTemplate{Name: "x", Format: "docx"}, []models.Instance{widget()})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = svc.Render(context.Background(), models.ReportTemplate{Name: "x", Format: models.ReportFormatPDF}, []models.Instance{widget()})
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = svc.Render(context.Background(), models.ReportTemplate{Name: "broken", Body: "{{.part"}, []models.Instance{widget()})
	assert.ErrorContains(t, err, "parse template")

	failing := newTestService(&memoryStore{err: errors.New("disk full")}, nil, nil)
	_, err = failing.Render(context.Background(), models.ReportTemplate{Name: "x"}, []models.Instance{widget()})
	assert.ErrorContains(t, err, "disk full")
}

func TestRenderLedgerFailureIsOnlyLogged(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	svc := newTestService(&memoryStore{}, nil, zap.New(core))
	ledger := &fakeLedger{err: errors.New("quota")}
	svc.SetLedger(ledger)

	output, err := svc.Render(context.Background(), models.ReportTemplate{Name: "x"}, []models.Instance{widget()})
	require.NoError(t, err)
	assert.NotNil(t, output)
	assert.Equal(t, 1, ledger.recorded)
	assert.Equal(t, 1, logs.FilterMessage("failed to record report in ledger").Len())
}
