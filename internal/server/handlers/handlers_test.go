package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/stockreport/internal/domain/models"
	"github.com/mamadbah2/stockreport/internal/plugin/stockeventreport"
	"github.com/mamadbah2/stockreport/internal/service/reporting"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingPlugin struct {
	event    string
	payloads []models.EventPayload
	ctxErr   error
}

func (p *recordingPlugin) Wants(event string) bool { return event == p.event }

func (p *recordingPlugin) Handle(ctx context.Context, _ string, payload models.EventPayload) {
	p.payloads = append(p.payloads, payload)
	p.ctxErr = ctx.Err()
}

func perform(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestEventHandlerDispatchesToSubscribedPlugins(t *testing.T) {
	wanted := &recordingPlugin{event: models.EventTrackingCreated}
	other := &recordingPlugin{event: "order.created"}
	r := gin.New()
	r.POST("/events", NewEventHandler([]EventPlugin{wanted, other}, nil).Receive)

	rec := perform(r, http.MethodPost, "/events", `{"event":"stock_stockitemtracking.created","id":100}`)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []models.EventPayload{{ID: 100}}, wanted.payloads)
	assert.NoError(t, wanted.ctxErr)
	assert.Empty(t, other.payloads)
	assert.JSONEq(t, `{"event":"stock_stockitemtracking.created","dispatched":1}`, rec.Body.String())
}

func TestEventHandlerRejectsMalformedBody(t *testing.T) {
	r := gin.New()
	r.POST("/events", NewEventHandler(nil, nil).Receive)

	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodPost, "/events", `{"event":`).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodPost, "/events", `{"id":1}`).Code)
	assert.Equal(t, http.StatusAccepted, perform(r, http.MethodPost, "/events", `{"event":"unknown","id":1}`).Code)
}

type fakeAdmin struct {
	values    map[string]string
	updateErr error
	readErr   error
}

func (f *fakeAdmin) Metadata() models.PluginMetadata {
	return models.PluginMetadata{Name: "StockEventReport", Slug: "stockeventreport"}
}

func (f *fakeAdmin) Settings() []models.SettingDefinition {
	return []models.SettingDefinition{{Key: stockeventreport.SettingAddTemplate, Required: true}}
}

func (f *fakeAdmin) SettingValues(context.Context) (map[string]string, error) {
	return f.values, f.readErr
}

func (f *fakeAdmin) UpdateSetting(_ context.Context, key, value string) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.values[key] = value
	return nil
}

func pluginRouter(admin PluginAdmin) *gin.Engine {
	h := NewPluginHandler(admin, nil)
	r := gin.New()
	r.GET("/plugins/stockeventreport", h.Describe)
	r.PUT("/plugins/stockeventreport/settings/:key", h.UpdateSetting)
	return r
}

func TestPluginHandlerDescribe(t *testing.T) {
	r := pluginRouter(&fakeAdmin{values: map[string]string{stockeventreport.SettingAddTemplate: "7"}})

	rec := perform(r, http.MethodGet, "/plugins/stockeventreport", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Metadata models.PluginMetadata      `json:"metadata"`
		Settings []models.SettingDefinition `json:"settings"`
		Values   map[string]string          `json:"values"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "stockeventreport", body.Metadata.Slug)
	assert.Len(t, body.Settings, 1)
	assert.Equal(t, "7", body.Values[stockeventreport.SettingAddTemplate])

	failing := pluginRouter(&fakeAdmin{readErr: errors.New("mongo down")})
	assert.Equal(t, http.StatusInternalServerError, perform(failing, http.MethodGet, "/plugins/stockeventreport", "").Code)
}

func TestPluginHandlerUpdateSetting(t *testing.T) {
	admin := &fakeAdmin{values: map[string]string{}}
	r := pluginRouter(admin)

	rec := perform(r, http.MethodPut, "/plugins/stockeventreport/settings/STOCK_ADD_TEMPLATE", `{"value":"7"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "7", admin.values["STOCK_ADD_TEMPLATE"])

	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodPut, "/plugins/stockeventreport/settings/STOCK_ADD_TEMPLATE", `nope`).Code)

	cases := map[error]int{
		stockeventreport.ErrUnknownSetting:  http.StatusNotFound,
		stockeventreport.ErrInvalidTemplate: http.StatusUnprocessableEntity,
		errors.New("mongo down"):            http.StatusInternalServerError,
	}
	for err, want := range cases {
		admin.updateErr = err
		rec := perform(r, http.MethodPut, "/plugins/stockeventreport/settings/X", `{"value":"1"}`)
		assert.Equal(t, want, rec.Code, err.Error())
	}
}

type fakeReportStore struct {
	templates map[int64]*models.ReportTemplate
	items     map[int64]*models.StockItem
	outputs   map[string]*models.ReportOutput
}

func (f *fakeReportStore) FindTemplate(_ context.Context, id int64) (*models.ReportTemplate, error) {
	if t, ok := f.templates[id]; ok {
		return t, nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeReportStore) ListTemplates(context.Context) ([]models.ReportTemplate, error) {
	out := make([]models.ReportTemplate, 0, len(f.templates))
	for _, t := range f.templates {
		out = append(out, *t)
	}
	return out, nil
}

func (f *fakeReportStore) FindOutput(_ context.Context, id string) (*models.ReportOutput, error) {
	if o, ok := f.outputs[id]; ok {
		return o, nil
	}
	return nil, models.ErrNotFound
}

func (f *fakeReportStore) FindStockItem(_ context.Context, id int64) (*models.StockItem, error) {
	if it, ok := f.items[id]; ok {
		return it, nil
	}
	return nil, models.ErrNotFound
}

type fakePrinter struct {
	req       *http.Request
	instances []models.Instance
	err       error
}

func (f *fakePrinter) RenderRequest(_ context.Context, req *http.Request, tmpl models.ReportTemplate, instances []models.Instance) (*models.ReportOutput, error) {
	f.req = req
	f.instances = instances
	if f.err != nil {
		return nil, f.err
	}
	return &models.ReportOutput{ID: "abc", TemplateID: tmpl.ID, URL: "http://host/media/report/abc"}, nil
}

func reportRouter(store ReportStore, printer Printer) *gin.Engine {
	h := NewReportHandler(store, printer, nil)
	r := gin.New()
	r.GET("/reports/templates", h.ListTemplates)
	r.POST("/reports/:id/print", h.Print)
	r.GET("/media/report/:id", h.Download)
	return r
}

func newReportStore() *fakeReportStore {
	return &fakeReportStore{
		templates: map[int64]*models.ReportTemplate{7: {ID: 7, Name: "Stock added", Format: models.ReportFormatHTML}},
		items:     map[int64]*models.StockItem{42: {ID: 42}, 43: {ID: 43}},
		outputs: map[string]*models.ReportOutput{
			"abc": {ID: "abc", Filename: "stock-added-abc.pdf", ContentType: "application/pdf", Content: []byte("%PDF")},
		},
	}
}

func TestReportHandlerPrint(t *testing.T) {
	printer := &fakePrinter{}
	r := reportRouter(newReportStore(), printer)

	rec := perform(r, http.MethodPost, "/reports/7/print", `{"items":[42,43]}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.NotNil(t, printer.req)
	require.Len(t, printer.instances, 2)
	assert.Equal(t, int64(43), printer.instances[1].InstanceID())

	var out models.ReportOutput
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "http://host/media/report/abc", out.URL)
}

func TestReportHandlerPrintErrors(t *testing.T) {
	r := reportRouter(newReportStore(), &fakePrinter{})
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodPost, "/reports/x/print", `{"items":[42]}`).Code)
	assert.Equal(t, http.StatusBadRequest, perform(r, http.MethodPost, "/reports/7/print", `{"items":[]}`).Code)
	assert.Equal(t, http.StatusNotFound, perform(r, http.MethodPost, "/reports/8/print", `{"items":[42]}`).Code)
	assert.Equal(t, http.StatusNotFound, perform(r, http.MethodPost, "/reports/7/print", `{"items":[99]}`).Code)

	unsupported := reportRouter(newReportStore(), &fakePrinter{err: reporting.ErrUnsupportedFormat})
	assert.Equal(t, http.StatusUnprocessableEntity, perform(unsupported, http.MethodPost, "/reports/7/print", `{"items":[42]}`).Code)

	broken := reportRouter(newReportStore(), &fakePrinter{err: errors.New("gotenberg down")})
	assert.Equal(t, http.StatusBadGateway, perform(broken, http.MethodPost, "/reports/7/print", `{"items":[42]}`).Code)
}

func TestReportHandlerDownload(t *testing.T) {
	r := reportRouter(newReportStore(), &fakePrinter{})

	rec := perform(r, http.MethodGet, "/media/report/abc", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="stock-added-abc.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "%PDF", rec.Body.String())

	assert.Equal(t, http.StatusNotFound, perform(r, http.MethodGet, "/media/report/missing", "").Code)
}

func TestReportHandlerListTemplates(t *testing.T) {
	r := reportRouter(newReportStore(), &fakePrinter{})

	rec := perform(r, http.MethodGet, "/reports/templates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[{"id":7,"name":"Stock added","format":"html"}]`, rec.Body.String())
}
