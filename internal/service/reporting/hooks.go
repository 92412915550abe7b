package reporting

import (
	"context"
	"net/http"

	"github.com/mamadbah2/stockreport/internal/domain/models"
)

// ContextHook lets a plugin add variables to the context of every rendered instance.
// req is nil when the render was not triggered by an HTTP request.
type ContextHook interface {
	AddReportContext(ctx context.Context, tmpl models.ReportTemplate, instance models.Instance, req *http.Request, reportCtx models.ReportContext) models.ReportContext
}

// Callback is notified after an output has been stored.
type Callback interface {
	ReportCallback(ctx context.Context, tmpl models.ReportTemplate, instance models.Instance, output models.ReportOutput)
}
