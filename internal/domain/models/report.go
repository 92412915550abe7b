package models

import "time"

// Instance is any host record a report can be rendered against.
type Instance interface {
	ModelName() string
	InstanceID() int64
}

// ModelName implements Instance.
func (p *Part) ModelName() string { return "part.part" }

// InstanceID implements Instance.
func (p *Part) InstanceID() int64 { return p.ID }

// ReportFormat selects how a rendered template body is packaged.
type ReportFormat string

const (
	ReportFormatHTML ReportFormat = "html"
	ReportFormatPDF  ReportFormat = "pdf"
	ReportFormatXLSX ReportFormat = "xlsx"
)

// ReportTemplate is an admin configured document definition.
type ReportTemplate struct {
	ID              int64        `bson:"_id" json:"id"`
	Name            string       `bson:"name" json:"name"`
	Description     string       `bson:"description,omitempty" json:"description,omitempty"`
	Format          ReportFormat `bson:"format" json:"format"`
	Body            string       `bson:"body" json:"-"`
	FilenamePattern string       `bson:"filename_pattern,omitempty" json:"filename_pattern,omitempty"`
}

// ReportOutput is a rendered artifact stored by the host and reachable through URL.
type ReportOutput struct {
	ID          string    `bson:"_id" json:"id"`
	TemplateID  int64     `bson:"template_id" json:"template_id"`
	Filename    string    `bson:"filename" json:"filename"`
	ContentType string    `bson:"content_type" json:"content_type"`
	Content     []byte    `bson:"content" json:"-"`
	URL         string    `bson:"url" json:"url"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
}

// ReportContext is the variable mapping handed to a template while rendering.
type ReportContext map[string]any
