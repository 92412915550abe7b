package models

import "time"

// NotificationCategory groups notifications so users and de-duplication can key on them.
type NotificationCategory string

const (
	CategoryReportGenerated NotificationCategory = "report.generated"
)

// NotificationContext carries the user facing content of a notification.
type NotificationContext struct {
	Name    string `bson:"name" json:"name"`
	Message string `bson:"message" json:"message"`
	Link    string `bson:"link,omitempty" json:"link,omitempty"`
}

// NotificationRecord is the persisted trace of one notification sent to one user.
type NotificationRecord struct {
	Category     NotificationCategory `bson:"category" json:"category"`
	SubjectModel string               `bson:"subject_model" json:"subject_model"`
	SubjectID    int64                `bson:"subject_id" json:"subject_id"`
	UserID       int64                `bson:"user_id" json:"user_id"`
	Context      NotificationContext  `bson:"context" json:"context"`
	Channels     []string             `bson:"channels" json:"channels"`
	CreatedAt    time.Time            `bson:"created_at" json:"created_at"`
}
