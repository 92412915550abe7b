package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/stockreport/internal/domain/models"
)

// FindTemplate loads a report template by id.
func (r *MongoDBRepository) FindTemplate(ctx context.Context, id int64) (*models.ReportTemplate, error) {
	var tmpl models.ReportTemplate
	if err := r.findOne(ctx, templatesCollection, bson.M{"_id": id}, &tmpl); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// ListTemplates returns every report template ordered by name.
func (r *MongoDBRepository) ListTemplates(ctx context.Context) ([]models.ReportTemplate, error) {
	cursor, err := r.collection(templatesCollection).Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list report templates: %w", err)
	}
	var out []models.ReportTemplate
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode report templates: %w", err)
	}
	return out, nil
}

// SaveOutput stores a rendered report output.
func (r *MongoDBRepository) SaveOutput(ctx context.Context, output models.ReportOutput) error {
	if _, err := r.collection(outputsCollection).InsertOne(ctx, output); err != nil {
		return fmt.Errorf("failed to insert report output: %w", err)
	}
	return nil
}

// FindOutput loads a stored report output by id.
func (r *MongoDBRepository) FindOutput(ctx context.Context, id string) (*models.ReportOutput, error) {
	var output models.ReportOutput
	if err := r.findOne(ctx, outputsCollection, bson.M{"_id": id}, &output); err != nil {
		return nil, err
	}
	return &output, nil
}

// DeleteOutputsBefore removes outputs created before cutoff and returns how many were deleted.
func (r *MongoDBRepository) DeleteOutputsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.collection(outputsCollection).DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("delete report outputs: %w", err)
	}
	return res.DeletedCount, nil
}
