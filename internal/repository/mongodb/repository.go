package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/stockreport/internal/domain/models"
)

const (
	stockItemsCollection    = "stock_items"
	trackingCollection      = "stock_tracking"
	templatesCollection     = "report_templates"
	settingsCollection      = "plugin_settings"
	outputsCollection       = "report_outputs"
	notificationsCollection = "notifications"
	usersCollection         = "users"
)

// MongoDBRepository is the host store backed by MongoDB. It satisfies the
// narrow store interfaces declared by the plugin and the host services.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.db.Collection(name)
}

// findOne decodes the single document matching filter into out.
func (r *MongoDBRepository) findOne(ctx context.Context, coll string, filter any, out any, opts ...*options.FindOneOptions) error {
	err := r.collection(coll).FindOne(ctx, filter, opts...).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("find in %s: %w", coll, err)
	}
	return nil
}
