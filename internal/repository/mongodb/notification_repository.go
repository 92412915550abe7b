package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/mamadbah2/stockreport/internal/domain/models"
)

// SaveNotification stores the trace of a notification sent to a user.
func (r *MongoDBRepository) SaveNotification(ctx context.Context, record models.NotificationRecord) error {
	if _, err := r.collection(notificationsCollection).InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// ListDefaultRecipients returns the users that receive notifications without explicit targets.
func (r *MongoDBRepository) ListDefaultRecipients(ctx context.Context) ([]models.User, error) {
	cursor, err := r.collection(usersCollection).Find(ctx, bson.M{"notify_default": true})
	if err != nil {
		return nil, fmt.Errorf("list default recipients: %w", err)
	}
	var users []models.User
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode default recipients: %w", err)
	}
	return users, nil
}
