package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/stockreport/internal/domain/models"
)

// GetSetting returns the stored value of a plugin setting, or "" when unset.
func (r *MongoDBRepository) GetSetting(ctx context.Context, plugin, key string) (string, error) {
	var setting models.PluginSetting
	err := r.findOne(ctx, settingsCollection, bson.M{"plugin": plugin, "key": key}, &setting)
	if errors.Is(err, models.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return setting.Value, nil
}

// SetSetting upserts a plugin setting value.
func (r *MongoDBRepository) SetSetting(ctx context.Context, plugin, key, value string) error {
	filter := bson.M{"plugin": plugin, "key": key}
	update := bson.M{"$set": models.PluginSetting{Plugin: plugin, Key: key, Value: value}}
	if _, err := r.collection(settingsCollection).UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("upsert setting %s.%s: %w", plugin, key, err)
	}
	return nil
}
