package mongodb

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/stockreport/internal/domain/models"
)

// FindTrackingEntry loads a tracking entry by id.
func (r *MongoDBRepository) FindTrackingEntry(ctx context.Context, id int64) (*models.TrackingEntry, error) {
	var entry models.TrackingEntry
	if err := r.findOne(ctx, trackingCollection, bson.M{"_id": id}, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindStockItem loads a stock item by id.
func (r *MongoDBRepository) FindStockItem(ctx context.Context, id int64) (*models.StockItem, error) {
	var item models.StockItem
	if err := r.findOne(ctx, stockItemsCollection, bson.M{"_id": id}, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// LatestTrackingEntry returns the most recent tracking entry of a stock item by date.
func (r *MongoDBRepository) LatestTrackingEntry(ctx context.Context, itemID int64) (*models.TrackingEntry, error) {
	var entry models.TrackingEntry
	opts := options.FindOne().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	if err := r.findOne(ctx, trackingCollection, bson.M{"item_id": itemID}, &entry, opts); err != nil {
		return nil, err
	}
	return &entry, nil
}
