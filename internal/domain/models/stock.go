package models

import (
	"fmt"
	"time"
)

// TrackingCode enumerates stock history entry types as emitted by the inventory host.
type TrackingCode int

const (
	TrackingLegacy          TrackingCode = 0
	TrackingCreated         TrackingCode = 1
	TrackingEdited          TrackingCode = 5
	TrackingAssignedSerial  TrackingCode = 6
	TrackingStockCount      TrackingCode = 10
	TrackingStockAdd        TrackingCode = 11
	TrackingStockRemove     TrackingCode = 12
	TrackingStockMove       TrackingCode = 20
	TrackingStockUpdate     TrackingCode = 25
	TrackingSplitFromParent TrackingCode = 40
	TrackingMergedItems     TrackingCode = 45
	TrackingReceivedPO      TrackingCode = 70
	TrackingSentToCustomer  TrackingCode = 100
)

var trackingLabels = map[TrackingCode]string{
	TrackingLegacy:          "Legacy stock tracking entry",
	TrackingCreated:         "Stock item created",
	TrackingEdited:          "Edited stock item",
	TrackingAssignedSerial:  "Assigned serial number",
	TrackingStockCount:      "Stock counted",
	TrackingStockAdd:        "Stock manually added",
	TrackingStockRemove:     "Stock manually removed",
	TrackingStockMove:       "Location changed",
	TrackingStockUpdate:     "Stock updated",
	TrackingSplitFromParent: "Split from parent item",
	TrackingMergedItems:     "Merged stock items",
	TrackingReceivedPO:      "Received against purchase order",
	TrackingSentToCustomer:  "Sent to customer",
}

// Label returns the human readable description of the tracking code.
func (c TrackingCode) Label() string {
	if label, ok := trackingLabels[c]; ok {
		return label
	}
	return fmt.Sprintf("Tracking code %d", int(c))
}

// Deltas maps a changed field name to its new value.
type Deltas map[string]any

// User is the subset of host user data needed to address notifications.
type User struct {
	ID            int64  `bson:"_id" json:"id"`
	Username      string `bson:"username" json:"username"`
	Email         string `bson:"email,omitempty" json:"email,omitempty"`
	Phone         string `bson:"phone,omitempty" json:"phone,omitempty"`
	NotifyDefault bool   `bson:"notify_default" json:"notify_default"`
}

// Part is the product definition a stock item belongs to.
type Part struct {
	ID   int64  `bson:"id" json:"id"`
	Name string `bson:"name" json:"name"`
}

// StockItem is a physical quantity of a part held in inventory.
type StockItem struct {
	ID            int64    `bson:"_id" json:"id"`
	Part          Part     `bson:"part" json:"part"`
	Quantity      float64  `bson:"quantity" json:"quantity"`
	Owner         *User    `bson:"owner,omitempty" json:"owner,omitempty"`
	PurchasePrice *float64 `bson:"purchase_price,omitempty" json:"purchase_price,omitempty"`
}

// ModelName implements Instance.
func (s *StockItem) ModelName() string { return "stock.stockitem" }

// InstanceID implements Instance.
func (s *StockItem) InstanceID() int64 { return s.ID }

// TrackingEntry is an audit record of a single change to a stock item.
type TrackingEntry struct {
	ID     int64        `bson:"_id" json:"id"`
	ItemID int64        `bson:"item_id" json:"item_id"`
	Date   time.Time    `bson:"date" json:"date"`
	User   *User        `bson:"user,omitempty" json:"user,omitempty"`
	Code   TrackingCode `bson:"tracking_type" json:"tracking_type"`
	Notes  string       `bson:"notes" json:"notes"`
	Deltas Deltas       `bson:"deltas,omitempty" json:"deltas,omitempty"`
}

// Label returns the human readable description of the entry type.
func (t TrackingEntry) Label() string {
	return t.Code.Label()
}
