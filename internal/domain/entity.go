// Package domain holds the retail entities persisted in the entity store.
// Every entity embeds Entity, which carries the store key, the version token
// used for optimistic concurrency and the last write time.
package domain

import "time"

// Partitions used by the entity store.
const (
	PartitionCustomer = "CUSTOMER"
	PartitionProduct  = "PRODUCT"
	PartitionOrder    = "ORDER"
)

// Entity is the keyed base shared by all stored entities.
type Entity struct {
	PartitionKey string    `json:"partitionKey"`
	RowKey       string    `json:"rowKey"`
	ETag         string    `json:"eTag,omitempty"`
	Timestamp    time.Time `json:"timestamp"`
}

// Base exposes the embedded Entity so generic tables can set keys and versions.
func (e *Entity) Base() *Entity { return e }
