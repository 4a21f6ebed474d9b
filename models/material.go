package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MaterialType string

const (
	MaterialFertilizer MaterialType = "FERTILIZER"
	MaterialPesticide  MaterialType = "PESTICIDE"
	MaterialOther      MaterialType = "OTHER"
)

// Material is a catalogue item that can be looked up by barcode.
type Material struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"           json:"id"`
	Name        string             `bson:"materialName"            json:"materialName" validate:"required"`
	Type        MaterialType       `bson:"type"                    json:"type"         validate:"oneof=FERTILIZER PESTICIDE OTHER"`
	Supplier    string             `bson:"supplier,omitempty"      json:"supplier,omitempty"`
	Barcode     string             `bson:"barcodeNumber,omitempty" json:"barcodeNumber,omitempty"`
	Unit        string             `bson:"unit,omitempty"          json:"unit,omitempty"`
	Description string             `bson:"description,omitempty"   json:"description,omitempty"`
	IsActive    bool               `bson:"isActive"                json:"isActive"`
	CreatedAt   time.Time          `bson:"createdAt"               json:"createdAt"`
}

// MaterialUsage counts how often a user picked a material.
type MaterialUsage struct {
	UserID       primitive.ObjectID `bson:"user"         json:"user"`
	MaterialName string             `bson:"materialName" json:"materialName"`
	UsageCount   int64              `bson:"usageCount"   json:"usageCount"`
	LastUsedAt   time.Time          `bson:"lastUsedAt"   json:"lastUsedAt"`
}
