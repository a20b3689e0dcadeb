package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product represents a catalog entry
type Product struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name        string             `bson:"name" json:"name"`
	Slug        string             `bson:"slug" json:"slug"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Tags        []string           `bson:"tags,omitempty" json:"tags,omitempty"`
	Price       float64            `bson:"price" json:"price"`
	Colour      string             `bson:"colour,omitempty" json:"colour,omitempty"`
	Size        string             `bson:"size,omitempty" json:"size,omitempty"` // "sm", "md", "lg", "xl"
	Images      []string           `bson:"images,omitempty" json:"images,omitempty"`
	InStock     bool               `bson:"in_stock" json:"inStock"`
	TotalStock  int                `bson:"total_stock" json:"totalStock"`
	SoldCount   int                `bson:"sold_count" json:"soldCount"`
	CreatedAt   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updatedAt"`
}
