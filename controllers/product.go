package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storefront/models"
)

// ProductController handles catalog requests
type ProductController struct {
	Collection *mongo.Collection
}

// NewProductController creates a new ProductController
func NewProductController(client *mongo.Client) *ProductController {
	return &ProductController{
		Collection: client.Database("storefront").Collection("products"),
	}
}

// GetProducts lists products with tag/name filters, sorting and pagination.
// Responds with {items, total}.
func (pc *ProductController) GetProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = 12
	}

	filter := bson.M{}
	if tag := q.Get("tag"); tag != "" {
		filter["tags"] = tag
	}
	if name := q.Get("q"); name != "" {
		filter["name"] = bson.M{"$regex": name, "$options": "i"}
	}

	sort := bson.D{{Key: "sold_count", Value: -1}} // "popular" is the default
	switch q.Get("sort") {
	case "price-asc":
		sort = bson.D{{Key: "price", Value: 1}}
	case "price-desc":
		sort = bson.D{{Key: "price", Value: -1}}
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	total, err := pc.Collection.CountDocuments(ctx, filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errServer, "Error counting products")
		return
	}

	opts := options.Find().
		SetSort(sort).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cursor, err := pc.Collection.Find(ctx, filter, opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errServer, "Error fetching products")
		return
	}
	defer cursor.Close(ctx)

	items := []models.Product{}
	if err := cursor.All(ctx, &items); err != nil {
		writeError(w, http.StatusInternalServerError, errServer, "Error reading products")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items": items,
		"total": total,
	})
}

// GetProductBySlug retrieves a single product by its slug
func (pc *ProductController) GetProductBySlug(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var product models.Product
	err := pc.Collection.FindOne(ctx, bson.M{"slug": slug}).Decode(&product)
	if err != nil {
		writeError(w, http.StatusNotFound, errNotFound, "Product not found")
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// CreateProduct handles adding a new product (admin only)
func (pc *ProductController) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var product models.Product
	if err := json.NewDecoder(r.Body).Decode(&product); err != nil {
		writeError(w, http.StatusBadRequest, errValidation, "Invalid input")
		return
	}
	if product.Name == "" || product.Slug == "" || product.Price <= 0 {
		writeError(w, http.StatusBadRequest, errValidation, "name, slug and a positive price are required")
		return
	}

	now := time.Now()
	product.CreatedAt = now
	product.UpdatedAt = now

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := pc.Collection.InsertOne(ctx, product)
	if err != nil {
		writeError(w, http.StatusInternalServerError, errServer, "Error creating product")
		return
	}
	product.ID = result.InsertedID.(primitive.ObjectID)

	writeJSON(w, http.StatusCreated, product)
}

// UpdateProduct applies a partial update to a product (admin only)
func (pc *ProductController) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, errValidation, "Invalid product ID")
		return
	}

	var input struct {
		Name        *string   `json:"name"`
		Slug        *string   `json:"slug"`
		Description *string   `json:"description"`
		Tags        *[]string `json:"tags"`
		Price       *float64  `json:"price"`
		Colour      *string   `json:"colour"`
		Size        *string   `json:"size"`
		Images      *[]string `json:"images"`
		InStock     *bool     `json:"inStock"`
		TotalStock  *int      `json:"totalStock"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, errValidation, "Invalid input")
		return
	}

	updates := bson.M{"updated_at": time.Now()}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Slug != nil {
		updates["slug"] = *input.Slug
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Tags != nil {
		updates["tags"] = *input.Tags
	}
	if input.Price != nil {
		if *input.Price <= 0 {
			writeError(w, http.StatusBadRequest, errValidation, "price must be positive")
			return
		}
		updates["price"] = *input.Price
	}
	if input.Colour != nil {
		updates["colour"] = *input.Colour
	}
	if input.Size != nil {
		updates["size"] = *input.Size
	}
	if input.Images != nil {
		updates["images"] = *input.Images
	}
	if input.InStock != nil {
		updates["in_stock"] = *input.InStock
	}
	if input.TotalStock != nil {
		updates["total_stock"] = *input.TotalStock
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var product models.Product
	err = pc.Collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$set": updates},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&product)
	if err != nil {
		writeError(w, http.StatusNotFound, errNotFound, "Product not found")
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// DeleteProduct removes a product (admin only)
func (pc *ProductController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, errValidation, "Invalid product ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := pc.Collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		writeError(w, http.StatusInternalServerError, errServer, "Error deleting product")
		return
	}
	if result.DeletedCount == 0 {
		writeError(w, http.StatusNotFound, errNotFound, "Product not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
