package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/models"
)

// FavoriteController handles the user-to-product favorites join
type FavoriteController struct {
	Collection        *mongo.Collection
	ProductCollection *mongo.Collection
}

// NewFavoriteController creates a new FavoriteController
func NewFavoriteController(client *mongo.Client) *FavoriteController {
	db := client.Database("storefront")
	return &FavoriteController{
		Collection:        db.Collection("favorites"),
		ProductCollection: db.Collection("products"),
	}
}

// GetFavorites lists the user's favorited products
func (fc *FavoriteController) GetFavorites(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cursor, err := fc.Collection.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		writeError(w, http.StatusInternalServerError, errServer, "Error fetching favorites")
		return
	}
	defer cursor.Close(ctx)

	var favorites []models.Favorite
	if err := cursor.All(ctx, &favorites); err != nil {
		writeError(w, http.StatusInternalServerError, errServer, "Error reading favorites")
		return
	}

	products := []models.Product{}
	for _, fav := range favorites {
		var product models.Product
		if err := fc.ProductCollection.FindOne(ctx, bson.M{"_id": fav.ProductID}).Decode(&product); err == nil {
			products = append(products, product)
		}
	}

	writeJSON(w, http.StatusOK, products)
}

// AddFavorite favorites a product; re-adding is a no-op
func (fc *FavoriteController) AddFavorite(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var input struct {
		ProductID string `json:"productId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil || input.ProductID == "" {
		writeError(w, http.StatusBadRequest, errValidation, "Product ID is required")
		return
	}
	productID, err := primitive.ObjectIDFromHex(input.ProductID)
	if err != nil {
		writeError(w, http.StatusBadRequest, errValidation, "Invalid product ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var product models.Product
	if err := fc.ProductCollection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product); err != nil {
		writeError(w, http.StatusNotFound, errNotFound, "Product not found")
		return
	}

	count, err := fc.Collection.CountDocuments(ctx, bson.M{"user_id": userID, "product_id": productID})
	if err != nil {
		writeError(w, http.StatusInternalServerError, errServer, "Database error")
		return
	}
	if count > 0 {
		writeJSON(w, http.StatusOK, product)
		return
	}

	_, err = fc.Collection.InsertOne(ctx, models.Favorite{
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, errServer, "Error creating favorite")
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

// RemoveFavorite unfavorites a product
func (fc *FavoriteController) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	_, userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	productID, err := primitive.ObjectIDFromHex(mux.Vars(r)["productId"])
	if err != nil {
		writeError(w, http.StatusBadRequest, errValidation, "Invalid product ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := fc.Collection.DeleteOne(ctx, bson.M{"user_id": userID, "product_id": productID})
	if err != nil {
		writeError(w, http.StatusInternalServerError, errServer, "Error removing favorite")
		return
	}
	if result.DeletedCount == 0 {
		writeError(w, http.StatusNotFound, errNotFound, "Favorite not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Product removed from favorites"})
}
