package checkout

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storefront/models"
)

// MongoOrderStore implements OrderStore on the orders collection.
type MongoOrderStore struct {
	Collection *mongo.Collection
}

func NewMongoOrderStore(client *mongo.Client) *MongoOrderStore {
	return &MongoOrderStore{Collection: client.Database("storefront").Collection("orders")}
}

func (s *MongoOrderStore) Insert(ctx context.Context, order *models.Order) (primitive.ObjectID, error) {
	result, err := s.Collection.InsertOne(ctx, order)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return result.InsertedID.(primitive.ObjectID), nil
}

func (s *MongoOrderStore) FindByID(ctx context.Context, id, userID primitive.ObjectID) (*models.Order, error) {
	var order models.Order
	err := s.Collection.FindOne(ctx, bson.M{"_id": id, "user_id": userID}).Decode(&order)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// TransitionFromPending is the single-row conditional write guarding the
// read-modify-write race between concurrent confirmations.
func (s *MongoOrderStore) TransitionFromPending(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (bool, error) {
	result, err := s.Collection.UpdateOne(ctx,
		bson.M{"_id": id, "status": models.OrderPending},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

// MongoPricer implements Pricer on the products collection.
type MongoPricer struct {
	Collection *mongo.Collection
}

func NewMongoPricer(client *mongo.Client) *MongoPricer {
	return &MongoPricer{Collection: client.Database("storefront").Collection("products")}
}

func (p *MongoPricer) UnitPrice(ctx context.Context, productID primitive.ObjectID) (float64, error) {
	var product models.Product
	err := p.Collection.FindOne(ctx, bson.M{"_id": productID}).Decode(&product)
	if err != nil {
		return 0, err
	}
	return product.Price, nil
}
