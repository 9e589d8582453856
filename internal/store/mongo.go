package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"example.com/storefront/internal/model"
)

const (
	productsCollection = "products"
	ordersCollection   = "orders"
	usersCollection    = "users"
)

// MongoStore keeps each order as one document with its lines embedded, so an
// order insert is a single atomic write.
type MongoStore struct {
	client   *mongo.Client
	products *mongo.Collection
	orders   *mongo.Collection
	users    *mongo.Collection
}

func OpenMongo(ctx context.Context, uri, database string) (*MongoStore, error) {
	if database == "" {
		database = "storefront"
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client:   client,
		products: db.Collection(productsCollection),
		orders:   db.Collection(ordersCollection),
		users:    db.Collection(usersCollection),
	}

	_, err = s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo users index: %w", err)
	}
	return s, nil
}

func (s *MongoStore) Close(ctx context.Context) error { return s.client.Disconnect(ctx) }

func mongoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicate
	}
	return err
}

func byID(id string) bson.M { return bson.M{"_id": id} }

// --- products ---

func (s *MongoStore) ListProducts(ctx context.Context) ([]model.Product, error) {
	cur, err := s.products.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	ps := []model.Product{}
	if err := cur.All(ctx, &ps); err != nil {
		return nil, err
	}
	return ps, nil
}

func (s *MongoStore) GetProduct(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	err := s.products.FindOne(ctx, byID(id)).Decode(&p)
	return p, mongoErr(err)
}

func (s *MongoStore) ProductsByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.products.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var ps []model.Product
	if err := cur.All(ctx, &ps); err != nil {
		return nil, err
	}
	return ps, nil
}

func (s *MongoStore) CreateProduct(ctx context.Context, p *model.Product) error {
	_, err := s.products.InsertOne(ctx, p)
	return mongoErr(err)
}

func (s *MongoStore) UpdateProduct(ctx context.Context, p *model.Product) error {
	var existing model.Product
	if err := s.products.FindOne(ctx, byID(p.ID)).Decode(&existing); err != nil {
		return mongoErr(err)
	}
	p.CreatedAt = existing.CreatedAt

	res, err := s.products.ReplaceOne(ctx, byID(p.ID), p)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteProduct(ctx context.Context, id string) (model.Product, error) {
	var p model.Product
	err := s.products.FindOneAndDelete(ctx, byID(id)).Decode(&p)
	return p, mongoErr(err)
}

// --- orders ---

func (s *MongoStore) CreateOrder(ctx context.Context, o *model.Order) error {
	_, err := s.orders.InsertOne(ctx, o)
	return mongoErr(err)
}

func (s *MongoStore) ListOrders(ctx context.Context) ([]model.Order, error) {
	cur, err := s.orders.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	orders := []model.Order{}
	if err := cur.All(ctx, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// --- users ---

func (s *MongoStore) CreateUser(ctx context.Context, u *model.User) error {
	_, err := s.users.InsertOne(ctx, u)
	return mongoErr(err)
}

func (s *MongoStore) UserByEmail(ctx context.Context, email string) (model.User, error) {
	var u model.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	return u, mongoErr(err)
}

func (s *MongoStore) UserByID(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := s.users.FindOne(ctx, byID(id)).Decode(&u)
	return u, mongoErr(err)
}

func (s *MongoStore) ListUsers(ctx context.Context) ([]model.User, error) {
	cur, err := s.users.Find(ctx, bson.D{})
	if err != nil {
		return nil, err
	}
	users := []model.User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

func (s *MongoStore) UpdateUser(ctx context.Context, u *model.User) error {
	res, err := s.users.UpdateOne(ctx, byID(u.ID), bson.M{"$set": bson.M{
		"userName":  u.UserName,
		"email":     u.Email,
		"updatedAt": u.UpdatedAt,
	}})
	if err != nil {
		return mongoErr(err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteUser(ctx context.Context, id string) error {
	res, err := s.users.DeleteOne(ctx, byID(id))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
