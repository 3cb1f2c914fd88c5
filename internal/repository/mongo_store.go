package repository

import (
	"context"
	"errors"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/iliyamo/cinema-catalog-bot/internal/model"
)

// MongoStore keeps movies, categories and users in three collections of
// one database.  Unique indexes are created by database.ConnectMongo.
type MongoStore struct {
	db         *mongo.Database
	movies     *mongo.Collection
	categories *mongo.Collection
	users      *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		db:         db,
		movies:     db.Collection("movies"),
		categories: db.Collection("categories"),
		users:      db.Collection("users"),
	}
}

func (m *MongoStore) GetMovie(ctx context.Context, code string) (*model.Movie, error) {
	var mv model.Movie
	err := m.movies.FindOne(ctx, bson.M{"code": code}).Decode(&mv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &mv, nil
}

func (m *MongoStore) SearchMovies(ctx context.Context, query string) ([]model.Movie, error) {
	filter := bson.M{"title": primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}}
	return m.find(ctx, filter, options.Find().SetSort(bson.D{bson.E{Key: "title", Value: 1}}))
}

func (m *MongoStore) ListMoviesByCategory(ctx context.Context, category string) ([]model.Movie, error) {
	return m.find(ctx, bson.M{"category": category}, options.Find().SetSort(bson.D{bson.E{Key: "title", Value: 1}}))
}

func (m *MongoStore) ListMovies(ctx context.Context) ([]model.Movie, error) {
	opts := options.Find().SetSort(bson.D{bson.E{Key: "title", Value: 1}, bson.E{Key: "code", Value: 1}})
	return m.find(ctx, bson.M{}, opts)
}

func (m *MongoStore) TopMovies(ctx context.Context, limit int) ([]model.Movie, error) {
	opts := options.Find().
		SetSort(bson.D{bson.E{Key: "views", Value: -1}, bson.E{Key: "code", Value: 1}}).
		SetLimit(int64(limit))
	return m.find(ctx, bson.M{}, opts)
}

// IncrementViews uses $inc without upsert, so an unknown code matches
// nothing and no document is created.
func (m *MongoStore) IncrementViews(ctx context.Context, code string) error {
	_, err := m.movies.UpdateOne(ctx, bson.M{"code": code}, bson.M{"$inc": bson.M{"views": 1}})
	return err
}

// UpsertMovie sets the editable fields and only initializes views on insert.
func (m *MongoStore) UpsertMovie(ctx context.Context, mv model.Movie) error {
	if mv.Code == "" {
		return ErrEmptyKey
	}
	_, err := m.movies.UpdateOne(ctx,
		bson.M{"code": mv.Code},
		bson.M{
			"$set": bson.M{
				"media_ref": mv.MediaRef,
				"title":     mv.Title,
				"category":  mv.Category,
			},
			"$setOnInsert": bson.M{"views": int64(0)},
		},
		options.Update().SetUpsert(true),
	)
	return err
}

func (m *MongoStore) DeleteMovie(ctx context.Context, code string) error {
	_, err := m.movies.DeleteOne(ctx, bson.M{"code": code})
	return err
}

func (m *MongoStore) CountMovies(ctx context.Context) (int64, error) {
	return m.movies.CountDocuments(ctx, bson.M{})
}

func (m *MongoStore) AddCategory(ctx context.Context, name string) error {
	if name == "" {
		return ErrEmptyKey
	}
	_, err := m.categories.UpdateOne(ctx,
		bson.M{"name": name},
		bson.M{"$setOnInsert": bson.M{"name": name}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (m *MongoStore) DeleteCategory(ctx context.Context, name string) error {
	_, err := m.categories.DeleteOne(ctx, bson.M{"name": name})
	return err
}

func (m *MongoStore) ListCategories(ctx context.Context) ([]string, error) {
	cur, err := m.categories.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{bson.E{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []string
	for cur.Next(ctx) {
		var c model.Category
		if err := cur.Decode(&c); err != nil {
			return nil, err
		}
		out = append(out, c.Name)
	}
	return out, cur.Err()
}

func (m *MongoStore) UpsertUser(ctx context.Context, u model.User) error {
	if u.ID == 0 {
		return ErrEmptyKey
	}
	seen := u.LastSeenAt
	if seen.IsZero() {
		seen = time.Now().UTC()
	}
	_, err := m.users.UpdateOne(ctx,
		bson.M{"user_id": u.ID},
		bson.M{"$set": bson.M{"username": u.DisplayName, "last_seen": seen}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (m *MongoStore) ListUserIDs(ctx context.Context) ([]int64, error) {
	opts := options.Find().
		SetProjection(bson.M{"user_id": 1}).
		SetSort(bson.D{bson.E{Key: "user_id", Value: 1}})
	cur, err := m.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var ids []int64
	for cur.Next(ctx) {
		var u model.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		ids = append(ids, u.ID)
	}
	return ids, cur.Err()
}

func (m *MongoStore) CountUsers(ctx context.Context) (int64, error) {
	return m.users.CountDocuments(ctx, bson.M{})
}

func (m *MongoStore) Close(ctx context.Context) error {
	return m.db.Client().Disconnect(ctx)
}

func (m *MongoStore) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]model.Movie, error) {
	cur, err := m.movies.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []model.Movie
	for cur.Next(ctx) {
		var mv model.Movie
		if err := cur.Decode(&mv); err != nil {
			return nil, err
		}
		out = append(out, mv)
	}
	return out, cur.Err()
}
