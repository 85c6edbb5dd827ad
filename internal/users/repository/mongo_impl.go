package repository

import (
	"context"
	"errors"

	"usersvc/internal/users/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type MongoRepository struct {
	Users  *mongo.Collection
	Client *mongo.Client
}

func NewMongoRepository(db *mongo.Database, usersCollectionName string) *MongoRepository {
	return &MongoRepository{
		Users:  db.Collection(usersCollectionName),
		Client: db.Client(),
	}
}

func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: model.FieldEmail, Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_1"),
		},
		{
			Keys:    bson.D{{Key: model.FieldPhone, Value: 1}},
			Options: options.Index().SetUnique(true).SetName("phone_1"),
		},
		// List ordering
		{
			Keys: bson.D{
				{Key: model.FieldCreatedAt, Value: 1},
				{Key: model.FieldID, Value: 1},
			},
			Options: options.Index().SetName("createdAt_1__id_1"),
		},
	}

	_, err := r.Users.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	return r.Client.Ping(ctx, readpref.Primary())
}

func (r *MongoRepository) InsertMany(ctx context.Context, users []*model.User) (*model.InsertManyResult, error) {
	result := &model.InsertManyResult{
		Inserted: []*model.User{},
		Failures: []model.ItemFailure{},
	}
	if len(users) == 0 {
		return result, nil
	}

	docs := make([]interface{}, len(users))
	for i, u := range users {
		if u.ID.IsZero() {
			u.ID = primitive.NewObjectID()
		}
		docs[i] = u
	}

	// Ordered: false keeps inserting past failed documents
	opts := options.InsertMany().SetOrdered(false)
	_, err := r.Users.InsertMany(ctx, docs, opts)
	if err != nil {
		var bulkErr mongo.BulkWriteException
		if !errors.As(err, &bulkErr) || len(bulkErr.WriteErrors) == 0 {
			return nil, classifyError(err)
		}

		result.Failures = itemFailures(bulkErr.WriteErrors)
		failed := make(map[int]bool, len(result.Failures))
		for _, f := range result.Failures {
			failed[f.Index] = true
		}
		for i, u := range users {
			if !failed[i] {
				result.Inserted = append(result.Inserted, u)
			}
		}
		return result, nil
	}

	result.Inserted = users
	return result, nil
}

func (r *MongoRepository) BulkWrite(ctx context.Context, models []mongo.WriteModel) (*model.BulkWriteResult, error) {
	result := &model.BulkWriteResult{Failures: []model.ItemFailure{}}
	if len(models) == 0 {
		return result, nil
	}

	opts := options.BulkWrite().SetOrdered(false)
	res, err := r.Users.BulkWrite(ctx, models, opts)
	if res != nil {
		result.BulkWriteCounts = model.BulkWriteCounts{
			Matched:  res.MatchedCount,
			Modified: res.ModifiedCount,
			Upserted: res.UpsertedCount,
			Deleted:  res.DeletedCount,
			Inserted: res.InsertedCount,
		}
	}
	if err != nil {
		var bulkErr mongo.BulkWriteException
		if errors.As(err, &bulkErr) && len(bulkErr.WriteErrors) > 0 {
			result.Failures = itemFailures(bulkErr.WriteErrors)
			return result, nil
		}
		return nil, classifyError(err)
	}
	return result, nil
}

func (r *MongoRepository) Find(ctx context.Context, skip, limit int64) ([]*model.User, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: model.FieldCreatedAt, Value: 1}, {Key: model.FieldID, Value: 1}}).
		SetSkip(skip).
		SetLimit(limit)

	cursor, err := r.Users.Find(ctx, bson.M{}, findOptions)
	if err != nil {
		return nil, classifyError(err)
	}
	defer cursor.Close(ctx)

	users := []*model.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, classifyError(err)
	}
	return users, nil
}

func (r *MongoRepository) CountDocuments(ctx context.Context) (int64, error) {
	total, err := r.Users.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, classifyError(err)
	}
	return total, nil
}

func (r *MongoRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, model.NewCastFailure(err)
	}

	var user model.User
	err = r.Users.FindOne(ctx, bson.M{model.FieldID: oid}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, classifyError(err)
	}
	return &user, nil
}
