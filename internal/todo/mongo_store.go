package todo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const collectionName = "todos"

// MongoStore is a Gateway over the todos collection. Documents use the UUID
// string as _id.
type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{coll: db.Collection(collectionName)}
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.coll.Database().Client().Ping(ctx, readpref.Primary())
}

func (s *MongoStore) FindAll(ctx context.Context) ([]Todo, error) {
	cur, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}

	todos := []Todo{}
	if err := cur.All(ctx, &todos); err != nil {
		return nil, err
	}
	if todos == nil {
		todos = []Todo{}
	}
	return todos, nil
}

func (s *MongoStore) FindByID(ctx context.Context, id string) (Todo, error) {
	return decodeTodo(s.coll.FindOne(ctx, bson.M{"_id": id}))
}

func (s *MongoStore) Insert(ctx context.Context, todo Todo) (Todo, error) {
	todo.ID = uuid.NewString()
	if _, err := s.coll.InsertOne(ctx, todo); err != nil {
		return Todo{}, err
	}
	return todo, nil
}

func (s *MongoStore) FindByIDAndUpdate(ctx context.Context, id string, patch Patch) (Todo, error) {
	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Completed != nil {
		set["completed"] = *patch.Completed
	}
	if len(set) == 0 {
		return s.FindByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	return decodeTodo(s.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts))
}

func (s *MongoStore) FindByIDAndDelete(ctx context.Context, id string) (Todo, error) {
	return decodeTodo(s.coll.FindOneAndDelete(ctx, bson.M{"_id": id}))
}

func decodeTodo(res *mongo.SingleResult) (Todo, error) {
	var todo Todo
	if err := res.Decode(&todo); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Todo{}, ErrNotFound
		}
		return Todo{}, err
	}
	return todo, nil
}
