package repo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/adilzhan/auth-core/internal/domain"
)

// MongoUsers implements auth.UserStore on the users collection.
type MongoUsers struct{ store *Store }

func NewMongoUsers(s *Store) *MongoUsers { return &MongoUsers{store: s} }

func (r *MongoUsers) coll() *mongo.Collection { return r.store.DB.Collection("users") }

func (r *MongoUsers) Create(ctx context.Context, u *domain.User) error {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.users.insert")
	defer sp.Finish()

	_, err := r.coll().InsertOne(ctx, u)
	if err != nil {
		sp.SetTag("error", err)
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrEmailTaken
		}
		return storeErr(err)
	}
	return nil
}

func (r *MongoUsers) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.users.find_by_email")
	defer sp.Finish()

	var u domain.User
	err := r.coll().FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		sp.SetTag("error", err)
		return nil, storeErr(err)
	}
	return &u, nil
}

func (r *MongoUsers) FindByID(ctx context.Context, id string) (*domain.User, error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.users.find_by_id")
	defer sp.Finish()

	var u domain.User
	err := r.coll().FindOne(ctx, bson.M{"_id": id}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		sp.SetTag("error", err)
		return nil, storeErr(err)
	}
	return &u, nil
}
