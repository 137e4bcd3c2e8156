package repo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/adilzhan/auth-core/internal/domain"
)

// MongoSessions implements auth.SessionStore on the sessions collection.
// Every read filters on expires_at so a dead-but-unpurged record behaves as
// absent; the TTL index only reclaims storage.
type MongoSessions struct{ store *Store }

func NewMongoSessions(s *Store) *MongoSessions { return &MongoSessions{store: s} }

func (r *MongoSessions) coll() *mongo.Collection { return r.store.DB.Collection("sessions") }

func alive(now time.Time) bson.M { return bson.M{"$gt": now} }

func (r *MongoSessions) Create(ctx context.Context, s *domain.Session) error {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.sessions.insert")
	defer sp.Finish()

	if _, err := r.coll().InsertOne(ctx, s); err != nil {
		sp.SetTag("error", err)
		return storeErr(err)
	}
	return nil
}

func (r *MongoSessions) Get(ctx context.Context, id string) (*domain.Session, error) {
	var s domain.Session
	err := r.coll().FindOne(ctx, bson.M{"_id": id, "expires_at": alive(time.Now().UTC())}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return &s, nil
}

// Consume atomically removes and returns a live session. FindOneAndDelete
// gives the compare-and-delete the rotation race requires: of two concurrent
// callers one gets the document, the other ErrNotFound.
func (r *MongoSessions) Consume(ctx context.Context, id string) (*domain.Session, error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.sessions.consume")
	defer sp.Finish()

	var s domain.Session
	err := r.coll().FindOneAndDelete(ctx, bson.M{"_id": id, "expires_at": alive(time.Now().UTC())}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		sp.SetTag("error", err)
		return nil, storeErr(err)
	}
	return &s, nil
}

func (r *MongoSessions) Delete(ctx context.Context, id string) error {
	if _, err := r.coll().DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return storeErr(err)
	}
	return nil
}

func (r *MongoSessions) DeleteAllForUser(ctx context.Context, userID string) (int64, error) {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.sessions.delete_all_for_user")
	defer sp.Finish()

	res, err := r.coll().DeleteMany(ctx, bson.M{"user_id": userID})
	if err != nil {
		sp.SetTag("error", err)
		return 0, storeErr(err)
	}
	return res.DeletedCount, nil
}

func (r *MongoSessions) DeleteFamily(ctx context.Context, family string) (int64, error) {
	res, err := r.coll().DeleteMany(ctx, bson.M{"family": family})
	if err != nil {
		return 0, storeErr(err)
	}
	return res.DeletedCount, nil
}

func (r *MongoSessions) ListActiveForUser(ctx context.Context, userID string, page, limit int) ([]*domain.Session, int64, error) {
	now := time.Now().UTC()
	filter := bson.M{"user_id": userID, "expires_at": alive(now)}

	total, err := r.coll().CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, storeErr(err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetSkip(int64((page - 1) * limit)).
		SetLimit(int64(limit))
	cur, err := r.coll().Find(ctx, filter, opts)
	if err != nil {
		return nil, 0, storeErr(err)
	}
	defer cur.Close(ctx)

	var out []*domain.Session
	for cur.Next(ctx) {
		var s domain.Session
		if err := cur.Decode(&s); err != nil {
			return nil, 0, storeErr(err)
		}
		out = append(out, &s)
	}
	if err := cur.Err(); err != nil {
		return nil, 0, storeErr(err)
	}
	return out, total, nil
}
