package repo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/adilzhan/auth-core/internal/domain"
)

type Store struct {
	Client *mongo.Client
	DB     *mongo.Database
}

func NewStore(ctx context.Context, uri, dbname string) (*Store, error) {
	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	return &Store{Client: cli, DB: cli.Database(dbname)}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Client.Ping(ctx, nil)
}

func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}

// EnsureIndexes creates the uniqueness and TTL indexes the data model relies
// on: unique user email, unique (provider, provider_account_id) and
// (user_id, provider) links, and expired session reclamation. Logical expiry
// is still enforced on read.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.DB.Collection("users").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return err
	}

	accounts := s.DB.Collection("oauth_accounts")
	for _, keys := range []bson.D{
		{{Key: "provider", Value: 1}, {Key: "provider_account_id", Value: 1}},
		{{Key: "user_id", Value: 1}, {Key: "provider", Value: 1}},
	} {
		if _, err := accounts.Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys:    keys,
			Options: options.Index().SetUnique(true),
		}); err != nil {
			return err
		}
	}

	sessions := s.DB.Collection("sessions")
	if _, err := sessions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	}); err != nil {
		return err
	}
	for _, keys := range []bson.D{
		{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		{{Key: "family", Value: 1}},
	} {
		if _, err := sessions.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: keys}); err != nil {
			return err
		}
	}
	return nil
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}
