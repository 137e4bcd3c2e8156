package repo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"gopkg.in/DataDog/dd-trace-go.v1/ddtrace/tracer"

	"github.com/adilzhan/auth-core/internal/domain"
)

// MongoOAuthAccounts implements auth.OAuthAccountStore. The unique compound
// indexes on (provider, provider_account_id) and (user_id, provider) are the
// invariant keepers: a link is globally unique and a user holds at most one
// per provider.
type MongoOAuthAccounts struct{ store *Store }

func NewMongoOAuthAccounts(s *Store) *MongoOAuthAccounts { return &MongoOAuthAccounts{store: s} }

func (r *MongoOAuthAccounts) coll() *mongo.Collection {
	return r.store.DB.Collection("oauth_accounts")
}

func (r *MongoOAuthAccounts) Create(ctx context.Context, a *domain.OAuthAccount) error {
	sp, ctx := tracer.StartSpanFromContext(ctx, "mongo.oauth_accounts.insert",
		tracer.Tag("provider", string(a.Provider)),
	)
	defer sp.Finish()

	if _, err := r.coll().InsertOne(ctx, a); err != nil {
		sp.SetTag("error", err)
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrProviderLinked
		}
		return storeErr(err)
	}
	return nil
}

func (r *MongoOAuthAccounts) Find(ctx context.Context, provider domain.OAuthProvider, providerAccountID string) (*domain.OAuthAccount, error) {
	var a domain.OAuthAccount
	err := r.coll().FindOne(ctx, bson.M{
		"provider":            provider,
		"provider_account_id": providerAccountID,
	}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return &a, nil
}

func (r *MongoOAuthAccounts) FindByUserAndProvider(ctx context.Context, userID string, provider domain.OAuthProvider) (*domain.OAuthAccount, error) {
	var a domain.OAuthAccount
	err := r.coll().FindOne(ctx, bson.M{
		"user_id":  userID,
		"provider": provider,
	}).Decode(&a)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, storeErr(err)
	}
	return &a, nil
}
