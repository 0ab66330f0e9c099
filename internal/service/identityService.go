package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"ticket-office/internal/auth"
	"ticket-office/internal/auth/oauth"
	repository "ticket-office/internal/database/postgres"
	"ticket-office/internal/entity"
)

// identityResolver resolves credentials from any of the supported access
// methods into a user id and role. External identities unseen before get a
// placeholder account created for them on first resolution.
type identityResolver struct {
	users     repository.UserRepository
	tokens    *auth.TokenCodec
	providers map[string]oauth.Provider
}

func NewIdentityResolver(users repository.UserRepository, tokens *auth.TokenCodec, providers map[string]oauth.Provider) IdentityResolver {
	return &identityResolver{users: users, tokens: tokens, providers: providers}
}

func (r *identityResolver) Resolve(ctx context.Context, creds entity.Credentials) (entity.Identity, error) {
	switch creds.Method {
	case entity.AuthMethodEmail:
		return r.resolveToken(ctx, creds.Token)
	case entity.AuthMethodGoogle, entity.AuthMethodGithub:
		return r.resolveExternal(ctx, creds)
	default:
		return entity.Identity{}, entity.ErrInvalidToken
	}
}

func (r *identityResolver) resolveToken(ctx context.Context, token string) (entity.Identity, error) {
	userID, err := r.tokens.Parse(token)
	if err != nil {
		return entity.Identity{}, err
	}

	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		return entity.Identity{}, entity.ErrInvalidToken
	}

	return entity.Identity{UserID: user.ID, Role: user.RoleOrEmpty()}, nil
}

func (r *identityResolver) resolveExternal(ctx context.Context, creds entity.Credentials) (entity.Identity, error) {
	provider, ok := r.providers[creds.Method]
	if !ok {
		return entity.Identity{}, entity.ErrInvalidToken
	}

	accountID, err := provider.TokenToAccountID(ctx, creds.Token)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"provider": creds.Method,
			"error":    err,
		}).Warn("external token validation failed")
		return entity.Identity{}, entity.ErrInvalidToken
	}

	externalID := creds.Method + ":" + accountID
	user, err := r.users.GetOrCreateByExternalID(ctx, externalID)
	if err != nil {
		return entity.Identity{}, err
	}

	return entity.Identity{UserID: user.ID, Role: user.RoleOrEmpty()}, nil
}
