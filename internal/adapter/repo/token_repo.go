package repo

import (
	"context"

	"repost/internal/domain"
	"repost/internal/infra"
	"repost/internal/sqlinline"
)

// TokenRepositoryPG implements domain.TokenRepository.
type TokenRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewTokenRepository creates a new TikTok token repository backed by PostgreSQL.
func NewTokenRepository(sql infra.SQLExecutor) *TokenRepositoryPG {
	return &TokenRepositoryPG{sql: sql}
}

// Latest returns the most recently updated token record.
func (r *TokenRepositoryPG) Latest(ctx context.Context) (*domain.TikTokToken, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectLatestToken)
	var token domain.TikTokToken
	if err := row.Scan(
		&token.ID,
		&token.OpenID,
		&token.AccessToken,
		&token.RefreshToken,
		&token.Scope,
		&token.ExpiresAt,
		&token.CreatedAt,
		&token.UpdatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNoToken
		}
		return nil, err
	}
	return &token, nil
}

// Save inserts a fresh token record.
func (r *TokenRepositoryPG) Save(ctx context.Context, token *domain.TikTokToken) (*domain.TikTokToken, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QInsertToken,
		token.OpenID,
		token.AccessToken,
		token.RefreshToken,
		token.Scope,
		token.ExpiresAt,
	)
	if err := row.Scan(&token.ID, &token.CreatedAt, &token.UpdatedAt); err != nil {
		return nil, err
	}
	return token, nil
}

// Update rewrites an existing token record after a refresh.
func (r *TokenRepositoryPG) Update(ctx context.Context, token *domain.TikTokToken) error {
	_, err := r.sql.Exec(ctx, sqlinline.QUpdateToken,
		token.ID,
		token.OpenID,
		token.AccessToken,
		token.RefreshToken,
		token.Scope,
		token.ExpiresAt,
	)
	return err
}

var _ domain.TokenRepository = (*TokenRepositoryPG)(nil)
