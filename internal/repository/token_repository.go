package repository

import (
	"github.com/saas-starter/auth-service/internal/domain"
)

// TokenFields are the typed column descriptors of the tokens table.
var TokenFields = struct {
	ID        Field
	Type      Field
	Token     Field
	UserID    Field
	ExpiresAt Field
	CreatedAt Field
	UpdatedAt Field
}{
	ID:        Field{"id"},
	Type:      Field{"type"},
	Token:     Field{"token"},
	UserID:    Field{"user_id"},
	ExpiresAt: Field{"expires_at"},
	CreatedAt: Field{"created_at"},
	UpdatedAt: Field{"updated_at"},
}

var tokenTable = table[domain.Token, domain.TokenInsert]{
	name:    "tokens",
	kind:    "token",
	columns: []string{"id", "type", "token", "user_id", "expires_at", "created_at", "updated_at"},
	scan: func(s RowScanner) (domain.Token, error) {
		var t domain.Token
		err := s.Scan(&t.ID, &t.Type, &t.Token, &t.UserID, &t.ExpiresAt, &t.CreatedAt, &t.UpdatedAt)
		return t, err
	},
	insert: func(in domain.TokenInsert) ([]string, []any) {
		return []string{"type", "token", "expires_at", "user_id"},
			[]any{in.Type, in.Token, in.ExpiresAt, in.UserID}
	},
	update: func(t domain.Token) ([]string, []any) {
		return []string{"expires_at"}, []any{t.ExpiresAt}
	},
	id: func(t domain.Token) string { return t.ID },
}

// TokenRepository is the typed view over the tokens table.
type TokenRepository struct {
	*Repo[domain.Token, domain.TokenInsert]
}

// NewTokenRepository creates an unscoped token repository.
func NewTokenRepository(q Querier) *TokenRepository {
	return &TokenRepository{Repo: newRepo(q, tokenTable)}
}

// ForUser returns a copy scoped to the given owner. The scope is fixed at
// construction and ANDed into every subsequent operation.
func (r *TokenRepository) ForUser(userID string) *TokenRepository {
	return &TokenRepository{Repo: r.scoped(scopePred{column: "user_id", value: userID})}
}

// ByType matches all tokens of one type; combined with a user scope it
// drives the last-request-wins invalidation before issuing a fresh token.
func ByType(t domain.TokenType) FindOptions {
	return FindOptions{Where: Eq(TokenFields.Type, t)}
}
