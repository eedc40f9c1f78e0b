package repository

import (
	"github.com/saas-starter/auth-service/internal/domain"
)

// PasswordFields are the typed column descriptors of the passwords table.
var PasswordFields = struct {
	ID        Field
	Password  Field
	UserID    Field
	CreatedAt Field
	UpdatedAt Field
}{
	ID:        Field{"id"},
	Password:  Field{"password"},
	UserID:    Field{"user_id"},
	CreatedAt: Field{"created_at"},
	UpdatedAt: Field{"updated_at"},
}

var passwordTable = table[domain.Password, domain.PasswordInsert]{
	name:    "passwords",
	kind:    "password",
	columns: []string{"id", "password", "user_id", "created_at", "updated_at"},
	scan: func(s RowScanner) (domain.Password, error) {
		var p domain.Password
		err := s.Scan(&p.ID, &p.Password, &p.UserID, &p.CreatedAt, &p.UpdatedAt)
		return p, err
	},
	insert: func(in domain.PasswordInsert) ([]string, []any) {
		return []string{"password", "user_id"}, []any{in.Password, in.UserID}
	},
	update: func(p domain.Password) ([]string, []any) {
		return []string{"password"}, []any{p.Password}
	},
	id: func(p domain.Password) string { return p.ID },
}

// PasswordRepository is the typed view over the passwords table.
type PasswordRepository struct {
	*Repo[domain.Password, domain.PasswordInsert]
}

// NewPasswordRepository creates an unscoped password repository.
func NewPasswordRepository(q Querier) *PasswordRepository {
	return &PasswordRepository{Repo: newRepo(q, passwordTable)}
}

// ForUser returns a copy scoped to the given owner. The scope is fixed at
// construction and ANDed into every subsequent operation.
func (r *PasswordRepository) ForUser(userID string) *PasswordRepository {
	return &PasswordRepository{Repo: r.scoped(scopePred{column: "user_id", value: userID})}
}
