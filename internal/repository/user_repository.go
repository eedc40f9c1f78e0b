package repository

import (
	"database/sql"
	"time"

	"github.com/saas-starter/auth-service/internal/domain"
)

// UserFields are the typed column descriptors of the users table.
var UserFields = struct {
	ID          Field
	Email       Field
	ConfirmedAt Field
	CreatedAt   Field
	UpdatedAt   Field
}{
	ID:          Field{"id"},
	Email:       Field{"email"},
	ConfirmedAt: Field{"confirmed_at"},
	CreatedAt:   Field{"created_at"},
	UpdatedAt:   Field{"updated_at"},
}

var userTable = table[domain.User, domain.UserInsert]{
	name:    "users",
	kind:    "user",
	columns: []string{"id", "email", "confirmed_at", "created_at", "updated_at"},
	scan: func(s RowScanner) (domain.User, error) {
		var u domain.User
		var confirmedAt sql.NullTime
		err := s.Scan(&u.ID, &u.Email, &confirmedAt, &u.CreatedAt, &u.UpdatedAt)
		if confirmedAt.Valid {
			t := confirmedAt.Time
			u.ConfirmedAt = &t
		}
		return u, err
	},
	insert: func(in domain.UserInsert) ([]string, []any) {
		return []string{"email"}, []any{in.Email}
	},
	update: func(u domain.User) ([]string, []any) {
		var confirmedAt any
		if u.ConfirmedAt != nil {
			confirmedAt = *u.ConfirmedAt
		}
		return []string{"email", "confirmed_at"}, []any{u.Email, confirmedAt}
	},
	id: func(u domain.User) string { return u.ID },
}

// UserRepository is the typed view over the users table.
type UserRepository struct {
	*Repo[domain.User, domain.UserInsert]
}

// NewUserRepository creates an unscoped user repository.
func NewUserRepository(q Querier) *UserRepository {
	return &UserRepository{Repo: newRepo(q, userTable)}
}

// ByEmail is shorthand for the case-sensitive exact email lookup used by
// every credential flow.
func ByEmail(email string) FindOptions {
	return FindOptions{Where: Eq(UserFields.Email, email)}
}

// MarkConfirmed sets the user's confirmation timestamp.
func MarkConfirmed(u *domain.User, at time.Time) {
	u.ConfirmedAt = &at
}
