package repository

import (
	"github.com/saas-starter/auth-service/internal/domain"
)

// SessionFields are the typed column descriptors of the sessions table.
var SessionFields = struct {
	ID        Field
	Session   Field
	UserID    Field
	ExpiresAt Field
	CreatedAt Field
	UpdatedAt Field
}{
	ID:        Field{"id"},
	Session:   Field{"session"},
	UserID:    Field{"user_id"},
	ExpiresAt: Field{"expires_at"},
	CreatedAt: Field{"created_at"},
	UpdatedAt: Field{"updated_at"},
}

var sessionTable = table[domain.Session, domain.SessionInsert]{
	name:    "sessions",
	kind:    "session",
	columns: []string{"id", "session", "user_id", "expires_at", "created_at", "updated_at"},
	scan: func(s RowScanner) (domain.Session, error) {
		var sess domain.Session
		err := s.Scan(&sess.ID, &sess.Session, &sess.UserID, &sess.ExpiresAt, &sess.CreatedAt, &sess.UpdatedAt)
		return sess, err
	},
	insert: func(in domain.SessionInsert) ([]string, []any) {
		return []string{"session", "expires_at", "user_id"}, []any{in.Session, in.ExpiresAt, in.UserID}
	},
	update: func(s domain.Session) ([]string, []any) {
		return []string{"expires_at"}, []any{s.ExpiresAt}
	},
	id: func(s domain.Session) string { return s.ID },
}

// SessionRepository is the typed view over the sessions table.
type SessionRepository struct {
	*Repo[domain.Session, domain.SessionInsert]
}

// NewSessionRepository creates an unscoped session repository.
func NewSessionRepository(q Querier) *SessionRepository {
	return &SessionRepository{Repo: newRepo(q, sessionTable)}
}

// ForUser returns a copy scoped to the given owner. The scope is fixed at
// construction and ANDed into every subsequent operation.
func (r *SessionRepository) ForUser(userID string) *SessionRepository {
	return &SessionRepository{Repo: r.scoped(scopePred{column: "user_id", value: userID})}
}
