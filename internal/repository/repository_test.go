package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saas-starter/auth-service/internal/apperr"
	"github.com/saas-starter/auth-service/internal/domain"
)

func newMock(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewDatabase(db), mock
}

func tokenRows(tokens ...domain.Token) *sqlmock.Rows {
	rows := sqlmock.NewRows([]string{"id", "type", "token", "user_id", "expires_at", "created_at", "updated_at"})
	for _, tk := range tokens {
		rows.AddRow(tk.ID, tk.Type, tk.Token, tk.UserID, tk.ExpiresAt, tk.CreatedAt, tk.UpdatedAt)
	}
	return rows
}

func TestFind_ScopeIsAlwaysApplied(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, type, token, user_id, expires_at, created_at, updated_at FROM tokens WHERE user_id = $1 AND type = $2",
	)).
		WithArgs("u1", domain.TokenTypeEmailConfirmation).
		WillReturnRows(tokenRows())

	_, err := db.Tokens.ForUser("u1").Find(context.Background(), ByType(domain.TokenTypeEmailConfirmation))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFind_ScopePrecedesCallerDisjunction(t *testing.T) {
	db, mock := newMock(t)

	// An OR tree is parenthesized as a unit, so it cannot widen the result
	// set past the fixed scope.
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, type, token, user_id, expires_at, created_at, updated_at FROM tokens WHERE user_id = $1 AND (type = $2 OR type = $3)",
	)).
		WithArgs("u1", domain.TokenTypeChangeEmail, domain.TokenTypeEmailConfirmation).
		WillReturnRows(tokenRows())

	_, err := db.Tokens.ForUser("u1").Find(context.Background(), FindOptions{
		Where: Or(
			Eq(TokenFields.Type, domain.TokenTypeChangeEmail),
			Eq(TokenFields.Type, domain.TokenTypeEmailConfirmation),
		),
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFind_EmptyScopeAndWhere(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, email, confirmed_at, created_at, updated_at FROM users",
	)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "confirmed_at", "created_at", "updated_at"}))

	users, err := db.Users.Find(context.Background(), FindOptions{})
	require.NoError(t, err)
	assert.Empty(t, users)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindFirst_AppendsLimit(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT id, email, confirmed_at, created_at, updated_at FROM users WHERE email = $1 LIMIT $2",
	)).
		WithArgs("a@b.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "confirmed_at", "created_at", "updated_at"}).
			AddRow("u1", "a@b.com", nil, now, now))

	user, err := db.Users.FindFirst(context.Background(), ByEmail("a@b.com"))
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)
	assert.Nil(t, user.ConfirmedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindFirst_NoMatchReturnsNil(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery("SELECT .* FROM users").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "confirmed_at", "created_at", "updated_at"}))

	user, err := db.Users.FindFirst(context.Background(), ByEmail("ghost@b.com"))
	require.NoError(t, err)
	assert.Nil(t, user)
}

func TestFindFirstOrThrow_NoMatchIsNotFound(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery("SELECT .* FROM tokens").
		WillReturnRows(tokenRows())

	_, err := db.Tokens.FindFirstOrThrow(context.Background(), FindOptions{
		Where: Eq(TokenFields.Token, "gone"),
	})

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "token-not-found", appErr.Code)
	assert.Equal(t, 404, appErr.StatusCode)
}

func TestCreate_ScopeOverridesCallerValue(t *testing.T) {
	db, mock := newMock(t)
	now := time.Now()
	expiresAt := now.Add(time.Hour)

	// The insert carries its own user_id, but the scoped repository's value
	// must win.
	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO sessions (id, session, expires_at, user_id) VALUES ($1, $2, $3, $4) RETURNING id, session, user_id, expires_at, created_at, updated_at",
	)).
		WithArgs(sqlmock.AnyArg(), "tok", expiresAt, "owner").
		WillReturnRows(sqlmock.NewRows([]string{"id", "session", "user_id", "expires_at", "created_at", "updated_at"}).
			AddRow("s1", "tok", "owner", expiresAt, now, now))

	session, err := db.Sessions.ForUser("owner").CreateFirst(context.Background(), domain.SessionInsert{
		Session:   "tok",
		ExpiresAt: expiresAt,
		UserID:    "intruder",
	})
	require.NoError(t, err)
	assert.Equal(t, "owner", session.UserID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_EmptyInputIsNoOp(t *testing.T) {
	db, mock := newMock(t)

	recs, err := db.Users.Create(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, recs)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_UniqueViolationMapsToErrDuplicate(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505"})

	_, err := db.Users.CreateFirst(context.Background(), domain.UserInsert{Email: "a@b.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestUpdate_BumpsUpdatedAt(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE passwords SET password = $1, updated_at = now() WHERE user_id = $2",
	)).
		WithArgs("hash", "u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := db.Passwords.ForUser("u1").Update(context.Background(),
		[]Assign{Set(PasswordFields.Password, "hash")}, FindOptions{})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRemove_ScopedDelete(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"DELETE FROM tokens WHERE user_id = $1 AND type = $2",
	)).
		WithArgs("u1", domain.TokenTypeRequestPasswordReset).
		WillReturnResult(sqlmock.NewResult(0, 2))

	err := db.Tokens.ForUser("u1").Remove(context.Background(), ByType(domain.TokenTypeRequestPasswordReset))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_UpdatesByPrimaryKeyUnderScope(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE passwords SET password = $1, updated_at = now() WHERE user_id = $2 AND id = $3",
	)).
		WithArgs("newhash", "u1", "p1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := Save(context.Background(), db.Passwords.ForUser("u1").Repo, domain.Password{
		ID:       "p1",
		Password: "newhash",
		UserID:   "u1",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSave_ZeroRowsIsNotFound(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectExec("UPDATE users SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := Save(context.Background(), db.Users.Repo, domain.User{ID: "gone", Email: "a@b.com"})

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "user-not-found", appErr.Code)
}

func TestRemoveByID_OutOfScopeRowIsNotFound(t *testing.T) {
	db, mock := newMock(t)

	// The row exists but belongs to another user; the scoped delete touches
	// nothing.
	mock.ExpectExec(regexp.QuoteMeta(
		"DELETE FROM sessions WHERE user_id = $1 AND id = $2",
	)).
		WithArgs("u1", "s-other").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := Remove(context.Background(), db.Sessions.ForUser("u1").Repo, "s-other")

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "session-not-found", appErr.Code)
}

func TestCount(t *testing.T) {
	db, mock := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM sessions WHERE user_id = $1",
	)).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := db.Sessions.ForUser("u1").Count(context.Background(), FindOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestTranslateError_PassesThroughOtherErrors(t *testing.T) {
	plain := errors.New("connection reset")
	assert.Equal(t, plain, translateError(plain))

	otherPq := translateError(&pq.Error{Code: "23503"})
	assert.NotErrorIs(t, otherPq, ErrDuplicate)
}
