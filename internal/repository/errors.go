package repository

import (
	"errors"

	"github.com/lib/pq"
)

// ErrDuplicate is returned when an insert or update violates a unique
// constraint. The service layer maps it to the business-level conflict
// error; this is the loser's path in the concurrent sign-up race, where the
// database uniqueness constraint on email is the final arbiter.
var ErrDuplicate = errors.New("unique constraint violation")

const pqUniqueViolation = "23505"

// translateError maps driver-level constraint violations onto sentinels.
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return errors.Join(err, ErrDuplicate)
	}
	return err
}
