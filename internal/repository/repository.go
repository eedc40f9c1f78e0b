package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/saas-starter/auth-service/internal/apperr"
)

// Querier is the subset of database/sql shared by *sql.DB and *sql.Tx.
// Repositories hold an explicit handle instead of rebinding internal state,
// so transaction context is always passed, never ambient.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RowScanner abstracts *sql.Row and *sql.Rows for the per-table scan funcs.
type RowScanner interface {
	Scan(dest ...any) error
}

// table describes how an entity maps to its SQL table: the select column
// list, the row scanner, the insert and update column extractors, and the
// primary key accessor. R is the row type, I the insert type.
type table[R any, I any] struct {
	name    string
	kind    string
	columns []string
	scan    func(s RowScanner) (R, error)
	insert  func(in I) ([]string, []any)
	update  func(r R) ([]string, []any)
	id      func(r R) string
}

// scopePred is a fixed equality predicate injected at construction time.
type scopePred struct {
	column string
	value  any
}

// Repo is the generic typed repository. Every operation implicitly ANDs the
// constructor-supplied scope; no operation parameter can override or remove
// it. A repo scoped to {user_id: A} can therefore never observe or affect
// another user's rows, regardless of caller-supplied conditions.
type Repo[R any, I any] struct {
	q     Querier
	tbl   table[R, I]
	scope []scopePred
}

func newRepo[R any, I any](q Querier, tbl table[R, I]) *Repo[R, I] {
	return &Repo[R, I]{q: q, tbl: tbl}
}

// scoped returns a copy with extra fixed predicates appended. Existing scope
// is never dropped.
func (r *Repo[R, I]) scoped(preds ...scopePred) *Repo[R, I] {
	scope := make([]scopePred, 0, len(r.scope)+len(preds))
	scope = append(scope, r.scope...)
	scope = append(scope, preds...)
	return &Repo[R, I]{q: r.q, tbl: r.tbl, scope: scope}
}

// withQuerier returns a copy bound to another handle, keeping the scope.
func (r *Repo[R, I]) withQuerier(q Querier) *Repo[R, I] {
	return &Repo[R, I]{q: q, tbl: r.tbl, scope: r.scope}
}

func (r *Repo[R, I]) notFound() *apperr.Error {
	return apperr.NotFound(r.tbl.kind)
}

// whereClause renders scope AND the caller's where tree. Scope predicates
// come first so they are present even when the caller's tree is empty.
func (r *Repo[R, I]) whereClause(b *sqlBuilder, where Cond) string {
	parts := make([]string, 0, len(r.scope)+1)
	for _, sp := range r.scope {
		parts = append(parts, sp.column+" = "+b.placeholder(sp.value))
	}
	if cond := b.buildCond(where); cond != "" {
		parts = append(parts, cond)
	}
	return strings.Join(parts, " AND ")
}

// Create bulk-inserts rows, merging the repository scope into every input:
// scope values always win over caller-supplied ones. An empty input list is
// a no-op returning an empty slice.
func (r *Repo[R, I]) Create(ctx context.Context, inputs []I) ([]R, error) {
	if len(inputs) == 0 {
		return []R{}, nil
	}

	insertCols, _ := r.tbl.insert(inputs[0])

	cols := make([]string, 0, len(insertCols)+len(r.scope)+1)
	cols = append(cols, "id")
	cols = append(cols, insertCols...)
	for _, sp := range r.scope {
		if !contains(cols, sp.column) {
			cols = append(cols, sp.column)
		}
	}

	b := &sqlBuilder{}
	rowFragments := make([]string, 0, len(inputs))
	for _, in := range inputs {
		rowCols, rowVals := r.tbl.insert(in)
		byCol := make(map[string]any, len(cols))
		byCol["id"] = uuid.NewString()
		for i, c := range rowCols {
			byCol[c] = rowVals[i]
		}
		for _, sp := range r.scope {
			byCol[sp.column] = sp.value
		}

		placeholders := make([]string, len(cols))
		for i, c := range cols {
			placeholders[i] = b.placeholder(byCol[c])
		}
		rowFragments = append(rowFragments, "("+strings.Join(placeholders, ", ")+")")
	}

	query := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s RETURNING %s",
		r.tbl.name,
		strings.Join(cols, ", "),
		strings.Join(rowFragments, ", "),
		strings.Join(r.tbl.columns, ", "),
	)

	rows, err := r.q.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, translateError(fmt.Errorf("failed to insert into %s: %w", r.tbl.name, err))
	}
	defer rows.Close()

	return r.collect(rows)
}

// CreateFirst inserts a single row and returns it. A zero-row result maps to
// the entity's not-found error; it should not occur on a valid insert.
func (r *Repo[R, I]) CreateFirst(ctx context.Context, input I) (*R, error) {
	recs, err := r.Create(ctx, []I{input})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, r.notFound()
	}
	return &recs[0], nil
}

// Find returns all rows matching the options, always under the fixed scope.
func (r *Repo[R, I]) Find(ctx context.Context, opts FindOptions) ([]R, error) {
	b := &sqlBuilder{}

	query := "SELECT " + strings.Join(r.tbl.columns, ", ") + " FROM " + r.tbl.name
	if where := r.whereClause(b, opts.Where); where != "" {
		query += " WHERE " + where
	}
	if len(opts.OrderBy) > 0 {
		orders := make([]string, len(opts.OrderBy))
		for i, o := range opts.OrderBy {
			orders[i] = o.Field.column + " " + string(o.Dir)
		}
		query += " ORDER BY " + strings.Join(orders, ", ")
	}
	if opts.Limit > 0 {
		query += " LIMIT " + b.placeholder(opts.Limit)
	}
	if opts.Offset > 0 {
		query += " OFFSET " + b.placeholder(opts.Offset)
	}

	rows, err := r.q.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", r.tbl.name, err)
	}
	defer rows.Close()

	return r.collect(rows)
}

// FindFirst returns the first match or nil. Ordering is unspecified unless
// the caller supplies OrderBy.
func (r *Repo[R, I]) FindFirst(ctx context.Context, opts FindOptions) (*R, error) {
	opts.Limit = 1
	recs, err := r.Find(ctx, opts)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return &recs[0], nil
}

// FindFirstOrThrow returns the first match or the entity's not-found error.
func (r *Repo[R, I]) FindFirstOrThrow(ctx context.Context, opts FindOptions) (*R, error) {
	rec, err := r.FindFirst(ctx, opts)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, r.notFound()
	}
	return rec, nil
}

// Count returns the number of rows matching the options under the scope.
func (r *Repo[R, I]) Count(ctx context.Context, opts FindOptions) (int, error) {
	b := &sqlBuilder{}

	query := "SELECT COUNT(*) FROM " + r.tbl.name
	if where := r.whereClause(b, opts.Where); where != "" {
		query += " WHERE " + where
	}

	var count int
	if err := r.q.QueryRowContext(ctx, query, b.args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", r.tbl.name, err)
	}
	return count, nil
}

// Assign is a single column assignment for Update.
type Assign struct {
	field Field
	value any
}

// Set builds an assignment.
func Set(f Field, v any) Assign {
	return Assign{field: f, value: v}
}

// Update applies the assignments to all rows matching the options, always
// under the fixed scope. updated_at is bumped automatically.
func (r *Repo[R, I]) Update(ctx context.Context, assigns []Assign, opts FindOptions) error {
	if len(assigns) == 0 {
		return nil
	}

	b := &sqlBuilder{}
	sets := make([]string, 0, len(assigns)+1)
	for _, a := range assigns {
		sets = append(sets, a.field.column+" = "+b.placeholder(a.value))
	}
	sets = append(sets, "updated_at = now()")

	query := "UPDATE " + r.tbl.name + " SET " + strings.Join(sets, ", ")
	if where := r.whereClause(b, opts.Where); where != "" {
		query += " WHERE " + where
	}

	if _, err := r.q.ExecContext(ctx, query, b.args...); err != nil {
		return translateError(fmt.Errorf("failed to update %s: %w", r.tbl.name, err))
	}
	return nil
}

// Remove deletes all rows matching the options, always under the fixed scope.
func (r *Repo[R, I]) Remove(ctx context.Context, opts FindOptions) error {
	b := &sqlBuilder{}

	query := "DELETE FROM " + r.tbl.name
	if where := r.whereClause(b, opts.Where); where != "" {
		query += " WHERE " + where
	}

	if _, err := r.q.ExecContext(ctx, query, b.args...); err != nil {
		return fmt.Errorf("failed to delete from %s: %w", r.tbl.name, err)
	}
	return nil
}

func (r *Repo[R, I]) collect(rows *sql.Rows) ([]R, error) {
	recs := []R{}
	for rows.Next() {
		rec, err := r.tbl.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", r.tbl.name, err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s rows: %w", r.tbl.name, err)
	}
	return recs, nil
}

// Save persists a row snapshot by primary key. Snapshots are plain data:
// they carry no live repository back-reference and go stale once another
// writer mutates the row (last write wins).
func Save[R any, I any](ctx context.Context, r *Repo[R, I], row R) error {
	cols, vals := r.tbl.update(row)

	b := &sqlBuilder{}
	sets := make([]string, 0, len(cols)+1)
	for i, c := range cols {
		sets = append(sets, c+" = "+b.placeholder(vals[i]))
	}
	sets = append(sets, "updated_at = now()")

	query := "UPDATE " + r.tbl.name + " SET " + strings.Join(sets, ", ") +
		" WHERE " + r.byIDClause(b, r.tbl.id(row))

	res, err := r.q.ExecContext(ctx, query, b.args...)
	if err != nil {
		return translateError(fmt.Errorf("failed to save %s: %w", r.tbl.name, err))
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return r.notFound()
	}
	return nil
}

// Remove deletes a row by primary key, under the repository scope.
func Remove[R any, I any](ctx context.Context, r *Repo[R, I], id string) error {
	b := &sqlBuilder{}
	query := "DELETE FROM " + r.tbl.name + " WHERE " + r.byIDClause(b, id)

	res, err := r.q.ExecContext(ctx, query, b.args...)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", r.tbl.name, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return r.notFound()
	}
	return nil
}

func (r *Repo[R, I]) byIDClause(b *sqlBuilder, id string) string {
	parts := make([]string, 0, len(r.scope)+1)
	for _, sp := range r.scope {
		parts = append(parts, sp.column+" = "+b.placeholder(sp.value))
	}
	parts = append(parts, "id = "+b.placeholder(id))
	return strings.Join(parts, " AND ")
}

func contains(ss []string, s string) bool {
	for _, v := range ss {
		if v == s {
			return true
		}
	}
	return false
}
