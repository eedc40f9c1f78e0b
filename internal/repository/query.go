package repository

import (
	"strconv"
	"strings"
)

// Field identifies a column of an entity table. Fields are declared as
// compile-time descriptors per entity (see the *Fields variables), so there
// is no dynamic string-keyed column access.
type Field struct {
	column string
}

// Column returns the underlying column name.
func (f Field) Column() string {
	return f.column
}

// Op is a per-field comparison operator.
type Op int

const (
	OpEq Op = iota
	OpNe
	OpGt
	OpGte
	OpLt
	OpLte
	OpLike
	OpILike
	OpIn
	OpNotIn
	OpIsNull
	OpIsNotNull
)

type condKind int

const (
	condEmpty condKind = iota
	condAnd
	condOr
	condIDs
	condPred
)

// Cond is a node in a where-expression tree. The zero value matches
// everything. Conds are interpreted by a single SQL-building visitor; scope
// predicates are ANDed in separately and cannot be expressed away by any
// Cond a caller constructs.
type Cond struct {
	kind   condKind
	conds  []Cond
	ids    []string
	field  Field
	op     Op
	value  any
	values []any
}

// And combines conditions conjunctively.
func And(conds ...Cond) Cond {
	return Cond{kind: condAnd, conds: conds}
}

// Or combines conditions disjunctively.
func Or(conds ...Cond) Cond {
	return Cond{kind: condOr, conds: conds}
}

// IDIn matches rows whose primary key is in the given set.
func IDIn(ids ...string) Cond {
	return Cond{kind: condIDs, ids: ids}
}

func pred(f Field, op Op, v any) Cond {
	return Cond{kind: condPred, field: f, op: op, value: v}
}

// Eq matches field = value.
func Eq(f Field, v any) Cond { return pred(f, OpEq, v) }

// Ne matches field <> value.
func Ne(f Field, v any) Cond { return pred(f, OpNe, v) }

// Gt matches field > value.
func Gt(f Field, v any) Cond { return pred(f, OpGt, v) }

// Gte matches field >= value.
func Gte(f Field, v any) Cond { return pred(f, OpGte, v) }

// Lt matches field < value.
func Lt(f Field, v any) Cond { return pred(f, OpLt, v) }

// Lte matches field <= value.
func Lte(f Field, v any) Cond { return pred(f, OpLte, v) }

// Like matches field LIKE pattern.
func Like(f Field, pattern string) Cond { return pred(f, OpLike, pattern) }

// ILike matches field ILIKE pattern.
func ILike(f Field, pattern string) Cond { return pred(f, OpILike, pattern) }

// In matches field IN (values...). An empty value set matches nothing.
func In(f Field, values ...any) Cond {
	return Cond{kind: condPred, field: f, op: OpIn, values: values}
}

// NotIn matches field NOT IN (values...). An empty value set matches everything.
func NotIn(f Field, values ...any) Cond {
	return Cond{kind: condPred, field: f, op: OpNotIn, values: values}
}

// IsNull matches field IS NULL.
func IsNull(f Field) Cond { return pred(f, OpIsNull, nil) }

// IsNotNull matches field IS NOT NULL.
func IsNotNull(f Field) Cond { return pred(f, OpIsNotNull, nil) }

// Direction orders a find result by a field.
type Direction string

const (
	DirectionAsc  Direction = "ASC"
	DirectionDesc Direction = "DESC"
)

// Order is a single orderBy entry.
type Order struct {
	Field Field
	Dir   Direction
}

// Asc orders ascending by the field.
func Asc(f Field) Order { return Order{Field: f, Dir: DirectionAsc} }

// Desc orders descending by the field.
func Desc(f Field) Order { return Order{Field: f, Dir: DirectionDesc} }

// FindOptions parameterizes Find, FindFirst, Count, Update and Remove. The
// repository's fixed scope is always ANDed with Where.
type FindOptions struct {
	Where   Cond
	Limit   int
	Offset  int
	OrderBy []Order
}

// sqlBuilder accumulates positional arguments while rendering a query.
type sqlBuilder struct {
	args []any
}

func (b *sqlBuilder) placeholder(v any) string {
	b.args = append(b.args, v)
	return "$" + strconv.Itoa(len(b.args))
}

// buildCond renders a Cond into a SQL fragment. An empty tree renders to "".
func (b *sqlBuilder) buildCond(c Cond) string {
	switch c.kind {
	case condEmpty:
		return ""
	case condAnd, condOr:
		parts := make([]string, 0, len(c.conds))
		for _, child := range c.conds {
			if part := b.buildCond(child); part != "" {
				parts = append(parts, part)
			}
		}
		if len(parts) == 0 {
			return ""
		}
		if len(parts) == 1 {
			return parts[0]
		}
		sep := " AND "
		if c.kind == condOr {
			sep = " OR "
		}
		return "(" + strings.Join(parts, sep) + ")"
	case condIDs:
		return b.buildIn("id", c.ids)
	case condPred:
		return b.buildPred(c)
	}
	return ""
}

func (b *sqlBuilder) buildPred(c Cond) string {
	col := c.field.column

	switch c.op {
	case OpEq:
		return col + " = " + b.placeholder(c.value)
	case OpNe:
		return col + " <> " + b.placeholder(c.value)
	case OpGt:
		return col + " > " + b.placeholder(c.value)
	case OpGte:
		return col + " >= " + b.placeholder(c.value)
	case OpLt:
		return col + " < " + b.placeholder(c.value)
	case OpLte:
		return col + " <= " + b.placeholder(c.value)
	case OpLike:
		return col + " LIKE " + b.placeholder(c.value)
	case OpILike:
		return col + " ILIKE " + b.placeholder(c.value)
	case OpIn:
		return b.buildInAny(col, c.values)
	case OpNotIn:
		if len(c.values) == 0 {
			return ""
		}
		return "NOT " + b.buildInAny(col, c.values)
	case OpIsNull:
		return col + " IS NULL"
	case OpIsNotNull:
		return col + " IS NOT NULL"
	}
	return ""
}

func (b *sqlBuilder) buildIn(col string, values []string) string {
	anys := make([]any, len(values))
	for i, v := range values {
		anys[i] = v
	}
	return b.buildInAny(col, anys)
}

func (b *sqlBuilder) buildInAny(col string, values []any) string {
	if len(values) == 0 {
		// IN over an empty set matches nothing.
		return "FALSE"
	}
	placeholders := make([]string, len(values))
	for i, v := range values {
		placeholders[i] = b.placeholder(v)
	}
	return col + " IN (" + strings.Join(placeholders, ", ") + ")"
}
