package repository

import (
    "fmt"
    "reflect"
    "sort"
    "strings"
)

// Op enumerates the comparison operators accepted in a filter domain.
// The set is closed: ParseOp rejects anything that is not listed here,
// so an operator can never reach SQL assembly unvalidated.
type Op string

const (
    OpIs       Op = "is"
    OpIsNot    Op = "is not"
    OpEq       Op = "="
    OpNe       Op = "!="
    OpGt       Op = ">"
    OpGe       Op = ">="
    OpLt       Op = "<"
    OpLe       Op = "<="
    OpIn       Op = "in"
    OpNotIn    Op = "not in"
    OpLike     Op = "like"
    OpNotLike  Op = "not like"
    OpILike    Op = "ilike"
    OpNotILike Op = "not ilike"
)

// predicateBuilder renders one condition against a quoted column and
// returns the SQL fragment plus its bound arguments.
type predicateBuilder func(col string, value interface{}) (string, []interface{})

// predicates maps every known operator to its builder.  Membership in
// this map is what ParseOp validates against.
var predicates = map[Op]predicateBuilder{
    OpIs:       func(col string, v interface{}) (string, []interface{}) { return nullPredicate(col, v, false) },
    OpIsNot:    func(col string, v interface{}) (string, []interface{}) { return nullPredicate(col, v, true) },
    OpEq:       comparison("="),
    OpNe:       comparison("<>"),
    OpGt:       comparison(">"),
    OpGe:       comparison(">="),
    OpLt:       comparison("<"),
    OpLe:       comparison("<="),
    OpIn:       func(col string, v interface{}) (string, []interface{}) { return inPredicate(col, v, false) },
    OpNotIn:    func(col string, v interface{}) (string, []interface{}) { return inPredicate(col, v, true) },
    OpLike:     comparison("LIKE"),
    OpNotLike:  comparison("NOT LIKE"),
    OpILike: func(col string, v interface{}) (string, []interface{}) {
        return fmt.Sprintf("LOWER(%s) LIKE LOWER(?)", col), []interface{}{v}
    },
    OpNotILike: func(col string, v interface{}) (string, []interface{}) {
        return fmt.Sprintf("LOWER(%s) NOT LIKE LOWER(?)", col), []interface{}{v}
    },
}

func comparison(sqlOp string) predicateBuilder {
    return func(col string, v interface{}) (string, []interface{}) {
        return fmt.Sprintf("%s %s ?", col, sqlOp), []interface{}{v}
    }
}

// nullPredicate implements "is" / "is not".  A nil value renders the SQL
// NULL test; any other value falls back to (in)equality, mirroring how
// identity comparisons behave in the filter payloads we accept.
func nullPredicate(col string, v interface{}, negate bool) (string, []interface{}) {
    if v == nil {
        if negate {
            return col + " IS NOT NULL", nil
        }
        return col + " IS NULL", nil
    }
    if negate {
        return col + " <> ?", []interface{}{v}
    }
    return col + " = ?", []interface{}{v}
}

// inPredicate implements "in" / "not in".  An empty list renders a
// constant predicate: IN () would be invalid SQL, and an empty IN is by
// definition never satisfied.
func inPredicate(col string, v interface{}, negate bool) (string, []interface{}) {
    items := toSlice(v)
    if len(items) == 0 {
        if negate {
            return "1 = 1", nil
        }
        return "1 = 0", nil
    }
    marks := strings.TrimSuffix(strings.Repeat("?,", len(items)), ",")
    if negate {
        return fmt.Sprintf("%s NOT IN (%s)", col, marks), items
    }
    return fmt.Sprintf("%s IN (%s)", col, marks), items
}

// toSlice normalizes any slice value into []interface{}.  Non-slice
// values are wrapped into a single-element list so that a scalar passed
// to "in" still behaves sensibly.
func toSlice(v interface{}) []interface{} {
    if v == nil {
        return nil
    }
    if items, ok := v.([]interface{}); ok {
        return items
    }
    rv := reflect.ValueOf(v)
    if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
        return []interface{}{v}
    }
    out := make([]interface{}, rv.Len())
    for i := 0; i < rv.Len(); i++ {
        out[i] = rv.Index(i).Interface()
    }
    return out
}

// ParseOp validates a raw operator string (case-insensitive) against the
// closed operator set and returns the canonical Op.
func ParseOp(raw string) (Op, error) {
    op := Op(strings.ToLower(strings.TrimSpace(raw)))
    if _, ok := predicates[op]; !ok {
        return "", fmt.Errorf("unknown filter operator %q", raw)
    }
    return op, nil
}

// Cond is a single (field, operator, value) condition of a filter
// domain.  Conditions referencing unknown fields are skipped rather
// than rejected so that forward-compatible payloads keep working.
type Cond struct {
    Field string
    Op    Op
    Value interface{}
}

// Filter is a generic query descriptor: a conjunction of conditions, an
// order-by map (field -> "asc"/"desc"), and limit/offset pagination.
// A zero Limit means unbounded.
type Filter struct {
    Domain []Cond
    Order  map[string]string
    Limit  int64
    Offset int64
}

// BuildSelect translates the filter into a full SELECT statement against
// the given table.  columns whitelists the fields that may appear in
// conditions and order clauses; anything else is silently skipped.
// selectList is the projection, typically a fixed column list.
func BuildSelect(selectList, table string, columns map[string]bool, f *Filter) (string, []interface{}) {
    var sb strings.Builder
    sb.WriteString("SELECT ")
    sb.WriteString(selectList)
    sb.WriteString(" FROM ")
    sb.WriteString(table)

    var args []interface{}
    if f != nil {
        var where []string
        for _, c := range f.Domain {
            if !columns[c.Field] {
                continue
            }
            build, ok := predicates[c.Op]
            if !ok {
                continue
            }
            frag, vs := build(c.Field, c.Value)
            where = append(where, frag)
            args = append(args, vs...)
        }
        if len(where) > 0 {
            sb.WriteString(" WHERE ")
            sb.WriteString(strings.Join(where, " AND "))
        }
        if clause := orderClause(columns, f.Order); clause != "" {
            sb.WriteString(" ORDER BY ")
            sb.WriteString(clause)
        }
        if f.Limit > 0 {
            sb.WriteString(" LIMIT ?")
            args = append(args, f.Limit)
            if f.Offset > 0 {
                sb.WriteString(" OFFSET ?")
                args = append(args, f.Offset)
            }
        }
    }
    return sb.String(), args
}

// orderClause renders the order-by map.  Unknown fields and directions
// other than asc/desc are skipped.  Fields are emitted in sorted order
// so the generated SQL is deterministic.
func orderClause(columns map[string]bool, order map[string]string) string {
    if len(order) == 0 {
        return ""
    }
    fields := make([]string, 0, len(order))
    for k := range order {
        fields = append(fields, k)
    }
    sort.Strings(fields)
    var parts []string
    for _, k := range fields {
        if !columns[k] {
            continue
        }
        switch strings.ToLower(order[k]) {
        case "asc":
            parts = append(parts, k+" ASC")
        case "desc":
            parts = append(parts, k+" DESC")
        }
    }
    return strings.Join(parts, ", ")
}
