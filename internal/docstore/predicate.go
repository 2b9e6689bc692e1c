package docstore

import (
	"strings"
)

// Predicate narrows a Find query. Multiple predicates passed to Find are
// combined with AND.
type Predicate interface {
	clause() (string, []any)
}

type predicateFunc func() (string, []any)

func (f predicateFunc) clause() (string, []any) { return f() }

// jsonPath turns a dotted field name into a SQLite JSON path.
func jsonPath(field string) string {
	return "$." + strings.TrimPrefix(field, "$.")
}

// sqlValue converts Go values into the representation json_extract yields.
func sqlValue(value any) any {
	switch v := value.(type) {
	case bool:
		if v {
			return 1
		}
		return 0
	default:
		return v
	}
}

// Eq matches documents whose field equals value. A nil value matches a
// missing or null field.
func Eq(field string, value any) Predicate {
	return predicateFunc(func() (string, []any) {
		if value == nil {
			return "json_extract(body, ?) IS NULL", []any{jsonPath(field)}
		}
		return "json_extract(body, ?) = ?", []any{jsonPath(field), sqlValue(value)}
	})
}

// Ne matches documents whose field is missing or differs from value.
func Ne(field string, value any) Predicate {
	return predicateFunc(func() (string, []any) {
		if value == nil {
			return "json_extract(body, ?) IS NOT NULL", []any{jsonPath(field)}
		}
		path := jsonPath(field)
		return "(json_extract(body, ?) IS NULL OR json_extract(body, ?) != ?)", []any{path, path, sqlValue(value)}
	})
}

// Contains matches documents whose array field holds value.
func Contains(field string, value any) Predicate {
	return predicateFunc(func() (string, []any) {
		return "EXISTS (SELECT 1 FROM json_each(body, ?) WHERE json_each.value = ?)", []any{jsonPath(field), sqlValue(value)}
	})
}

// Empty matches documents whose field is missing, null, an empty string, an
// empty array or an empty object.
func Empty(field string) Predicate {
	return predicateFunc(func() (string, []any) {
		return "IFNULL(json_extract(body, ?), '') IN ('', '[]', '{}')", []any{jsonPath(field)}
	})
}

// In matches documents whose field equals any of values. An empty value list
// matches nothing.
func In[T any](field string, values ...T) Predicate {
	return predicateFunc(func() (string, []any) {
		if len(values) == 0 {
			return "0", nil
		}
		args := make([]any, 0, len(values)+1)
		args = append(args, jsonPath(field))
		marks := make([]string, 0, len(values))
		for _, v := range values {
			marks = append(marks, "?")
			args = append(args, sqlValue(v))
		}
		return "json_extract(body, ?) IN (" + strings.Join(marks, ", ") + ")", args
	})
}

// Gte matches documents whose field is greater than or equal to value.
func Gte(field string, value any) Predicate {
	return predicateFunc(func() (string, []any) {
		return "json_extract(body, ?) >= ?", []any{jsonPath(field), sqlValue(value)}
	})
}

// Lte matches documents whose field is less than or equal to value.
func Lte(field string, value any) Predicate {
	return predicateFunc(func() (string, []any) {
		return "json_extract(body, ?) <= ?", []any{jsonPath(field), sqlValue(value)}
	})
}

// Or matches documents satisfying any of preds.
func Or(preds ...Predicate) Predicate {
	return predicateFunc(func() (string, []any) {
		if len(preds) == 0 {
			return "0", nil
		}
		parts := make([]string, 0, len(preds))
		var args []any
		for _, p := range preds {
			clause, pargs := p.clause()
			parts = append(parts, clause)
			args = append(args, pargs...)
		}
		return "(" + strings.Join(parts, " OR ") + ")", args
	})
}

func whereClause(preds []Predicate) (string, []any) {
	if len(preds) == 0 {
		return "", nil
	}
	parts := make([]string, 0, len(preds))
	var args []any
	for _, p := range preds {
		if p == nil {
			continue
		}
		clause, pargs := p.clause()
		parts = append(parts, clause)
		args = append(args, pargs...)
	}
	if len(parts) == 0 {
		return "", nil
	}
	return " AND " + strings.Join(parts, " AND "), args
}
