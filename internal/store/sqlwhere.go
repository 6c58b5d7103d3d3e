package store

import (
	"fmt"
	"strings"
)

// placeholder renders the n-th (1-based) bind parameter for a SQL dialect.
type placeholder func(n int) string

func dollar(n int) string { return fmt.Sprintf("$%d", n) }
func question(int) string { return "?" }

// buildWhere translates preds into a WHERE clause body and its arguments.
// Field names are checked against allowed because they are interpolated.
// An empty predicate list yields "TRUE"-equivalent "1 = 1".
func buildWhere(preds Predicates, allowed map[string]bool, ph placeholder, argOffset int) (string, []any, error) {
	if len(preds) == 0 {
		return "1 = 1", nil, nil
	}

	clauses := make([]string, 0, len(preds))
	args := make([]any, 0, len(preds))
	next := func(v any) string {
		args = append(args, v)
		return ph(argOffset + len(args))
	}

	for _, p := range preds {
		if !allowed[p.Field] {
			return "", nil, fmt.Errorf("unknown filter field %q", p.Field)
		}
		switch p.Kind {
		case KindEq:
			if len(p.Values) != 1 {
				return "", nil, fmt.Errorf("eq filter on %q needs exactly one value", p.Field)
			}
			clauses = append(clauses, fmt.Sprintf("%s = %s", p.Field, next(p.Values[0])))
		case KindIn:
			if len(p.Values) == 0 {
				clauses = append(clauses, "1 = 0")
				continue
			}
			marks := make([]string, 0, len(p.Values))
			for _, v := range p.Values {
				marks = append(marks, next(v))
			}
			clauses = append(clauses, fmt.Sprintf("%s IN (%s)", p.Field, strings.Join(marks, ", ")))
		case KindAnyOf:
			if len(p.Values) == 0 {
				clauses = append(clauses, "1 = 0")
				continue
			}
			alts := make([]string, 0, len(p.Values))
			for _, v := range p.Values {
				if v == nil {
					alts = append(alts, p.Field+" IS NULL")
					continue
				}
				alts = append(alts, fmt.Sprintf("%s = %s", p.Field, next(v)))
			}
			clauses = append(clauses, "("+strings.Join(alts, " OR ")+")")
		default:
			return "", nil, fmt.Errorf("unsupported predicate kind %s", p.Kind)
		}
	}

	return strings.Join(clauses, " AND "), args, nil
}
