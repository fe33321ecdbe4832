package loom

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Lookup is one filter term: a lookup key and its bound value. Keys follow
// the form
//
//	field[__function][__operator]
//
// where function selects the comparison (icontains, gte, in, ...) and
// operator chains the clause to its predecessors (or, and_start, or_end,
// ...). Lookups are positional: parameter markers are emitted in the order
// lookups are given, so values bind by position on every backend.
type Lookup struct {
	Key   string
	Value any
}

// L builds a Lookup. It exists to keep call sites short:
//
//	users.Filter(ctx, loom.L("name__icontains", "bob"), loom.L("age__gte", 21))
func L(key string, value any) Lookup {
	return Lookup{Key: key, Value: value}
}

// Reserved control keys. These are stripped from the lookup list before
// grammar translation and are never treated as column lookups.
const (
	ctlReturnDicts  = "return_dicts"
	ctlReturnSet    = "return_set"
	ctlReturnSetKey = "return_set_key"
	ctlResultLimit  = "result_limit"
	ctlOrderBy      = "order_by"
	ctlSelectAll    = "select_all"
	ctlColumns      = "columns"
	ctlParametrized = "parametrized"
)

type controls struct {
	returnDicts  bool
	returnSet    bool
	returnSetKey string
	selectAll    bool
	parametrized bool
	orderBy      string
	limit        int
	columns      []string
}

func splitControls(lookups []Lookup) (*controls, []Lookup) {
	c := &controls{parametrized: true}
	rest := make([]Lookup, 0, len(lookups))
	for _, kv := range lookups {
		switch kv.Key {
		case ctlReturnDicts:
			c.returnDicts = truthy(kv.Value)
		case ctlReturnSet:
			c.returnSet = truthy(kv.Value)
		case ctlReturnSetKey:
			c.returnSetKey = fmt.Sprint(kv.Value)
		case ctlResultLimit:
			c.limit = toInt(kv.Value)
		case ctlOrderBy:
			c.orderBy = fmt.Sprint(kv.Value)
		case ctlSelectAll:
			c.selectAll = truthy(kv.Value)
		case ctlParametrized:
			c.parametrized = truthy(kv.Value)
		case ctlColumns:
			switch v := kv.Value.(type) {
			case []string:
				c.columns = v
			case string:
				c.columns = []string{v}
			}
		default:
			rest = append(rest, kv)
		}
	}
	return c, rest
}

// filterFunctions is the recognized comparison-function table. A key suffix
// found here is a function; any other suffix in the function position is an
// operator.
var filterFunctions = map[string]bool{
	"iexact":      true,
	"icontains":   true,
	"contains":    true,
	"startswith":  true,
	"istartswith": true,
	"endswith":    true,
	"iendswith":   true,
	"not_like":    true,
	"isnull":      true,
	"lt":          true,
	"lte":         true,
	"gt":          true,
	"gte":         true,
	"in":          true,
	"not_in":      true,
	"length_lt":   true,
	"length_lte":  true,
	"length_gt":   true,
	"length_gte":  true,
}

// parseLookupKey splits a lookup key into field, comparison function and
// chaining operator. A single suffix is a function when the function table
// recognizes it and an operator otherwise.
func parseLookupKey(key string) (fld, fn, op string) {
	parts := strings.Split(key, "__")
	fld, op = parts[0], "and"
	switch {
	case len(parts) == 2:
		if filterFunctions[parts[1]] {
			fn = parts[1]
		} else {
			op = parts[1]
		}
	case len(parts) > 2:
		fn, op = parts[1], parts[2]
	}
	return fld, fn, op
}

// processFilters translates ordered lookups into a WHERE clause body,
// appending bound values to the engine's parameter list in clause order.
// Lookups with a nil value translate to no clause at all, except isnull,
// which binds nothing in the first place.
func (o *Objects) processFilters(lookups []Lookup) (string, error) {
	var wheres []string
	for _, kv := range lookups {
		fld, fn, op := parseLookupKey(kv.Key)
		if kv.Value == nil && fn != "isnull" {
			continue
		}
		clause, err := o.compileClause(o.columnFor(fld), fn, kv.Value)
		if err != nil {
			return "", err
		}
		wheres = append(wheres, decorate(clause, op, len(wheres) > 0))
	}
	where := strings.TrimSpace(strings.Join(wheres, " "))
	return strings.ReplaceAll(where, "  ", " "), nil
}

// decorate prefixes a clause with its chaining operator and opens or closes
// a parenthesized group. The first clause of a statement takes no prefix.
// An operator of two or more segments opens a group; one whose last segment
// is "end" closes it, combining with the segment before.
func decorate(clause, op string, chained bool) string {
	if !chained {
		return clause
	}
	parts := strings.Split(op, "_")
	last := strings.ToUpper(parts[len(parts)-1])
	switch {
	case len(parts) == 1:
		return strings.ToUpper(op) + " " + clause
	case last == "END":
		return strings.ToUpper(parts[len(parts)-2]) + " " + clause + ")"
	default:
		return strings.ToUpper(parts[0]) + " (" + clause
	}
}

// compileClause renders one comparison. In parametrized mode the value (or
// its derived pattern) is appended to the parameter list and a positional
// marker is emitted; otherwise the value is inlined as a literal, which is
// only safe for trusted input.
func (o *Objects) compileClause(col, fn string, v any) (string, error) {
	p := o.parametrized
	switch fn {
	case "":
		if p {
			o.addParam(v)
			return col + " = " + o.param(), nil
		}
		return col + " = " + literal(v), nil
	case "iexact":
		s, err := stringValue(fn, v)
		if err != nil {
			return "", err
		}
		if p {
			o.addParam(upperFold(s))
			return "UPPER(" + col + ") = " + o.param(), nil
		}
		return "UPPER(" + col + ") = " + literal(upperFold(s)), nil
	case "icontains":
		s, err := stringValue(fn, v)
		if err != nil {
			return "", err
		}
		if p {
			o.addParam("%" + upperFold(s) + "%")
			return "UPPER(" + col + ") LIKE " + o.param(), nil
		}
		return "UPPER(" + col + ") LIKE " + literal("%"+upperFold(s)+"%"), nil
	case "contains":
		if p {
			o.addParam("%" + fmt.Sprint(v) + "%")
			return col + " LIKE " + o.param(), nil
		}
		return col + " LIKE " + literal("%"+fmt.Sprint(v)+"%"), nil
	case "startswith":
		s := fmt.Sprint(v)
		lhs := fmt.Sprintf("LEFT(%s, %d)", col, utf8.RuneCountInString(s))
		if p {
			o.addParam(v)
			return lhs + " = " + o.param(), nil
		}
		return lhs + " = " + literal(s), nil
	case "istartswith":
		s, err := stringValue(fn, v)
		if err != nil {
			return "", err
		}
		lhs := fmt.Sprintf("UPPER(LEFT(%s, %d))", col, utf8.RuneCountInString(s))
		if p {
			o.addParam(upperFold(s))
			return lhs + " = " + o.param(), nil
		}
		return lhs + " = " + literal(upperFold(s)), nil
	case "endswith":
		s := fmt.Sprint(v)
		lhs := fmt.Sprintf("RIGHT(%s, %d)", col, utf8.RuneCountInString(s))
		if p {
			o.addParam(v)
			return lhs + " = " + o.param(), nil
		}
		return lhs + " = " + literal(s), nil
	case "iendswith":
		s, err := stringValue(fn, v)
		if err != nil {
			return "", err
		}
		lhs := fmt.Sprintf("UPPER(RIGHT(%s, %d))", col, utf8.RuneCountInString(s))
		if p {
			o.addParam(upperFold(s))
			return lhs + " = " + o.param(), nil
		}
		return lhs + " = " + literal(upperFold(s)), nil
	case "not_like":
		if p {
			o.addParam(v)
			return col + " NOT LIKE " + o.param(), nil
		}
		return col + " NOT LIKE " + literal(v), nil
	case "isnull":
		if truthy(v) {
			return col + " IS NULL", nil
		}
		return col + " IS NOT NULL", nil
	case "lt", "lte", "gt", "gte":
		return o.compileComparison(col, fn, v), nil
	case "length_lt", "length_lte", "length_gt", "length_gte":
		return o.compileComparison("LENGTH("+col+")", strings.TrimPrefix(fn, "length_"), v), nil
	case "in", "not_in":
		return o.compileIn(col, fn == "not_in", v), nil
	default:
		// An unrecognized function in a three-part key falls through
		// to plain equality.
		if p {
			o.addParam(v)
			return col + " = " + o.param(), nil
		}
		return col + " = " + literal(v), nil
	}
}

var comparisonOps = map[string]string{
	"lt":  "<",
	"lte": "<=",
	"gt":  ">",
	"gte": ">=",
}

func (o *Objects) compileComparison(lhs, fn string, v any) string {
	op := comparisonOps[fn]
	if o.parametrized {
		o.addParam(v)
		return lhs + " " + op + " " + o.param()
	}
	return lhs + " " + op + " " + literal(v)
}

// compileIn expands a slice value into one marker per element. A non-slice
// value becomes a single-element list.
func (o *Objects) compileIn(col string, negate bool, v any) string {
	elems := sliceValues(v)
	parts := make([]string, 0, len(elems))
	for _, e := range elems {
		if o.parametrized {
			o.addParam(e)
			parts = append(parts, o.param())
		} else {
			parts = append(parts, literal(e))
		}
	}
	kw := " IN ("
	if negate {
		kw = " NOT IN ("
	}
	return col + kw + strings.Join(parts, ", ") + ")"
}

func sliceValues(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	if b, ok := v.([]byte); ok {
		return []any{b}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

var upperCaser = cases.Upper(language.Und)

// upperFold uppercases a pattern the same way the generated SQL's UPPER()
// is expected to, so case-insensitive comparisons agree on both sides.
func upperFold(s string) string {
	return upperCaser.String(s)
}

func stringValue(fn string, v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case []byte:
		return string(s), nil
	}
	return "", fmt.Errorf("loom: %s lookup requires a string value, got %T", fn, v)
}

// literal inlines a value for non-parametrized statements. Strings are
// single-quoted without escaping; this mode exists for trusted inputs and
// backends without placeholder support.
func literal(v any) string {
	switch s := v.(type) {
	case string:
		return "'" + s + "'"
	case []byte:
		return "'" + string(s) + "'"
	}
	return fmt.Sprint(v)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	}
	return true
}

func toInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	case string:
		if out, err := strconv.Atoi(t); err == nil {
			return out
		}
	}
	return 0
}
