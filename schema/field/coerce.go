package field

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrCoerce is the sentinel matched by every coercion failure.
var ErrCoerce = errors.New("field: cannot coerce value")

// CoercionError reports a value that cannot be coerced to a descriptor's
// semantic type. Coercion failures are hard errors: a field never silently
// truncates or drops precision.
type CoercionError struct {
	Field string // logical field name
	Value any    // offending value
	Type  Type   // target semantic type
	cause error
}

// Error returns the error string.
func (e *CoercionError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("field: value %v (%T) cannot be coerced to %s for field %q: %v",
			e.Value, e.Value, e.Type, e.Field, e.cause)
	}
	return fmt.Sprintf("field: value %v (%T) cannot be coerced to %s for field %q",
		e.Value, e.Value, e.Type, e.Field)
}

// Is reports whether the target error matches ErrCoerce.
func (e *CoercionError) Is(err error) bool { return err == ErrCoerce }

// Unwrap returns the underlying cause, if any.
func (e *CoercionError) Unwrap() error { return e.cause }

// IsCoercionError returns true if the error is a CoercionError.
func IsCoercionError(err error) bool {
	if err == nil {
		return false
	}
	var e *CoercionError
	return errors.As(err, &e) || errors.Is(err, ErrCoerce)
}

func (d *Descriptor) fail(v any, cause error) (any, error) {
	return nil, &CoercionError{Field: d.Name, Value: v, Type: d.Type, cause: cause}
}

// Coerce validates v against the descriptor's semantic type and converts it
// when the runtime type does not match. nil passes through for any type;
// nullability is a storage concern, not a coercion one.
func (d *Descriptor) Coerce(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch d.Type {
	case TypeInt:
		return d.coerceInt(v)
	case TypeBool:
		return d.coerceBool(v)
	case TypeString:
		return d.coerceString(v)
	case TypeFloat:
		return d.coerceFloat(v)
	case TypeDecimal:
		return d.coerceDecimal(v)
	case TypeDate:
		return d.coerceDate(v)
	case TypeDateTime:
		return d.coerceDateTime(v)
	case TypeUUID:
		return d.coerceUUID(v)
	}
	return d.fail(v, fmt.Errorf("unknown semantic type"))
}

func (d *Descriptor) coerceInt(v any) (any, error) {
	switch v := v.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint8:
		return int64(v), nil
	case uint16:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float32:
		return d.wholeFloat(float64(v))
	case float64:
		return d.wholeFloat(v)
	case bool:
		if v {
			return int64(1), nil
		}
		return int64(0), nil
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return d.fail(v, err)
		}
		return n, nil
	case []byte:
		return d.coerceInt(string(v))
	}
	return d.fail(v, nil)
}

// wholeFloat accepts a float as an integer only when it carries no
// fractional part.
func (d *Descriptor) wholeFloat(f float64) (any, error) {
	n := int64(f)
	if float64(n) != f {
		return d.fail(f, fmt.Errorf("fractional part would be lost"))
	}
	return n, nil
}

func (d *Descriptor) coerceBool(v any) (any, error) {
	switch v := v.(type) {
	case bool:
		return v, nil
	case int:
		return v != 0, nil
	case int64:
		return v != 0, nil
	case uint64:
		return v != 0, nil
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return d.fail(v, err)
		}
		return b, nil
	case []byte:
		return d.coerceBool(string(v))
	}
	return d.fail(v, nil)
}

// coerceString accepts strings and raw byte slices only. Other types are
// not silently stringified.
func (d *Descriptor) coerceString(v any) (any, error) {
	switch v := v.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}
	return d.fail(v, nil)
}

func (d *Descriptor) coerceFloat(v any) (any, error) {
	switch v := v.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return d.fail(v, err)
		}
		return f, nil
	case []byte:
		return d.coerceFloat(string(v))
	}
	return d.fail(v, nil)
}

func (d *Descriptor) coerceDecimal(v any) (any, error) {
	switch v := v.(type) {
	case decimal.Decimal:
		return v, nil
	case string:
		dec, err := decimal.NewFromString(v)
		if err != nil {
			return d.fail(v, err)
		}
		return dec, nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case int64:
		return decimal.NewFromInt(v), nil
	case float64:
		return decimal.NewFromFloat(v), nil
	case float32:
		return decimal.NewFromFloat32(v), nil
	case []byte:
		return d.coerceDecimal(string(v))
	}
	return d.fail(v, nil)
}

func (d *Descriptor) coerceDate(v any) (any, error) {
	switch v := v.(type) {
	case time.Time:
		return truncateDate(v), nil
	case string:
		if t, err := dateparse.ParseAny(v); err == nil {
			return truncateDate(t), nil
		}
		t, err := interpretDate(v)
		if err != nil {
			return d.fail(v, err)
		}
		return t, nil
	case []byte:
		return d.coerceDate(string(v))
	}
	return d.fail(v, nil)
}

func (d *Descriptor) coerceDateTime(v any) (any, error) {
	switch v := v.(type) {
	case time.Time:
		return v, nil
	case string:
		if t, err := dateparse.ParseAny(v); err == nil {
			return t, nil
		}
		t, err := interpretDateTime(v)
		if err != nil {
			return d.fail(v, err)
		}
		return t, nil
	case []byte:
		return d.coerceDateTime(string(v))
	}
	return d.fail(v, nil)
}

func (d *Descriptor) coerceUUID(v any) (any, error) {
	switch v := v.(type) {
	case uuid.UUID:
		return v, nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return d.fail(v, err)
		}
		return id, nil
	case [16]byte:
		return uuid.UUID(v), nil
	case []byte:
		id, err := uuid.ParseBytes(v)
		if err != nil {
			return d.fail(v, err)
		}
		return id, nil
	}
	return d.fail(v, nil)
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// interpretDate is the strict fallback for compact "YYYYMMDD" values that
// the general parser rejects.
func interpretDate(s string) (time.Time, error) {
	if len(s) < 8 {
		return time.Time{}, fmt.Errorf("expected YYYYMMDD, got %q", s)
	}
	year, err := strconv.Atoi(s[0:4])
	if err != nil {
		return time.Time{}, err
	}
	month, err := strconv.Atoi(s[4:6])
	if err != nil {
		return time.Time{}, err
	}
	day, err := strconv.Atoi(s[6:8])
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), nil
}

// interpretTime is the strict fallback for compact "HHMM" or "HHMMSS"
// values.
func interpretTime(s string) (hour, minute, second int, err error) {
	if len(s) < 4 {
		return 0, 0, 0, fmt.Errorf("expected HHMMSS, got %q", s)
	}
	if hour, err = strconv.Atoi(s[0:2]); err != nil {
		return 0, 0, 0, err
	}
	if minute, err = strconv.Atoi(s[2:4]); err != nil {
		return 0, 0, 0, err
	}
	if len(s) >= 6 {
		if second, err = strconv.Atoi(s[4:6]); err != nil {
			return 0, 0, 0, err
		}
	}
	return hour, minute, second, nil
}

// interpretDateTime handles the compact "YYYYMMDD HHMMSS" fallback form.
func interpretDateTime(s string) (time.Time, error) {
	datePart, timePart, ok := strings.Cut(s, " ")
	if !ok {
		return time.Time{}, fmt.Errorf("expected \"YYYYMMDD HHMMSS\", got %q", s)
	}
	date, err := interpretDate(datePart)
	if err != nil {
		return time.Time{}, err
	}
	hour, minute, second, err := interpretTime(timePart)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, second, 0, time.UTC), nil
}
