package loom

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
)

// Entity is one decoded result row. Values are keyed by logical field name
// and coerced to the declared field types on construction; columns without
// a declared field keep the driver's raw value. The primary-key value seen
// at decode time is captured so later saves and deletes stay addressed to
// the original row even if the key field itself is rewritten.
type Entity struct {
	objects *Objects
	values  map[string]any
	pk      any
}

func newEntity(o *Objects, row map[string]any) (*Entity, error) {
	e := &Entity{
		objects: o,
		values:  make(map[string]any, len(row)),
	}
	for col, v := range row {
		name := col
		if logical, ok := o.columnReverse[col]; ok {
			name = logical
		}
		if d := o.model.byName[name]; d != nil && v != nil {
			cv, err := d.Coerce(v)
			if err != nil {
				return nil, err
			}
			v = cv
		}
		e.values[name] = v
		if name == o.model.pk {
			e.pk = v
		}
	}
	return e, nil
}

// PK returns the primary-key value captured at decode time.
func (e *Entity) PK() any { return e.pk }

// Get returns the value of a logical field.
func (e *Entity) Get(name string) any { return e.values[name] }

// Has reports whether the entity carries the named field.
func (e *Entity) Has(name string) bool {
	_, ok := e.values[name]
	return ok
}

// Set overwrites a field value in memory. The change is not written back
// until Save.
func (e *Entity) Set(name string, v any) { e.values[name] = v }

// Int returns the named field as int64, or zero when absent or of another
// type.
func (e *Entity) Int(name string) int64 {
	n, _ := e.values[name].(int64)
	return n
}

// String returns the named field as a string, or "".
func (e *Entity) String(name string) string {
	s, _ := e.values[name].(string)
	return s
}

// Bool returns the named field as a bool, or false.
func (e *Entity) Bool(name string) bool {
	b, _ := e.values[name].(bool)
	return b
}

// Float returns the named field as float64, or zero.
func (e *Entity) Float(name string) float64 {
	f, _ := e.values[name].(float64)
	return f
}

// Decimal returns the named field as an exact decimal, or zero.
func (e *Entity) Decimal(name string) decimal.Decimal {
	d, _ := e.values[name].(decimal.Decimal)
	return d
}

// Time returns the named field as a time.Time, or the zero time.
func (e *Entity) Time(name string) time.Time {
	t, _ := e.values[name].(time.Time)
	return t
}

// Fields returns the entity's field names in sorted order.
func (e *Entity) Fields() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// AsMap returns a copy of the entity's values keyed by logical field name.
func (e *Entity) AsMap() map[string]any {
	out := make(map[string]any, len(e.values))
	for k, v := range e.values {
		out[k] = v
	}
	return out
}

// Save writes every in-memory field value back to the row identified by
// the captured primary key and refreshes the entity from the database.
func (e *Entity) Save(ctx context.Context) error {
	if e.pk == nil {
		return fmt.Errorf("loom: save %s: entity has no primary key value", e.objects.model.name)
	}
	fields := make([]Lookup, 0, len(e.values))
	for _, name := range e.Fields() {
		fields = append(fields, L(name, e.values[name]))
	}
	fresh, err := e.objects.updateByPK(ctx, e.pk, fields)
	if err != nil {
		return err
	}
	e.values = fresh.values
	e.pk = fresh.pk
	return nil
}

// Update sets the given fields and saves in one step.
func (e *Entity) Update(ctx context.Context, fields ...Lookup) error {
	for _, f := range fields {
		e.Set(f.Key, f.Value)
	}
	return e.Save(ctx)
}

// Delete removes the entity's row, keyed by the captured primary key.
func (e *Entity) Delete(ctx context.Context) error {
	if e.pk == nil {
		return fmt.Errorf("loom: delete %s: entity has no primary key value", e.objects.model.name)
	}
	return e.objects.Delete(ctx, e.pk)
}

// MarshalJSON encodes the entity's values as a JSON object.
func (e *Entity) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.values)
}

// MarshalBinary encodes the entity's values with msgpack, for caches and
// wire transfer. Decode with UnmarshalValues on a map.
func (e *Entity) MarshalBinary() ([]byte, error) {
	return msgpack.Marshal(e.values)
}

// UnmarshalValues decodes a MarshalBinary payload back into a value map.
func UnmarshalValues(data []byte) (map[string]any, error) {
	var out map[string]any
	if err := msgpack.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Entity) GoString() string {
	return fmt.Sprintf("%s(%v)", e.objects.model.name, e.values)
}
