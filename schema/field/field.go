// Package field declares the typed column descriptors a loom model is built
// from, and the value coercion rules each semantic type enforces.
//
// Descriptors are immutable declarations. They carry no per-row state;
// decoded values live on the entity that owns them.
//
//	field.Int("member_id").Column("MemberID"),
//	field.Char("city").Column("City").Table("Addresses"),
package field

import "fmt"

// A Type represents a descriptor's semantic type.
type Type uint8

// Semantic types.
const (
	TypeInvalid Type = iota
	TypeInt
	TypeBool
	TypeString
	TypeFloat
	TypeDecimal
	TypeDate
	TypeDateTime
	TypeUUID
)

var typeNames = [...]string{
	TypeInvalid:  "invalid",
	TypeInt:      "integer",
	TypeBool:     "boolean",
	TypeString:   "text",
	TypeFloat:    "float",
	TypeDecimal:  "decimal",
	TypeDate:     "date",
	TypeDateTime: "datetime",
	TypeUUID:     "uuid",
}

// String returns the name of the semantic type.
func (t Type) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return fmt.Sprintf("invalid(%d)", t)
}

// A Descriptor declares one logical attribute's physical binding: the
// owning table, the physical column, the declared SQL type and the
// constraints rendered into the table definition.
type Descriptor struct {
	Name          string // logical attribute name
	Column        string // physical column; defaults to Name
	Table         string // owning physical table, for joined models
	Type          Type   // semantic type for coercion
	SQLType       string // declared SQL type keyword (VARCHAR, INTEGER, ...)
	MaxLength     int    // length suffix, when the type permits one
	Precision     int    // decimal precision
	Scale         int    // decimal scale
	Nullable      bool
	AutoIncrement bool
	PrimaryKey    bool
	HasDefault    bool
	Default       any
	// Expr marks the column as a raw SQL expression rather than a plain
	// column name. Expression columns are never quoted.
	Expr bool
}

// Descriptor implements Field, so fully built descriptors and builders can
// be mixed in one declaration list.
func (d *Descriptor) Descriptor() *Descriptor { return d }

// ColumnName returns the physical column, falling back to the logical name.
func (d *Descriptor) ColumnName() string {
	if d.Column != "" {
		return d.Column
	}
	return d.Name
}

// A Field supplies a column descriptor. It is implemented by the package's
// builders and by *Descriptor itself.
type Field interface {
	Descriptor() *Descriptor
}

// A Builder constructs a Descriptor through chained calls.
type Builder struct {
	desc Descriptor
}

// Int returns a new integer field.
func Int(name string) *Builder {
	return &Builder{Descriptor{Name: name, Type: TypeInt, SQLType: "INTEGER", MaxLength: 11}}
}

// Bool returns a new boolean field, stored as a one-digit integer.
func Bool(name string) *Builder {
	return &Builder{Descriptor{Name: name, Type: TypeBool, SQLType: "INTEGER", MaxLength: 1}}
}

// Char returns a new bounded string field.
func Char(name string) *Builder {
	return &Builder{Descriptor{Name: name, Type: TypeString, SQLType: "VARCHAR", MaxLength: 64}}
}

// Text returns a new unbounded string field.
func Text(name string) *Builder {
	return &Builder{Descriptor{Name: name, Type: TypeString, SQLType: "TEXT"}}
}

// Float returns a new float field.
func Float(name string) *Builder {
	return &Builder{Descriptor{Name: name, Type: TypeFloat, SQLType: "FLOAT"}}
}

// Decimal returns a new fixed-point decimal field with a default precision
// of 8 digits and scale of 6.
func Decimal(name string) *Builder {
	return &Builder{Descriptor{Name: name, Type: TypeDecimal, SQLType: "DECIMAL", Precision: 8, Scale: 6}}
}

// Date returns a new date field.
func Date(name string) *Builder {
	return &Builder{Descriptor{Name: name, Type: TypeDate, SQLType: "DATE"}}
}

// DateTime returns a new datetime field.
func DateTime(name string) *Builder {
	return &Builder{Descriptor{Name: name, Type: TypeDateTime, SQLType: "DATETIME"}}
}

// UUID returns a new UUID field, stored as a 36-character string.
func UUID(name string) *Builder {
	return &Builder{Descriptor{Name: name, Type: TypeUUID, SQLType: "VARCHAR", MaxLength: 36}}
}

// Column binds the field to a physical column with a different name.
func (b *Builder) Column(name string) *Builder {
	b.desc.Column = name
	return b
}

// Table binds the field to a specific physical table of a joined model.
func (b *Builder) Table(name string) *Builder {
	b.desc.Table = name
	return b
}

// SQLType overrides the declared SQL type keyword.
func (b *Builder) SQLType(t string) *Builder {
	b.desc.SQLType = t
	return b
}

// MaxLength sets the length suffix rendered when the type permits one.
func (b *Builder) MaxLength(n int) *Builder {
	b.desc.MaxLength = n
	return b
}

// Digits sets a decimal field's precision and scale.
func (b *Builder) Digits(precision, scale int) *Builder {
	b.desc.Precision, b.desc.Scale = precision, scale
	return b
}

// Nullable allows NULL values in the column.
func (b *Builder) Nullable() *Builder {
	b.desc.Nullable = true
	return b
}

// AutoIncrement marks the column as auto-incrementing.
func (b *Builder) AutoIncrement() *Builder {
	b.desc.AutoIncrement = true
	return b
}

// PrimaryKey marks the column as the table's primary key.
func (b *Builder) PrimaryKey() *Builder {
	b.desc.PrimaryKey = true
	return b
}

// Default sets the column's default value.
func (b *Builder) Default(v any) *Builder {
	b.desc.Default = v
	b.desc.HasDefault = true
	return b
}

// Expr marks the field as a raw SQL expression column.
func (b *Builder) Expr() *Builder {
	b.desc.Expr = true
	return b
}

// Descriptor implements Field.
func (b *Builder) Descriptor() *Descriptor {
	d := b.desc
	return &d
}
