package loom

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/syssam/loom/dialect"
	"github.com/syssam/loom/schema/field"
)

// ModelConfig declares a logical entity and its binding to one or more
// physical tables.
//
// The simplest model binds to a single table; when Table is empty, the
// table name is the slug of Name:
//
//	m, err := loom.NewModel(loom.ModelConfig{
//		Name: "Member",
//		Fields: []field.Field{
//			field.Int("member_id").Column("MemberID").PrimaryKey(),
//			field.Char("name").Column("Name"),
//		},
//	}, drv)
//
// A joined model lists its tables in order and declares the join predicate
// as comma-separated "Table.column = Table.column" pairs. Table aliases are
// derived automatically; never write "AS alias" yourself:
//
//	loom.ModelConfig{
//		Name:   "MemberAddress",
//		Joined: true,
//		Tables: []string{"Members", "Addresses"},
//		JoinOn: "Members.AddressID = Addresses.ID",
//		...
//	}
//
// Fields of a joined model should each name their table; a field without
// one renders as an unqualified column and is left for the backend to
// resolve.
type ModelConfig struct {
	// Name is the logical entity name; its slug is the default table name.
	Name string
	// Table overrides the physical table for single-table models.
	Table string
	// Tables is the ordered physical table list for joined models.
	Tables []string
	// PrimaryKey is the logical primary-key name. Defaults to "ID".
	PrimaryKey string
	// Joined marks the model as spanning multiple tables.
	Joined bool
	// JoinOn is the comma-separated join predicate list.
	JoinOn string
	// Database is the database name, used to qualify tables in join
	// namespacing on backends that require it.
	Database string
	// Fields is the ordered field declaration list.
	Fields []field.Field
}

// A Model is an immutable entity declaration bound to a query engine.
// Construct it once with NewModel; all querying goes through Objects.
type Model struct {
	name    string
	table   string
	tables  []string
	pk      string
	joined  bool
	joinOn  string
	fields  []*field.Descriptor
	byName  map[string]*field.Descriptor
	objects *Objects
}

// An Option configures the query engine a model binds to.
type Option func(*Objects)

// WithLogger sets the engine's logger. Defaults to slog.Default.
func WithLogger(l *slog.Logger) Option {
	return func(o *Objects) { o.log = l }
}

// WithDebug logs every generated statement and its parameters before
// execution.
func WithDebug() Option {
	return func(o *Objects) { o.debug = true }
}

// NewModel binds an entity declaration to a driver and constructs its query
// engine. It returns a BindingError when no table can be resolved or no
// driver was supplied.
func NewModel(cfg ModelConfig, drv dialect.Driver, opts ...Option) (*Model, error) {
	if drv == nil {
		return nil, NewBindingError(cfg.Name, "a driver is required")
	}
	m := &Model{
		name:   cfg.Name,
		pk:     cfg.PrimaryKey,
		joined: cfg.Joined,
		joinOn: cfg.JoinOn,
		byName: make(map[string]*field.Descriptor, len(cfg.Fields)),
	}
	if m.pk == "" {
		m.pk = "ID"
	}
	switch {
	case cfg.Joined:
		if len(cfg.Tables) == 0 {
			return nil, NewBindingError(cfg.Name, "a joined model requires an ordered table list")
		}
		m.tables = append(m.tables, cfg.Tables...)
		if err := validateJoinOn(cfg.Name, cfg.JoinOn, cfg.Tables); err != nil {
			return nil, err
		}
	case cfg.Table != "":
		m.table = cfg.Table
	case cfg.Name != "":
		m.table = Slug(cfg.Name)
	default:
		return nil, NewBindingError(cfg.Name, "you must declare a table or a model name")
	}
	for _, f := range cfg.Fields {
		d := f.Descriptor()
		if d.Name == "" {
			return nil, NewBindingError(cfg.Name, "field with empty name")
		}
		if _, dup := m.byName[d.Name]; dup {
			return nil, NewBindingError(cfg.Name, "duplicate field "+d.Name)
		}
		m.fields = append(m.fields, d)
		m.byName[d.Name] = d
	}
	m.objects = newObjects(m, drv, cfg.Database, opts...)
	return m, nil
}

// MustModel is like NewModel but panics on binding failure. Intended for
// package-level model declarations.
func MustModel(cfg ModelConfig, drv dialect.Driver, opts ...Option) *Model {
	m, err := NewModel(cfg, drv, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// Objects returns the model's query engine.
func (m *Model) Objects() *Objects { return m.objects }

// Name returns the logical entity name.
func (m *Model) Name() string { return m.name }

// Table returns the bound physical table, or the ordered table list joined
// with commas for joined models.
func (m *Model) Table() string {
	if m.joined {
		return strings.Join(m.tables, ", ")
	}
	return m.table
}

// PrimaryKey returns the logical primary-key name.
func (m *Model) PrimaryKey() string { return m.pk }

// Fields returns the ordered field descriptors.
func (m *Model) Fields() []*field.Descriptor { return m.fields }

// Field returns the descriptor for a logical field name, or nil.
func (m *Model) Field(name string) *field.Descriptor { return m.byName[name] }

var slugRe = regexp.MustCompile(`[^a-z0-9-_ ]`)

// Slug converts an entity name into its canonical table slug: lower-cased,
// everything outside [a-z0-9-_ ] stripped, spaces become underscores.
func Slug(value string) string {
	return strings.ReplaceAll(slugRe.ReplaceAllString(strings.ToLower(value), ""), " ", "_")
}

// validateJoinOn checks that every table a join predicate references is in
// the declared table list.
func validateJoinOn(model, joinOn string, tables []string) error {
	if joinOn == "" {
		return nil
	}
	known := make(map[string]bool, len(tables))
	for _, t := range tables {
		known[t] = true
	}
	for _, pred := range strings.Split(joinOn, ",") {
		for _, side := range strings.Split(pred, "=") {
			side = strings.TrimSpace(side)
			table, _, ok := strings.Cut(side, ".")
			if !ok {
				return NewBindingError(model, "join predicate "+pred+" must use table.column form")
			}
			if !known[table] {
				return NewBindingError(model, "join predicate references unknown table "+table)
			}
		}
	}
	return nil
}
