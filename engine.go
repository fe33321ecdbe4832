package loom

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"reflect"
	"strconv"
	"strings"

	"github.com/syssam/loom/dialect"
	dsql "github.com/syssam/loom/dialect/sql"
	"github.com/syssam/loom/schema/field"
)

// Objects is a model's query engine. It owns the logical-to-physical column
// maps, the generated table definition, the filter grammar translator and
// statement execution through the injected driver.
//
// An Objects instance keeps per-call scratch state (the pending parameter
// list of the current translation), which is overwritten at the start of
// every call. It must not be shared across goroutines; give each concurrent
// caller its own model and driver.
type Objects struct {
	model   *Model
	drv     dialect.Driver
	dialect string
	dbName  string
	log     *slog.Logger
	debug   bool

	table      string            // render target: table slug or join list
	joinWhere  string            // alias-translated join predicate
	namespaces map[string]string // physical table -> alias

	columns       []string          // "physical AS logical" select list
	columnLookup  map[string]string // logical -> physical
	columnReverse map[string]string // physical -> logical
	tableDef      []string

	// Per-call scratch state. Reset at the start of every statement.
	whereValues  []any
	paramN       int
	parametrized bool
}

func newObjects(m *Model, drv dialect.Driver, dbName string, opts ...Option) *Objects {
	o := &Objects{
		model:         m,
		drv:           drv,
		dialect:       drv.Dialect(),
		dbName:        dbName,
		log:           slog.Default(),
		parametrized:  true,
		namespaces:    make(map[string]string, len(m.tables)),
		columnLookup:  make(map[string]string, len(m.fields)),
		columnReverse: make(map[string]string, len(m.fields)),
	}
	for _, opt := range opts {
		opt(o)
	}
	if m.joined {
		o.initJoin()
	} else {
		o.table = m.table
	}
	o.initColumns()
	return o
}

// initJoin derives the deterministic alias for every participating table,
// rewrites the join predicate in terms of aliases, and renders the FROM
// list. Non-tabular backends qualify each table with the database name.
func (o *Objects) initJoin() {
	joinOn := o.model.joinOn
	tables := make([]string, 0, len(o.model.tables))
	for _, t := range o.model.tables {
		ns := dialect.Namespace(t)
		o.namespaces[t] = ns
		if dialect.Tabular(o.dialect) {
			tables = append(tables, t+" "+ns)
		} else {
			tables = append(tables, o.dbName+"."+t+" "+ns)
		}
		joinOn = strings.ReplaceAll(joinOn, t, ns)
	}
	o.joinWhere = strings.ReplaceAll(joinOn, ",", " AND ")
	o.table = strings.Join(tables, ", ")
}

// initColumns computes the select list, the two inverse column maps and the
// table definition, in field declaration order.
func (o *Objects) initColumns() {
	hasPK := false
	pkName := "id"
	if len(o.model.fields) == 0 {
		o.columns = []string{"*"}
	}
	for _, d := range o.model.fields {
		def, hasLength := dialect.Affinity(o.dialect, d.SQLType)
		col := d.ColumnName()
		var real string
		switch {
		case d.Expr:
			real = col
		case d.Table != "" && len(o.model.tables) > 0:
			real = o.namespaces[d.Table] + "." + dialect.Quote(o.dialect, col)
		default:
			real = dialect.Quote(o.dialect, col)
		}
		if col == "id" || d.PrimaryKey {
			if o.dialect == dialect.SQLite {
				def += " PRIMARY KEY"
			}
			pkName = real
			hasPK = true
		}
		tabledef := real + " " + def
		if hasLength {
			tabledef += " (" + lengthSpec(d) + ")"
		}
		if !d.Nullable {
			tabledef += " NOT NULL"
		}
		if d.AutoIncrement {
			tabledef += " " + dialect.AutoIncrement(o.dialect)
		}
		if d.HasDefault {
			// The default literal is always single-quoted, numeric
			// defaults included. Kept as observed.
			tabledef += fmt.Sprintf(" DEFAULT '%v'", d.Default)
		}
		o.tableDef = append(o.tableDef, tabledef)
		o.columns = append(o.columns, real+" AS "+d.Name)
		o.columnLookup[d.Name] = real
		o.columnReverse[real] = d.Name
	}
	if !hasPK {
		switch o.dialect {
		case dialect.SQLite:
			o.tableDef = append(o.tableDef, dialect.Quote(o.dialect, pkName)+" BIGINT(20) NOT NULL PRIMARY KEY")
		case dialect.Postgres:
			o.tableDef = append(o.tableDef, pkName+" SERIAL PRIMARY KEY")
		default:
			o.tableDef = append(o.tableDef, dialect.Quote(o.dialect, pkName)+" BIGINT(20) NOT NULL AUTO_INCREMENT")
		}
	}
	if o.dialect != dialect.SQLite && o.dialect != dialect.Postgres {
		o.tableDef = append(o.tableDef, "KEY("+dialect.Quote(o.dialect, pkName)+")")
	}
}

// Model returns the model this engine is bound to.
func (o *Objects) Model() *Model { return o.model }

// Dialect returns the engine's dialect tag.
func (o *Objects) Dialect() string { return o.dialect }

// Columns returns the ordered select list.
func (o *Objects) Columns() []string { return o.columns }

// columnFor translates a logical field name to its physical qualified
// column. Unmapped names pass through unquoted.
func (o *Objects) columnFor(name string) string {
	if real, ok := o.columnLookup[name]; ok {
		return real
	}
	return name
}

// resetParams clears the per-statement scratch state.
func (o *Objects) resetParams() {
	o.whereValues = o.whereValues[:0]
	o.paramN = 0
}

// param emits the next parameter marker.
func (o *Objects) param() string {
	o.paramN++
	return dialect.Placeholder(o.dialect, o.paramN)
}

func (o *Objects) addParam(v any) {
	o.whereValues = append(o.whereValues, v)
}

// buildQuery assembles a SELECT statement, paginating with TOP or LIMIT per
// the dialect, and appending the join predicate to any WHERE clause.
func (o *Objects) buildQuery(columns []string, where, orderBy string, limit int) string {
	cols := strings.Join(columns, ",")
	var query string
	if limit > 0 && dialect.UsesTop(o.dialect) {
		query = fmt.Sprintf("SELECT TOP (%d) %s FROM %s", limit, cols, o.table)
	} else {
		query = "SELECT " + cols + " FROM " + o.table
	}
	if where != "" {
		query += " WHERE " + where
	}
	if o.joinWhere != "" {
		if where != "" {
			query += " AND " + o.joinWhere
		} else {
			query += " WHERE " + o.joinWhere
		}
	}
	if orderBy != "" {
		query += " ORDER BY " + orderBy
	}
	if limit > 0 && !dialect.UsesTop(o.dialect) {
		query += fmt.Sprintf(" LIMIT %d", limit)
	}
	return query + ";"
}

// runFilter translates lookups, executes the SELECT and returns raw named
// rows plus the stripped control values.
func (o *Objects) runFilter(ctx context.Context, lookups []Lookup) ([]map[string]any, *controls, error) {
	c, rest := splitControls(lookups)
	o.resetParams()
	o.parametrized = c.parametrized
	columns := c.columns
	if len(columns) == 0 {
		columns = o.columns
	}
	var where string
	if !c.selectAll {
		w, err := o.processFilters(rest)
		if err != nil {
			return nil, nil, err
		}
		where = w
	}
	query := o.buildQuery(columns, where, c.orderBy, c.limit)
	var args []any
	if o.parametrized {
		args = append(args, o.whereValues...)
	}
	rows, err := o.query(ctx, query, args)
	if err != nil {
		return nil, nil, err
	}
	return rows, c, nil
}

// Filter executes a SELECT constrained by the given lookups and maps every
// returned row to an Entity. Reserved control lookups (result_limit,
// order_by, columns, parametrized, select_all, ...) are stripped before
// grammar translation and never treated as column lookups. The raw-dict and
// single-column modes have their own methods; their control lookups are
// stripped here but ignored.
func (o *Objects) Filter(ctx context.Context, lookups ...Lookup) ([]*Entity, error) {
	rows, c, err := o.runFilter(ctx, lookups)
	if err != nil {
		return nil, err
	}
	if c.returnDicts || c.returnSet {
		o.log.Warn("ignoring return_dicts/return_set controls; use FilterDicts or Values")
	}
	return o.decodeAll(rows)
}

// FilterDicts is Filter returning raw column-keyed rows instead of
// entities.
func (o *Objects) FilterDicts(ctx context.Context, lookups ...Lookup) ([]map[string]any, error) {
	rows, _, err := o.runFilter(ctx, lookups)
	return rows, err
}

// Values is Filter returning the values of a single result column.
func (o *Objects) Values(ctx context.Context, column string, lookups ...Lookup) ([]any, error) {
	rows, _, err := o.runFilter(ctx, lookups)
	if err != nil {
		return nil, err
	}
	out := make([]any, 0, len(rows))
	for _, row := range rows {
		out = append(out, row[column])
	}
	return out, nil
}

// All returns every row of the bound table, skipping WHERE generation
// entirely. Additional lookups may carry control keywords such as order_by.
func (o *Objects) All(ctx context.Context, lookups ...Lookup) ([]*Entity, error) {
	return o.Filter(ctx, append(lookups, L("select_all", true))...)
}

// Get returns the single entity matching the lookups. It returns a
// NotFoundError when no row matches and a NotSingularError when more than
// one does; both are expected control-flow signals for callers.
func (o *Objects) Get(ctx context.Context, lookups ...Lookup) (*Entity, error) {
	results, err := o.Filter(ctx, lookups...)
	if err != nil {
		return nil, err
	}
	switch len(results) {
	case 0:
		return nil, NewNotFoundError(o.model.name)
	case 1:
		return results[0], nil
	default:
		return nil, NewNotSingularError(o.model.name, len(results))
	}
}

// Create inserts a new row from the given field/value pairs. List and map
// values are stored JSON-encoded.
func (o *Objects) Create(ctx context.Context, fields ...Lookup) error {
	o.resetParams()
	cols := make([]string, 0, len(fields))
	marks := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))
	for _, f := range fields {
		cols = append(cols, dialect.Quote(o.dialect, o.columnFor(f.Key)))
		marks = append(marks, o.param())
		args = append(args, normalizeValue(f.Value))
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s);",
		dialect.Quote(o.dialect, o.table), strings.Join(cols, ","), strings.Join(marks, ","))
	return o.exec(ctx, query, args)
}

// Update issues an UPDATE of the given fields keyed by the primary-key
// value among them, then re-fetches and returns the updated entity.
func (o *Objects) Update(ctx context.Context, fields ...Lookup) (*Entity, error) {
	pkVal, ok := lookupValue(fields, o.model.pk)
	if !ok {
		return nil, fmt.Errorf("loom: update %s: missing primary key %q", o.model.name, o.model.pk)
	}
	return o.updateByPK(ctx, pkVal, fields)
}

// updateByPK is the UPDATE path shared with entity saves: the WHERE is
// always keyed by the supplied primary-key value, never by field equality.
func (o *Objects) updateByPK(ctx context.Context, pkVal any, fields []Lookup) (*Entity, error) {
	o.resetParams()
	sets := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields)+1)
	for _, f := range fields {
		sets = append(sets, dialect.Quote(o.dialect, o.columnFor(f.Key))+"="+o.param())
		args = append(args, normalizeValue(f.Value))
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s=%s;",
		dialect.Quote(o.dialect, o.table), strings.Join(sets, ","),
		dialect.Quote(o.dialect, o.columnFor(o.model.pk)), o.param())
	args = append(args, pkVal)
	if err := o.exec(ctx, query, args); err != nil {
		return nil, err
	}
	return o.Get(ctx, L(o.model.pk, pkVal))
}

// Delete removes the row with the given primary-key value.
func (o *Objects) Delete(ctx context.Context, pkVal any) error {
	o.resetParams()
	query := fmt.Sprintf("DELETE FROM %s WHERE %s=%s;",
		dialect.Quote(o.dialect, o.table),
		dialect.Quote(o.dialect, o.columnFor(o.model.pk)), o.param())
	return o.exec(ctx, query, []any{pkVal})
}

// Raw executes an arbitrary SELECT and decodes the rows as entities.
func (o *Objects) Raw(ctx context.Context, query string, args ...any) ([]*Entity, error) {
	rows, err := o.query(ctx, query, args)
	if err != nil {
		return nil, err
	}
	return o.decodeAll(rows)
}

// RawDicts executes an arbitrary SELECT and returns raw named rows.
func (o *Objects) RawDicts(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	return o.query(ctx, query, args)
}

func (o *Objects) decodeAll(rows []map[string]any) ([]*Entity, error) {
	out := make([]*Entity, 0, len(rows))
	for _, row := range rows {
		e, err := newEntity(o, row)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// query executes a row-returning statement through the driver. Failures are
// logged with the statement and parameters, wrapped and returned; the
// engine itself stays usable.
func (o *Objects) query(ctx context.Context, query string, args []any) ([]map[string]any, error) {
	if o.debug {
		o.log.Debug("query", "sql", query, "args", args)
	}
	var rows dsql.Rows
	if err := o.drv.Query(ctx, query, args, &rows); err != nil {
		o.log.Error("query failed",
			"verb", statementVerb(query), "sql", query, "args", args, "err", err)
		return nil, &OperationError{Query: query, Args: args, Err: err}
	}
	maps, err := dsql.ScanMaps(&rows)
	if err != nil {
		o.log.Error("row scan failed", "sql", query, "err", err)
		return nil, &OperationError{Query: query, Args: args, Err: err}
	}
	return maps, nil
}

// exec executes a non-returning statement. Mutations run in autocommit
// unless the driver is a transaction.
func (o *Objects) exec(ctx context.Context, query string, args []any) error {
	if o.debug {
		o.log.Debug("exec", "sql", query, "args", args)
	}
	if err := o.drv.Exec(ctx, query, args, nil); err != nil {
		o.log.Error("statement failed",
			"verb", statementVerb(query), "sql", query, "args", args, "err", err)
		return &OperationError{Query: query, Args: args, Err: err}
	}
	return nil
}

// normalizeValue prepares a bound parameter for the driver. Slices and maps
// other than byte slices are stored as their JSON encoding; everything else
// passes through for the driver's own conversion.
func normalizeValue(v any) any {
	switch v.(type) {
	case nil, []byte, string:
		return v
	}
	switch reflect.ValueOf(v).Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
	}
	return v
}

func lookupValue(lookups []Lookup, key string) (any, bool) {
	for _, kv := range lookups {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return nil, false
}

// lengthSpec renders the bracketed length of a typed column: precision and
// scale for decimals, character count otherwise.
func lengthSpec(d *field.Descriptor) string {
	if d.Type == field.TypeDecimal {
		return fmt.Sprintf("%d, %d", d.Precision, d.Scale)
	}
	return strconv.Itoa(d.MaxLength)
}
