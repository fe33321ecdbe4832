package loom

import (
	"context"
	"strings"

	"github.com/syssam/loom/dialect"
)

// TableDefinition returns the generated column definitions in field order,
// including any synthetic primary key and key clause.
func (o *Objects) TableDefinition() []string {
	out := make([]string, len(o.tableDef))
	copy(out, o.tableDef)
	return out
}

// CreateTableSQL renders the CREATE TABLE statement for the bound table.
// Joined models have no single creatable table.
func (o *Objects) CreateTableSQL() (string, error) {
	if o.model.joined {
		return "", NewBindingError(o.model.name, "cannot create a table for a joined model")
	}
	var b strings.Builder
	b.WriteString("CREATE TABLE ")
	b.WriteString(dialect.Quote(o.dialect, o.table))
	b.WriteString(" (\n")
	b.WriteString(strings.Join(o.tableDef, ",\n"))
	b.WriteString("\n);")
	return b.String(), nil
}

// CreateTable creates the bound table from the declared fields.
func (o *Objects) CreateTable(ctx context.Context) error {
	query, err := o.CreateTableSQL()
	if err != nil {
		return err
	}
	return o.exec(ctx, query, nil)
}

// DropTable drops the bound table.
func (o *Objects) DropTable(ctx context.Context) error {
	if o.model.joined {
		return NewBindingError(o.model.name, "cannot drop a joined model")
	}
	return o.exec(ctx, "DROP TABLE "+dialect.Quote(o.dialect, o.table)+";", nil)
}

// TruncateTable empties the bound table. The embedded backend has no
// TRUNCATE; a plain DELETE is issued there instead.
func (o *Objects) TruncateTable(ctx context.Context) error {
	if o.model.joined {
		return NewBindingError(o.model.name, "cannot truncate a joined model")
	}
	if o.dialect == dialect.SQLite {
		return o.exec(ctx, "DELETE FROM "+dialect.Quote(o.dialect, o.table)+";", nil)
	}
	return o.exec(ctx, "TRUNCATE TABLE "+dialect.Quote(o.dialect, o.table)+";", nil)
}
