// Command loomctl is a small operations tool for loom-managed databases:
// it checks connectivity, runs ad-hoc statements and reports the dialect
// policy resolved for a driver name.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/syssam/loom/config"
	"github.com/syssam/loom/dialect"
	"github.com/syssam/loom/dialect/sql"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "loomctl",
		Short:         "operations tool for loom-managed databases",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetGlobalNormalizationFunc(func(f *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "loom.yaml", "settings file")
	root.AddCommand(pingCmd(), queryCmd(), execCmd(), dialectCmd())
	if err := root.Execute(); err != nil {
		slog.Error("loomctl failed", "err", err)
		os.Exit(1)
	}
}

func openDriver() (*sql.Driver, *config.Settings, error) {
	settings, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	drv, err := settings.Open()
	if err != nil {
		return nil, nil, err
	}
	return drv, settings, nil
}

// session returns the execution surface for ad-hoc statements, logging
// every statement when debug is enabled.
func session(drv *sql.Driver, settings *config.Settings) dialect.ExecQuerier {
	if settings.Debug {
		return sql.NewDebugDriver(drv)
	}
	return drv
}

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "check database connectivity",
		RunE: func(cmd *cobra.Command, args []string) error {
			drv, settings, err := openDriver()
			if err != nil {
				return err
			}
			defer drv.Close()
			if err := drv.DB().PingContext(cmd.Context()); err != nil {
				return fmt.Errorf("ping %s: %w", settings.Driver, err)
			}
			fmt.Printf("%s ok (%s dialect)\n", settings.Driver, drv.Dialect())
			return nil
		},
	}
}

func queryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <sql> [args...]",
		Short: "run a row-returning statement and print the rows as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			drv, settings, err := openDriver()
			if err != nil {
				return err
			}
			defer drv.Close()
			var rows sql.Rows
			if err := session(drv, settings).Query(cmd.Context(), args[0], toAny(args[1:]), &rows); err != nil {
				return err
			}
			maps, err := sql.ScanMaps(&rows)
			if err != nil {
				return err
			}
			out, err := json.MarshalIndent(maps, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			return nil
		},
	}
}

func execCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <sql> [args...]",
		Short: "run a statement without reading rows back",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			drv, settings, err := openDriver()
			if err != nil {
				return err
			}
			defer drv.Close()
			var res sql.Result
			if err := session(drv, settings).Exec(cmd.Context(), args[0], toAny(args[1:]), &res); err != nil {
				return err
			}
			if n, err := res.RowsAffected(); err == nil {
				fmt.Printf("%d row(s) affected\n", n)
			}
			return nil
		},
	}
}

func dialectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dialect <driver>",
		Short: "show the dialect policy resolved for a driver name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tag, known := sql.DialectOf(args[0])
			fmt.Printf("driver:        %s\n", args[0])
			fmt.Printf("dialect:       %s (known=%v)\n", tag, known)
			fmt.Printf("placeholder:   %s %s %s\n",
				dialect.Placeholder(tag, 1), dialect.Placeholder(tag, 2), dialect.Placeholder(tag, 3))
			fmt.Printf("quoted ident:  %s\n", dialect.Quote(tag, "Member"))
			fmt.Printf("autoincrement: %s\n", dialect.AutoIncrement(tag))
			fmt.Printf("uses TOP:      %v\n", dialect.UsesTop(tag))
			return nil
		},
	}
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
