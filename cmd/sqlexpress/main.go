// Command sqlexpress runs SQL against an embedded database from the shell.
//
// Usage:
//
//	sqlexpress exec "SELECT 1"
//	sqlexpress --db app.db exec --bind 1=int:42 "SELECT * FROM t WHERE id = ?"
//	sqlexpress --db app.db script schema.sql
//	sqlexpress codes --category contention
//	sqlexpress --db app.db snapshot save app.sqxsnap
//	sqlexpress --db restored.db snapshot load app.sqxsnap
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"gopkg.in/yaml.v3"

	apperrors "github.com/FocuswithJustin/sqlexpress/core/errors"
	"github.com/FocuswithJustin/sqlexpress/core/sqlite"
	"github.com/FocuswithJustin/sqlexpress/core/sqlite/driver"
	"github.com/FocuswithJustin/sqlexpress/internal/bindspec"
	"github.com/FocuswithJustin/sqlexpress/internal/config"
	"github.com/FocuswithJustin/sqlexpress/internal/logging"
	"github.com/FocuswithJustin/sqlexpress/internal/metrics"
	"github.com/FocuswithJustin/sqlexpress/internal/ui"
	"github.com/FocuswithJustin/sqlexpress/internal/validation"
)

const version = "0.3.0"

// Globals holds the flags shared by every command.
type Globals struct {
	Config    string `name:"config" short:"c" help:"YAML configuration file." type:"path" env:"SQLEXPRESS_CONFIG"`
	DB        string `name:"db" short:"d" help:"Database path (default :memory:)."`
	Mode      string `name:"mode" help:"Open mode: ro, rw, rwc or memory."`
	LogLevel  string `name:"log-level" help:"Log level: debug, info, warn or error."`
	LogFormat string `name:"log-format" help:"Log format: text or json."`
	Color     string `name:"color" help:"Color output: auto, always or never."`
	Trace     bool   `name:"trace" help:"Log every statement event."`
	Metrics   bool   `name:"metrics" help:"Print statement metrics to stderr on exit."`

	out     io.Writer
	errOut  io.Writer
	ctx     context.Context
	cfg     *config.Config
	metrics *metrics.Collector
}

// CLI defines the command-line interface.
var CLI struct {
	Globals

	Exec     ExecCmd     `cmd:"" help:"Prepare, bind and run one statement."`
	Script   ScriptCmd   `cmd:"" help:"Run every statement in a SQL file."`
	Codes    CodesCmd    `cmd:"" help:"List engine result codes."`
	Snapshot SnapshotCmd `cmd:"" help:"Save, restore or inspect database snapshots."`
	Version  VersionCmd  `cmd:"" help:"Show version and engine information."`
}

func (g *Globals) stdout() io.Writer {
	if g.out == nil {
		return os.Stdout
	}
	return g.out
}

func (g *Globals) stderr() io.Writer {
	if g.errOut == nil {
		return os.Stderr
	}
	return g.errOut
}

// setup loads the configuration, applies the command-line flags over it
// and initializes logging and colors.
func (g *Globals) setup() error {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return err
	}
	if g.DB != "" {
		cfg.Database.Path = g.DB
	}
	if g.Mode != "" {
		cfg.Database.Mode = g.Mode
	}
	if g.LogLevel != "" {
		cfg.Logging.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Logging.Format = g.LogFormat
	}
	if g.Color != "" {
		cfg.Output.Color = g.Color
	}
	cfg.Logging.Trace = cfg.Logging.Trace || g.Trace
	cfg.Metrics.Enabled = cfg.Metrics.Enabled || g.Metrics
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	format, err := logging.ParseFormat(cfg.Logging.Format)
	if err != nil {
		return err
	}
	// Statement traces are logged at debug level.
	if cfg.Logging.Trace && level > logging.LevelDebug {
		level = logging.LevelDebug
	}
	logging.InitLoggerTo(g.stderr(), level, format)
	ui.InitColors(cfg.Output.Color)

	g.ctx = logging.WithSessionID(context.Background(), logging.NewSessionID())
	g.cfg = cfg
	return nil
}

// open connects to the configured database with tracing attached.
func (g *Globals) open() (*sqlite.Conn, error) {
	flags, err := g.cfg.OpenFlags()
	if err != nil {
		return nil, err
	}
	opts := g.cfg.Options()

	var tracers []sqlite.Tracer
	if g.cfg.Logging.Trace {
		tracers = append(tracers, logging.NewStmtLoggerContext(g.ctx))
	}
	if g.cfg.Metrics.Enabled {
		g.metrics = metrics.New()
		tracers = append(tracers, g.metrics)
	}
	if t := sqlite.MultiTracer(tracers...); t != nil {
		opts = append(opts, sqlite.WithTracer(t))
	}

	conn, err := sqlite.Open(g.cfg.Location(), flags, opts...)
	if err != nil {
		return nil, err
	}
	logging.ConnectionOpened(g.ctx, conn.Location(), conn.Flags())
	return conn, nil
}

// close closes conn and, when metrics are enabled, records its statement
// cache counters and dumps the metrics. It keeps the first error seen.
func (g *Globals) close(conn *sqlite.Conn, errp *error) {
	if g.metrics != nil {
		g.metrics.ObserveStmtCache(conn.StmtCacheStats())
	}
	if err := conn.Close(); err != nil && *errp == nil {
		*errp = err
	}
	if g.metrics != nil {
		if err := g.metrics.WriteText(g.stderr()); err != nil && *errp == nil {
			*errp = err
		}
	}
}

// ExecCmd prepares one statement and runs it.
type ExecCmd struct {
	Bind   []string `name:"bind" short:"b" help:"Parameter binding INDEX=TYPE:VALUE or NAME=TYPE:VALUE. Repeatable."`
	Repeat int      `name:"repeat" short:"n" default:"1" help:"Run the statement this many times, rebinding each time."`
	SQL    string   `arg:"" help:"SQL statement."`
}

func (c *ExecCmd) Run(g *Globals) (err error) {
	if err := g.setup(); err != nil {
		return err
	}
	args, err := bindspec.ParseAll(c.Bind)
	if err != nil {
		return err
	}

	conn, err := g.open()
	if err != nil {
		return err
	}
	defer g.close(conn, &err)

	s, tail, err := conn.PrepareTail(c.SQL)
	if err != nil {
		logging.StatementFailed(g.ctx, c.SQL, err)
		return err
	}
	if s == nil {
		return &apperrors.ValidationError{Field: "sql", Value: c.SQL, Message: "contains no statement"}
	}
	defer s.Finalize()
	if rest := strings.TrimSpace(tail); rest != "" {
		ui.Warning(g.stderr(), "ignoring text after the first statement: %q", rest)
	}

	var table *ui.Table
	if s.ColumnCount() > 0 {
		table = ui.NewTable(s.ColumnNames()...)
		table.Null = g.cfg.Output.Null
	}

	runs := max(c.Repeat, 1)
	for range runs {
		if err := s.ClearBindings(); err != nil {
			return err
		}
		if err := bindspec.BindAll(s, args); err != nil {
			return err
		}
		for row, err := range s.Rows() {
			if err != nil {
				logging.StatementFailed(g.ctx, c.SQL, err)
				return err
			}
			if table != nil {
				vals, err := row.Row()
				if err != nil {
					return err
				}
				table.AppendValues(vals)
			}
		}
	}

	out := g.stdout()
	if table != nil {
		if err := table.Render(out); err != nil {
			return err
		}
		fmt.Fprintf(out, "(%s rows)\n", ui.CountText(int64(table.Len())))
		return nil
	}
	ui.Success(out, "%s changes, last insert rowid %d", ui.CountText(conn.Changes()), conn.LastInsertRowID())
	return nil
}

// ScriptCmd runs a SQL file statement by statement.
type ScriptCmd struct {
	File string `arg:"" help:"SQL file to run." type:"existingfile"`
}

func (c *ScriptCmd) Run(g *Globals) (err error) {
	if err := g.setup(); err != nil {
		return err
	}
	if err := validation.CheckFile(c.File, validation.FileTypeText, validation.MaxScriptSize); err != nil {
		return err
	}
	data, err := os.ReadFile(c.File)
	if err != nil {
		return apperrors.NewIO("read", c.File, err)
	}

	conn, err := g.open()
	if err != nil {
		return err
	}
	defer g.close(conn, &err)

	if err := conn.ExecScript(string(data)); err != nil {
		logging.StatementFailed(g.ctx, c.File, err)
		return err
	}
	ui.Success(g.stdout(), "%s: %s rows changed", c.File, ui.CountText(conn.TotalChanges()))
	return nil
}

// CodesCmd lists the result code table.
type CodesCmd struct {
	Category string `name:"category" help:"Only codes in this category (success, misuse, contention, constraint, io, ...)."`
	Primary  bool   `name:"primary" help:"Only primary codes."`
}

func (c *CodesCmd) Run(g *Globals) error {
	if err := g.setup(); err != nil {
		return err
	}
	var want sqlite.Category
	if c.Category != "" {
		cat, ok := sqlite.ParseCategory(c.Category)
		if !ok {
			return &apperrors.ValidationError{Field: "category", Value: c.Category, Message: "unknown category"}
		}
		want = cat
	}

	table := ui.NewTable("CODE", "NAME", "CATEGORY", "MESSAGE")
	for _, code := range sqlite.All() {
		if c.Primary && code.Extended() != 0 {
			continue
		}
		if c.Category != "" && code.Category() != want {
			continue
		}
		table.Append(fmt.Sprint(int(code)), code.Name(), code.Category().String(), code.Message())
	}
	if table.Len() == 0 {
		ui.Warning(g.stderr(), "no matching result codes")
		return nil
	}
	return table.Render(g.stdout())
}

// VersionCmd prints build and engine versions as YAML.
type VersionCmd struct{}

type versionInfo struct {
	Version string      `yaml:"version"`
	Driver  driver.Info `yaml:"driver"`
}

func (c *VersionCmd) Run(g *Globals) error {
	data, err := yaml.Marshal(versionInfo{Version: version, Driver: driver.GetInfo()})
	if err != nil {
		return err
	}
	_, err = g.stdout().Write(data)
	return err
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("sqlexpress"),
		kong.Description("Prepared-statement SQL runner for embedded databases"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	if err := ctx.Run(&CLI.Globals); err != nil {
		ui.Error(os.Stderr, err)
		os.Exit(1)
	}
}
