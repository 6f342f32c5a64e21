// Command scripture links scripture citations in text and manages the Greek
// New Testament corpus: ingestion, lexicon loading, reading and the HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/santapalabra/scripture/internal/config"
	"github.com/santapalabra/scripture/internal/store"
)

const version = "0.4.0"

// Globals are flags shared by every command. Flags override the
// configuration file and the environment.
type Globals struct {
	Config    string `name:"config" short:"c" help:"YAML configuration file" type:"path"`
	DBDriver  string `name:"db-driver" help:"Database driver (sqlite, postgres)"`
	DBDSN     string `name:"db-dsn" help:"Database DSN (file path for sqlite, URL for postgres)"`
	LogLevel  string `name:"log-level" help:"Log level (debug, info, warn, error)"`
	LogFormat string `name:"log-format" help:"Log format (json, text)"`

	out io.Writer `kong:"-"`
}

// CLI defines the command-line interface for scripture.
type CLI struct {
	Globals

	// Resolver
	Link   LinkCmd   `cmd:"" help:"Replace citations in text with links"`
	Refs   RefsCmd   `cmd:"" help:"List the citations found in text"`
	Detect DetectCmd `cmd:"" help:"Detect the language of text"`

	// Corpus
	Ingest  IngestCmd  `cmd:"" help:"Ingest MorphGNT files into the corpus store"`
	Migrate MigrateCmd `cmd:"" help:"Create or upgrade the store schema"`
	Lexicon LexiconCmd `cmd:"" help:"Lexicon operations"`
	Read    ReadCmd    `cmd:"" help:"Print a chapter or verse from the corpus"`
	Search  SearchCmd  `cmd:"" help:"Find verses containing a word"`
	Define  DefineCmd  `cmd:"" help:"Print the definition of a lemma"`
	Watch   WatchCmd   `cmd:"" help:"Re-ingest corpus files when they change"`

	Serve   ServeCmd   `cmd:"" help:"Start the REST API server"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// LexiconCmd groups lexicon operations.
type LexiconCmd struct {
	Load LexiconLoadCmd `cmd:"" help:"Load definitions from a Strong's Greek dictionary XML file"`
}

// config loads the configuration and applies the global flags on top.
func (g *Globals) config() (config.Config, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return cfg, err
	}
	if g.DBDriver != "" {
		cfg.Database.Driver = g.DBDriver
	}
	if g.DBDSN != "" {
		cfg.Database.DSN = g.DBDSN
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.LogFormat != "" {
		cfg.Log.Format = g.LogFormat
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	cfg.ApplyLogging()
	return cfg, nil
}

// openStore loads the configuration and connects to its database.
func (g *Globals) openStore(ctx context.Context) (*store.SQLStore, config.Config, error) {
	cfg, err := g.config()
	if err != nil {
		return nil, cfg, err
	}
	st, err := store.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, cfg, err
	}
	return st, cfg, nil
}

func (g *Globals) printf(format string, args ...any) {
	fmt.Fprintf(g.out, format, args...)
}

// run parses args and executes the selected command. It returns the process
// exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	var cli CLI
	cli.out = stdout

	exited := false
	exitCode := 0
	parser, err := kong.New(&cli,
		kong.Name("scripture"),
		kong.Description("Scripture citation linker and Greek New Testament corpus tools"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{Compact: true}),
		kong.Writers(stdout, stderr),
		kong.Exit(func(code int) {
			exited = true
			exitCode = code
		}),
		kong.Bind(&cli.Globals),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	if err != nil {
		fmt.Fprintf(stderr, "scripture: %v\n", err)
		return 2
	}

	kctx, err := parser.Parse(args)
	if exited {
		return exitCode
	}
	if err != nil {
		parser.Errorf("%s", err)
		var perr *kong.ParseError
		if errors.As(err, &perr) {
			_ = perr.Context.PrintUsage(true)
		}
		return 2
	}

	if err := kctx.Run(); err != nil {
		fmt.Fprintf(stderr, "scripture: error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
