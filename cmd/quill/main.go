package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"quill/internal/astio"
	"quill/internal/journal"
	"quill/internal/runner"
	"quill/internal/util"
)

var (
	// Version is stamped at build time via -ldflags.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
	help      bool
	version   bool
	// config file
	configFile string
	// logging
	logLevel string
	logFile  string
	// evaluator config
	maxDepth int
	dumpAST  bool
	// journal
	journalDriver string
	journalDSN    string
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	flag.StringVar(&configFile, "config", "", "Load settings from a TOML file")
	// evaluator config
	flag.IntVar(&maxDepth, "max-depth", util.DefaultMaxDepth, "Maximum nested function calls (0 for unbounded)")
	flag.BoolVar(&dumpAST, "dump-ast", false, "Print the loaded AST as YAML instead of evaluating it")
	// journal config
	flag.StringVar(&journalDriver, "journal-driver", "", "Record runs with this SQL driver: sqlite3, mysql")
	flag.StringVar(&journalDSN, "journal-dsn", "", "Journal data source name (or $"+util.JournalDSNEnv+")")
	// log config
	flag.StringVar(&logLevel, "log-level", util.DefaultLogLevel, "Log level: debug, info, warn, error")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if version {
		printVersion()
		return 0
	}

	if help || flag.NArg() == 0 {
		printHelp()
		if help {
			return 0
		}
		return 2
	}

	config, err := loadConfiguration()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 2
	}

	// Creates a new Logger that uses a JSONHandler to write to the configured writer
	loggerOptions := &slog.HandlerOptions{
		AddSource: false,
		Level:     logLevelFromString(config.LogLevel),
	}
	logWriter := configureLogWriter(config.LogFile)
	if logWriter != os.Stderr {
		defer logWriter.Close()
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(logWriter, loggerOptions)))

	path := flag.Arg(0)

	if config.DumpAST {
		program, err := astio.LoadFile(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, runner.Describe(path, err))
			return 1
		}
		if err := astio.Encode(os.Stdout, program); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		return 0
	}

	ctx := context.Background()
	r := &runner.Runner{
		Config: config,
		Out:    os.Stdout,
	}

	if config.Journal.Enabled() {
		j, err := journal.Open(ctx, config.Journal.Driver, config.Journal.DSN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		defer j.Close()
		r.Journal = j
	}

	result, err := r.Run(ctx, path)
	if err != nil {
		fmt.Fprintln(os.Stderr, runner.Describe(path, err))
		return 1
	}
	fmt.Println(result.Inspect())
	return 0
}

// loadConfiguration layers defaults, the optional TOML file, explicitly set
// flags and finally the environment.
func loadConfiguration() (util.Configuration, error) {
	config := util.DefaultConfiguration()
	config.Version = Version
	config.BuildDate = BuildDate
	config.Commit = Commit

	if configFile != "" {
		if err := util.LoadFile(configFile, &config); err != nil {
			return config, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			config.LogLevel = logLevel
		case "log-file":
			config.LogFile = logFile
		case "max-depth":
			config.MaxDepth = maxDepth
		case "dump-ast":
			config.DumpAST = dumpAST
		case "journal-driver":
			config.Journal.Driver = journalDriver
		case "journal-dsn":
			config.Journal.DSN = journalDSN
		}
	})

	config.ApplyEnv(os.Getenv)
	return config, config.Validate()
}

func configureLogWriter(logFile string) *os.File {
	var logWriter *os.File
	var err error
	if logFile != "" {
		// Create parent directories if they don't exist
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create log directory for '%s': %v; falling back to stderr\n", logFile, err)
			return os.Stderr
		}
		logWriter, err = os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file '%s': %v; falling back to stderr\n", logFile, err)
			logWriter = os.Stderr
		}
	} else {
		logWriter = os.Stderr
	}
	return logWriter
}

func printVersion() {
	fmt.Printf("quill version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: quill [options] <ast-file>

Options:
  -config <path>          Load settings from a TOML file. Flags override file values.
  -max-depth <n>          Maximum nested function calls, 0 for unbounded. Default is %d.
  -dump-ast               Print the loaded AST as YAML instead of evaluating it.
  -journal-driver <name>  Record each run in a SQL database: sqlite3 or mysql.
  -journal-dsn <dsn>      Data source for the journal. Falls back to $%s.
  -log-level <level>      Set the log level: debug, info, warn, error. Default is 'error'.
  -log-file <path>        Specify a log file to write logs. Default is stderr.
  -help                   Display this help information and exit.
  -version                Display version information and exit.

Details:
quill evaluates a program supplied as an AST document (YAML or JSON) and
prints the value of its last statement.

Examples:
  quill program.yaml                                  Evaluate a document
  quill -dump-ast program.json                        Re-emit a JSON document as YAML
  quill -journal-driver=sqlite3 -journal-dsn=runs.db program.yaml

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, util.DefaultMaxDepth, util.JournalDSNEnv, Version, BuildDate, Commit)
}

func logLevelFromString(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelError
	}
}
