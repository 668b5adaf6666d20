package util

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultLogLevel = "error"
	DefaultMaxDepth = 10000
	JournalDSNEnv   = "QUILL_JOURNAL_DSN"
)

type Configuration struct {
	Version   string `toml:"-"`
	BuildDate string `toml:"-"`
	Commit    string `toml:"-"`

	LogLevel string        `toml:"log_level"`
	LogFile  string        `toml:"log_file"`
	MaxDepth int           `toml:"max_depth"`
	DumpAST  bool          `toml:"dump_ast"`
	Journal  JournalConfig `toml:"journal"`
}

// JournalConfig selects where evaluation runs are recorded. An empty Driver
// disables the journal.
type JournalConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

func (j JournalConfig) Enabled() bool { return j.Driver != "" }

func DefaultConfiguration() Configuration {
	return Configuration{
		LogLevel: DefaultLogLevel,
		MaxDepth: DefaultMaxDepth,
	}
}

// LoadFile overlays the TOML file at path onto config. Unknown keys are
// rejected so typos do not silently fall back to defaults.
func LoadFile(path string, config *Configuration) error {
	md, err := toml.DecodeFile(path, config)
	if err != nil {
		return fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	return config.Validate()
}

// ApplyEnv fills settings that may come from the environment when the file
// and flags left them empty.
func (c *Configuration) ApplyEnv(getenv func(string) string) {
	if c.Journal.DSN == "" {
		c.Journal.DSN = getenv(JournalDSNEnv)
	}
}

func (c *Configuration) Validate() error {
	if c.MaxDepth < 0 {
		return fmt.Errorf("max_depth must not be negative, got %d", c.MaxDepth)
	}
	if c.Journal.Enabled() && c.Journal.DSN == "" {
		return fmt.Errorf("journal driver '%s' set without a dsn", c.Journal.Driver)
	}
	return nil
}
