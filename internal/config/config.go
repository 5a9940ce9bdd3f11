package config

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/leengari/tabular/internal/domain/errors"
)

// EnvConfigPath names the environment variable consulted when no --config flag is given
const EnvConfigPath = "TABULAR_CONFIG"

// Case-folding rules for --ignore-case
const (
	FoldASCII   = "ascii"
	FoldUnicode = "unicode"
)

// Config is the root of the TOML configuration file
type Config struct {
	Join ExecutionConfig `toml:"join"`
	Log  LogConfig       `toml:"log"`
}

// ExecutionConfig holds join execution parameters
type ExecutionConfig struct {
	Workers      int    `toml:"workers"`        // probe workers, 0 = runtime.NumCPU()
	BatchSize    int    `toml:"batch_size"`     // probe rows read per batch
	ShardMinRows int    `toml:"shard_min_rows"` // build sides this large are indexed in parallel shards
	CaseFold     string `toml:"case_fold"`      // "ascii" or "unicode"
	Delimiter    string `toml:"delimiter"`      // input field delimiter
}

// LogConfig controls the structured logger
type LogConfig struct {
	Level  string `toml:"level"`   // debug, info, warn, error
	SeqURL string `toml:"seq_url"` // optional Seq ingestion endpoint, empty disables it
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Join: DefaultExecutionConfig(),
		Log: LogConfig{
			Level: "warn",
		},
	}
}

// DefaultExecutionConfig returns default join execution parameters
func DefaultExecutionConfig() ExecutionConfig {
	return ExecutionConfig{
		Workers:      0,
		BatchSize:    4096,
		ShardMinRows: 65536,
		CaseFold:     FoldASCII,
		Delimiter:    ",",
	}
}

// Load reads the config file at path, falling back to $TABULAR_CONFIG.
// With neither set, the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError("config", path, err)
		}
		return nil, errors.NewUsageError("invalid config file %s: %v", path, err)
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.NewUsageError("unknown config keys in %s: %s", path, strings.Join(keys, ", "))
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value ranges after file and flag overrides are applied
func (c *Config) Validate() error {
	j := c.Join
	if j.Workers < 0 {
		return errors.NewUsageError("workers must be >= 0, got %d", j.Workers)
	}
	if j.BatchSize <= 0 {
		return errors.NewUsageError("batch size must be > 0, got %d", j.BatchSize)
	}
	if j.ShardMinRows < 0 {
		return errors.NewUsageError("shard_min_rows must be >= 0, got %d", j.ShardMinRows)
	}
	if j.CaseFold != FoldASCII && j.CaseFold != FoldUnicode {
		return errors.NewUsageError("case fold must be %q or %q, got %q", FoldASCII, FoldUnicode, j.CaseFold)
	}
	if _, err := ParseDelimiter(j.Delimiter); err != nil {
		return err
	}
	return nil
}

// NumWorkers returns the effective worker count
func (c ExecutionConfig) NumWorkers() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.NumCPU()
}

// ParseDelimiter converts a delimiter flag value into a single rune.
// `\t` and "tab" are accepted for tab-separated data.
func ParseDelimiter(s string) (rune, error) {
	switch s {
	case `\t`, "tab":
		return '\t', nil
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, errors.NewUsageError("delimiter must be a single character, got %q", s)
	}
	if r[0] == '"' || r[0] == '\r' || r[0] == '\n' {
		return 0, errors.NewUsageError("delimiter %q is not allowed", s)
	}
	return r[0], nil
}

func (c ExecutionConfig) String() string {
	return fmt.Sprintf("workers=%d batch_size=%d shard_min_rows=%d case_fold=%s",
		c.NumWorkers(), c.BatchSize, c.ShardMinRows, c.CaseFold)
}
