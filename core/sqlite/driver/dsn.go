package driver

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/FocuswithJustin/sqlexpress/core/sqlite"
)

// Config is a parsed data source name.
//
// A DSN is a file path, ":memory:", or a "file:" URI, optionally followed by
// query parameters:
//
//	mode=ro|rw|rwc|memory   open mode (default rwc)
//	cache=shared|private    cache sharing
//	_busy_timeout=MS        wait MS milliseconds on locks
//	_stmt_cache=N           prepared statement cache size per connection
//	_extended=0|1           extended result codes (default 1)
//	_txlock=deferred|immediate|exclusive
//	_exclusive=1            hold the file lock for the connection's lifetime
//
// Parameters starting with "_" are consumed here; the rest are passed
// through to the engine when the location is a "file:" URI.
type Config struct {
	Location    string
	Flags       sqlite.OpenFlags
	BusyTimeout time.Duration
	StmtCache   int
	Extended    bool
	TxLock      string
}

var txLocks = map[string]string{
	"":          "BEGIN",
	"deferred":  "BEGIN DEFERRED",
	"immediate": "BEGIN IMMEDIATE",
	"exclusive": "BEGIN EXCLUSIVE",
}

// ParseDSN parses name into a Config.
func ParseDSN(name string) (*Config, error) {
	cfg := &Config{
		Flags:     sqlite.OpenDefault,
		StmtCache: sqlite.DefaultStmtCacheSize,
		Extended:  true,
	}

	path, rawQuery, _ := strings.Cut(name, "?")
	q, err := url.ParseQuery(rawQuery)
	if err != nil {
		return nil, fmt.Errorf("sqlexpress: invalid DSN %q: %w", name, err)
	}

	isURI := strings.HasPrefix(path, "file:")
	if isURI {
		cfg.Flags |= sqlite.OpenURI
	}

	switch mode := q.Get("mode"); mode {
	case "", "rwc":
	case "rw":
		cfg.Flags = cfg.Flags&^sqlite.OpenCreate | sqlite.OpenReadWrite
	case "ro":
		cfg.Flags = cfg.Flags&^(sqlite.OpenReadWrite|sqlite.OpenCreate) | sqlite.OpenReadOnly
	case "memory":
		if !isURI {
			path = sqlite.Memory
		}
	default:
		return nil, fmt.Errorf("sqlexpress: invalid mode %q", mode)
	}

	switch c := q.Get("cache"); c {
	case "":
	case "shared":
		cfg.Flags |= sqlite.OpenSharedCache
	case "private":
		cfg.Flags |= sqlite.OpenPrivateCache
	default:
		return nil, fmt.Errorf("sqlexpress: invalid cache %q", c)
	}

	if v := q.Get("_busy_timeout"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms < 0 {
			return nil, fmt.Errorf("sqlexpress: invalid _busy_timeout %q", v)
		}
		cfg.BusyTimeout = time.Duration(ms) * time.Millisecond
	}
	if v := q.Get("_stmt_cache"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("sqlexpress: invalid _stmt_cache %q", v)
		}
		cfg.StmtCache = n
	}
	if v := q.Get("_extended"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("sqlexpress: invalid _extended %q", v)
		}
		cfg.Extended = on
	}
	if v := q.Get("_exclusive"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("sqlexpress: invalid _exclusive %q", v)
		}
		if on {
			cfg.Flags |= sqlite.OpenExclusiveLock
		}
	}
	cfg.TxLock = strings.ToLower(q.Get("_txlock"))
	if _, ok := txLocks[cfg.TxLock]; !ok {
		return nil, fmt.Errorf("sqlexpress: invalid _txlock %q", cfg.TxLock)
	}

	switch {
	case isURI:
		for k := range q {
			if strings.HasPrefix(k, "_") {
				q.Del(k)
			}
		}
		cfg.Location = path
		if len(q) > 0 {
			cfg.Location += "?" + q.Encode()
		}
	case path == "":
		cfg.Location = sqlite.Memory
	default:
		cfg.Location = path
	}

	if err := cfg.Flags.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// options turns the config into sqlite.Open options.
func (c *Config) options() []sqlite.Option {
	opts := []sqlite.Option{
		sqlite.WithExtendedCodes(c.Extended),
		sqlite.WithStmtCacheSize(c.StmtCache),
	}
	if c.BusyTimeout > 0 {
		opts = append(opts, sqlite.WithBusyTimeout(c.BusyTimeout))
	}
	return opts
}
