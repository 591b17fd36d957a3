package driver

import (
	"strings"
	"testing"
	"time"

	"github.com/FocuswithJustin/sqlexpress/core/sqlite"
)

func TestParseDSN(t *testing.T) {
	tests := []struct {
		name     string
		dsn      string
		location string
		flags    sqlite.OpenFlags
		busy     time.Duration
		cache    int
		extended bool
		begin    string
	}{
		{
			name:     "empty is memory",
			dsn:      "",
			location: sqlite.Memory,
			flags:    sqlite.OpenDefault,
			cache:    sqlite.DefaultStmtCacheSize,
			extended: true,
			begin:    "BEGIN",
		},
		{
			name:     "plain path",
			dsn:      "app.db",
			location: "app.db",
			flags:    sqlite.OpenDefault,
			cache:    sqlite.DefaultStmtCacheSize,
			extended: true,
			begin:    "BEGIN",
		},
		{
			name:     "read only",
			dsn:      "app.db?mode=ro",
			location: "app.db",
			flags:    sqlite.OpenReadOnly,
			cache:    sqlite.DefaultStmtCacheSize,
			extended: true,
			begin:    "BEGIN",
		},
		{
			name:     "read write without create",
			dsn:      "app.db?mode=rw",
			location: "app.db",
			flags:    sqlite.OpenReadWrite,
			cache:    sqlite.DefaultStmtCacheSize,
			extended: true,
			begin:    "BEGIN",
		},
		{
			name:     "memory mode",
			dsn:      "ignored.db?mode=memory",
			location: sqlite.Memory,
			flags:    sqlite.OpenDefault,
			cache:    sqlite.DefaultStmtCacheSize,
			extended: true,
			begin:    "BEGIN",
		},
		{
			name:     "driver params",
			dsn:      "app.db?_busy_timeout=250&_stmt_cache=0&_extended=0&_txlock=IMMEDIATE",
			location: "app.db",
			flags:    sqlite.OpenDefault,
			busy:     250 * time.Millisecond,
			cache:    0,
			extended: false,
			begin:    "BEGIN IMMEDIATE",
		},
		{
			name:     "shared cache exclusive",
			dsn:      "app.db?cache=shared&_exclusive=1",
			location: "app.db",
			flags:    sqlite.OpenDefault | sqlite.OpenSharedCache | sqlite.OpenExclusiveLock,
			cache:    sqlite.DefaultStmtCacheSize,
			extended: true,
			begin:    "BEGIN",
		},
		{
			name:     "uri keeps engine params",
			dsn:      "file:app.db?mode=ro&_busy_timeout=10&immutable=1",
			location: "file:app.db?immutable=1&mode=ro",
			flags:    sqlite.OpenReadOnly | sqlite.OpenURI,
			busy:     10 * time.Millisecond,
			cache:    sqlite.DefaultStmtCacheSize,
			extended: true,
			begin:    "BEGIN",
		},
		{
			name:     "uri memory",
			dsn:      "file:mem?mode=memory&cache=shared",
			location: "file:mem?cache=shared&mode=memory",
			flags:    sqlite.OpenDefault | sqlite.OpenURI | sqlite.OpenSharedCache,
			cache:    sqlite.DefaultStmtCacheSize,
			extended: true,
			begin:    "BEGIN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseDSN(tt.dsn)
			if err != nil {
				t.Fatalf("ParseDSN(%q) error = %v", tt.dsn, err)
			}
			if cfg.Location != tt.location {
				t.Errorf("Location = %q, want %q", cfg.Location, tt.location)
			}
			if cfg.Flags != tt.flags {
				t.Errorf("Flags = %v, want %v", cfg.Flags, tt.flags)
			}
			if cfg.BusyTimeout != tt.busy {
				t.Errorf("BusyTimeout = %v, want %v", cfg.BusyTimeout, tt.busy)
			}
			if cfg.StmtCache != tt.cache {
				t.Errorf("StmtCache = %d, want %d", cfg.StmtCache, tt.cache)
			}
			if cfg.Extended != tt.extended {
				t.Errorf("Extended = %v, want %v", cfg.Extended, tt.extended)
			}
			if got := txLocks[cfg.TxLock]; got != tt.begin {
				t.Errorf("begin = %q, want %q", got, tt.begin)
			}
		})
	}
}

func TestParseDSNErrors(t *testing.T) {
	tests := []struct {
		dsn  string
		want string
	}{
		{"app.db?mode=rwx", "invalid mode"},
		{"app.db?cache=global", "invalid cache"},
		{"app.db?_busy_timeout=soon", "invalid _busy_timeout"},
		{"app.db?_busy_timeout=-1", "invalid _busy_timeout"},
		{"app.db?_stmt_cache=-4", "invalid _stmt_cache"},
		{"app.db?_extended=maybe", "invalid _extended"},
		{"app.db?_exclusive=yes", "invalid _exclusive"},
		{"app.db?_txlock=eventually", "invalid _txlock"},
		{"app.db?%zz", "invalid DSN"},
		{"app.db?cache=shared&cache=private", ""},
	}

	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			_, err := ParseDSN(tt.dsn)
			if tt.want == "" {
				// Only the first value of a repeated key counts.
				if err != nil {
					t.Fatalf("ParseDSN(%q) error = %v", tt.dsn, err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ParseDSN(%q) succeeded, want error", tt.dsn)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %q, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestConfigOptions(t *testing.T) {
	cfg, err := ParseDSN("app.db?_busy_timeout=5")
	if err != nil {
		t.Fatal(err)
	}
	if got := len(cfg.options()); got != 3 {
		t.Errorf("len(options) = %d, want 3 with a busy timeout", got)
	}
	cfg.BusyTimeout = 0
	if got := len(cfg.options()); got != 2 {
		t.Errorf("len(options) = %d, want 2 without a busy timeout", got)
	}
}
