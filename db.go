package worm

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/syssam/worm/config"
	"github.com/syssam/worm/dialect"
	"github.com/syssam/worm/dialect/sql"
)

// DB is a database context. It owns one physical connection and the
// registry of databases attached to it. Operations borrow the connection
// for the duration of the call and are serialized.
type DB struct {
	mu       sync.Mutex
	drv      dialect.Driver
	stats    *sql.StatsDriver
	attached map[string]string
	log      *slog.Logger
}

type options struct {
	logger        *slog.Logger
	debug         bool
	slowThreshold time.Duration
	attach        []config.Attachment
}

// Option configures a DB.
type Option func(*options) error

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) error {
		if l == nil {
			return NewConfigError("", "", "logger cannot be nil", nil)
		}
		o.logger = l
		return nil
	}
}

// WithDebug logs every statement at debug level.
func WithDebug() Option {
	return func(o *options) error {
		o.debug = true
		return nil
	}
}

// WithSlowThreshold sets the duration above which statements are logged
// as slow.
func WithSlowThreshold(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return NewConfigError("", "", fmt.Sprintf("negative slow threshold %s", d), nil)
		}
		o.slowThreshold = d
		return nil
	}
}

// WithAttachments attaches the databases when the context is opened.
func WithAttachments(as ...config.Attachment) Option {
	return func(o *options) error {
		o.attach = append(o.attach, as...)
		return nil
	}
}

// Open opens the store with the database/sql driver name and source, and
// returns a context bound to one of its connections.
func Open(ctx context.Context, driverName, source string, opts ...Option) (*DB, error) {
	drv, err := sql.Open(ctx, driverName, source)
	if err != nil {
		return nil, err
	}
	db, err := NewDB(ctx, drv, opts...)
	if err != nil {
		_ = drv.Close()
		return nil, err
	}
	return db, nil
}

// OpenConfig opens a context from a config.
func OpenConfig(ctx context.Context, c *config.Config, opts ...Option) (*DB, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	base := []Option{WithSlowThreshold(c.SlowThreshold), WithAttachments(c.Attach...)}
	if c.Debug {
		base = append(base, WithDebug())
	}
	return Open(ctx, c.Driver, c.DSN, append(base, opts...)...)
}

// NewDB returns a context over an already opened driver. The context takes
// ownership of the driver.
func NewDB(ctx context.Context, drv dialect.Driver, opts ...Option) (*DB, error) {
	o := &options{
		logger:        slog.Default(),
		slowThreshold: config.DefaultSlowThreshold,
	}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	if o.debug {
		drv = sql.NewDebugDriver(drv, o.logger)
	}
	stats := sql.NewStatsDriver(drv,
		sql.WithSlowThreshold(o.slowThreshold),
		sql.WithSlowQueryLog(o.logger),
	)
	db := &DB{
		drv:      stats,
		stats:    stats,
		attached: make(map[string]string),
		log:      o.logger,
	}
	for _, a := range o.attach {
		if err := db.Attach(ctx, a.Name, a.Path); err != nil {
			return nil, err
		}
	}
	return db, nil
}

// Attach attaches the store at path under the logical name.
func (db *DB) Attach(ctx context.Context, name, path string) error {
	if !sql.IsValidIdentifier(name) {
		return NewConfigError("", "", fmt.Sprintf("invalid database name %q", name), nil)
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	if p, ok := db.attached[name]; ok {
		return NewConfigError("", "", fmt.Sprintf("database %q already attached at %s", name, p), nil)
	}
	query := fmt.Sprintf("ATTACH DATABASE :path AS %s", name)
	if err := db.drv.Exec(ctx, query, []any{sql.Named("path", path)}, nil); err != nil {
		return fmt.Errorf("worm: attach %s: %w", name, err)
	}
	db.attached[name] = path
	db.log.InfoContext(ctx, "database attached", "name", name, "path", path)
	return nil
}

// Detach detaches the logical database.
func (db *DB) Detach(ctx context.Context, name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	if _, ok := db.attached[name]; !ok {
		return NewConfigError("", "", fmt.Sprintf("database %q is not attached", name), nil)
	}
	if err := db.drv.Exec(ctx, fmt.Sprintf("DETACH DATABASE %s", name), []any{}, nil); err != nil {
		return fmt.Errorf("worm: detach %s: %w", name, err)
	}
	delete(db.attached, name)
	db.log.InfoContext(ctx, "database detached", "name", name)
	return nil
}

// Attached returns a copy of the logical name to path registry.
func (db *DB) Attached() map[string]string {
	db.mu.Lock()
	defer db.mu.Unlock()
	return maps.Clone(db.attached)
}

// Stats returns a snapshot of the statement statistics.
func (db *DB) Stats() sql.StatsSnapshot {
	return db.stats.QueryStats().Stats()
}

// Close closes the connection.
func (db *DB) Close() error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.drv.Close()
}

// exec runs fn with exclusive use of the connection.
func (db *DB) exec(fn func(dialect.Driver) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(db.drv)
}
