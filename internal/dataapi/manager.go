package dataapi

import (
	"context"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/service/rdsdata"

	"aurora-dataapi/internal/typecast"
)

// Manager gives a connection pool connect/validate/disconnect semantics over
// the stateless Data API. Connect is the only operation that performs I/O.
type Manager struct {
	dialect   Dialect
	config    Config
	newClient ClientFactory
	parsers   *typecast.Registry
}

// Option configures a Manager.
type Option func(*Manager)

// WithClientFactory replaces the default rdsdata client factory.
func WithClientFactory(f ClientFactory) Option {
	return func(m *Manager) {
		if f != nil {
			m.newClient = f
		}
	}
}

// NewManager builds a manager for dialect. It defaults engine.Port and
// installs the dialect's type parsers into a registry owned by the manager.
// No network call is made.
func NewManager(dialect Dialect, engine Config, opts ...Option) *Manager {
	if engine.Port == 0 {
		engine.Port = dialect.DefaultPort
	}
	m := &Manager{
		dialect:   dialect,
		config:    engine,
		newClient: NewRDSDataClient,
		parsers:   typecast.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.installParsers()
	return m
}

func (m *Manager) installParsers() {
	if m.dialect.Parsers != nil {
		m.parsers.Install(m.dialect.Parsers())
	}
}

// Dialect returns the dialect the manager was built for.
func (m *Manager) Dialect() Dialect {
	return m.dialect
}

// Config returns the engine config with defaults applied.
func (m *Manager) Config() Config {
	return m.config
}

// Connect builds a Connection bound to cfg.DialectOptions and probes it once.
// A probe failure is returned as a *ConnectionError wrapping the raw error.
func (m *Manager) Connect(ctx context.Context, cfg Config) (*Connection, error) {
	opts := cfg.DialectOptions
	conn := newConnection(m.newClient(opts.AWSConfig), opts)

	slog.Debug("Probing Data API", "dialect", m.dialect.Name, "resource", opts.ResourceArn, "database", opts.Database)
	if _, err := conn.Query(ctx, Request{SQL: m.dialect.ProbeSQL}); err != nil {
		cerr := Classify(err)
		slog.Warn("Data API probe failed",
			"dialect", m.dialect.Name,
			"resource", opts.ResourceArn,
			"kind", cerr.Kind.String(),
			"code", cerr.Code,
			"error", err,
		)
		return nil, cerr
	}

	slog.Info("Data API connection established", "dialect", m.dialect.Name, "resource", opts.ResourceArn)
	return conn, nil
}

// ConnectResult is the single value delivered by ConnectAsync.
type ConnectResult struct {
	Conn *Connection
	Err  error
}

// ConnectAsync runs Connect in the background. The returned channel receives
// exactly one result and is then closed.
func (m *Manager) ConnectAsync(ctx context.Context, cfg Config) <-chan ConnectResult {
	resChan := make(chan ConnectResult, 1)
	go func() {
		defer close(resChan)
		conn, err := m.Connect(ctx, cfg)
		resChan <- ConnectResult{Conn: conn, Err: err}
	}()
	return resChan
}

// Disconnect is a no-op: there is no socket to tear down. It accepts nil.
func (m *Manager) Disconnect(_ context.Context, _ *Connection) error {
	return nil
}

// Validate returns conn unchanged without probing. A Data API handle carries
// no session that could go stale between calls.
func (m *Manager) Validate(conn *Connection) *Connection {
	return conn
}

// RefreshTypeParser installs or overrides the decoder for typeID.
func (m *Manager) RefreshTypeParser(typeID string, fn typecast.DecodeFunc) {
	m.parsers.Refresh(typeID, fn)
}

// ClearTypeParsers removes every decoder, including the dialect defaults.
func (m *Manager) ClearTypeParsers() {
	m.parsers.Clear()
}

// TypeParsers exposes the manager-scoped registry.
func (m *Manager) TypeParsers() *typecast.Registry {
	return m.parsers
}

// Decode converts a statement result using the manager's type parsers.
func (m *Manager) Decode(out *rdsdata.ExecuteStatementOutput, opts typecast.Options) (*Rows, error) {
	return Decode(out, m.parsers, opts)
}
