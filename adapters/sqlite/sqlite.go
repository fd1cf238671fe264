// Package sqlite is an entity.Adapter that stores instances in SQLite.
//
// Each class maps to a table named by its data name for the adapter. A row
// holds the instance ID, the name of its class and a msgpack-encoded map from
// attribute data names to attribute data values.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/CaliLuke/go-entity/entity"
)

// DefaultName is the adapter name used to resolve data names.
const DefaultName = "sqlite"

// ErrNotFound is returned when no row exists for an instance.
var ErrNotFound = errors.New("sqlite: record not found")

// Adapter persists entity instances in a SQLite database.
type Adapter struct {
	db     *sql.DB
	name   string
	logger *zap.Logger

	mu     sync.Mutex
	tables map[string]bool
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithName sets the adapter name used for data name lookups.
func WithName(name string) Option {
	return func(a *Adapter) {
		if name != "" {
			a.name = name
		}
	}
}

// WithLogger sets the adapter logger.
func WithLogger(l *zap.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// Open opens the database at dsn. An in-memory database is limited to one
// connection so every query sees the same data.
func Open(ctx context.Context, dsn string, opts ...Option) (*Adapter, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: open")
	}
	if dsn == ":memory:" || strings.Contains(dsn, "mode=memory") {
		db.SetMaxOpenConns(1)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "sqlite: set busy timeout")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "sqlite: ping")
	}
	a := New(db, opts...)
	a.logger.Debug("database opened", zap.String("dsn", dsn))
	return a, nil
}

// New wraps an open database.
func New(db *sql.DB, opts ...Option) *Adapter {
	a := &Adapter{
		db:     db,
		name:   DefaultName,
		logger: zap.NewNop(),
		tables: map[string]bool{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name returns the adapter name.
func (a *Adapter) Name() string { return a.name }

// DB returns the underlying database.
func (a *Adapter) DB() *sql.DB { return a.db }

// Close closes the database.
func (a *Adapter) Close() error { return a.db.Close() }

// InsertObject stores inst, replacing a previous row with the same ID.
func (a *Adapter) InsertObject(ctx context.Context, inst *entity.Instance) error {
	class := inst.Entity()
	table := class.DataName(a.name)
	if err := a.ensureTable(ctx, table); err != nil {
		return err
	}
	data, err := a.encode(inst)
	if err != nil {
		return err
	}
	_, err = a.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO "+quoteIdent(table)+" (id, entity, data) VALUES (?, ?, ?)",
		inst.ID(), class.Name(), data,
	)
	if err != nil {
		return errors.Wrapf(err, "sqlite: insert into %s", table)
	}
	a.logger.Debug("object inserted",
		zap.String("table", table),
		zap.String("entity", class.Name()),
		zap.String("id", inst.ID()),
	)
	return nil
}

// LoadAttribute reads the stored value of attr and hydrates inst with it.
func (a *Adapter) LoadAttribute(ctx context.Context, inst *entity.Instance, attr *entity.Attribute) error {
	_, rec, err := a.read(ctx, inst.Entity(), inst.ID())
	if err != nil {
		return err
	}
	raw, ok := rec[attr.GetDataName(a.name)]
	if !ok {
		return inst.Hydrate(map[string]any{attr.Name(): nil})
	}
	v, err := attr.ParseDataValue(raw)
	if err != nil {
		return errors.Wrapf(err, "sqlite: parse %s", attr.Name())
	}
	return inst.Hydrate(map[string]any{attr.Name(): v})
}

// DeleteObject removes the row of inst.
func (a *Adapter) DeleteObject(ctx context.Context, inst *entity.Instance) error {
	table := inst.Entity().DataName(a.name)
	if err := a.ensureTable(ctx, table); err != nil {
		return err
	}
	res, err := a.db.ExecContext(ctx, "DELETE FROM "+quoteIdent(table)+" WHERE id = ?", inst.ID())
	if err != nil {
		return errors.Wrapf(err, "sqlite: delete from %s", table)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return errors.Wrapf(ErrNotFound, "%s %s", inst.Entity().Name(), inst.ID())
	}
	return nil
}

// Find restores the instance with the given ID from the table of class.
// The instance's class is the stored class when it is class or one of its
// specializations.
func (a *Adapter) Find(ctx context.Context, class *entity.Class, id string) (*entity.Instance, error) {
	stored, rec, err := a.read(ctx, class, id)
	if err != nil {
		return nil, err
	}
	return a.restore(class, stored, id, rec)
}

// List restores every instance stored in the table of class, ordered by ID.
func (a *Adapter) List(ctx context.Context, class *entity.Class) ([]*entity.Instance, error) {
	table := class.DataName(a.name)
	if err := a.ensureTable(ctx, table); err != nil {
		return nil, err
	}
	rows, err := a.db.QueryContext(ctx, "SELECT id, entity, data FROM "+quoteIdent(table)+" ORDER BY id")
	if err != nil {
		return nil, errors.Wrapf(err, "sqlite: list %s", table)
	}
	defer rows.Close()

	var out []*entity.Instance
	for rows.Next() {
		var id, stored string
		var data []byte
		if err := rows.Scan(&id, &stored, &data); err != nil {
			return nil, errors.Wrap(err, "sqlite: scan")
		}
		rec, err := decode(data)
		if err != nil {
			return nil, err
		}
		inst, err := a.restore(class, stored, id, rec)
		if err != nil {
			return nil, err
		}
		out = append(out, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "sqlite: rows")
	}
	return out, nil
}

func (a *Adapter) restore(class *entity.Class, stored, id string, rec map[string]any) (*entity.Instance, error) {
	target, err := class.GetSpecialization(stored)
	if err != nil {
		return nil, errors.Wrapf(err, "sqlite: row %s", id)
	}
	values := make(map[string]any, len(rec))
	for _, attr := range target.Attributes().All() {
		raw, ok := rec[attr.GetDataName(a.name)]
		if !ok {
			continue
		}
		v, err := attr.ParseDataValue(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "sqlite: parse %s.%s", target.Name(), attr.Name())
		}
		values[attr.Name()] = v
	}
	return target.Restore(id, values)
}

func (a *Adapter) read(ctx context.Context, class *entity.Class, id string) (string, map[string]any, error) {
	table := class.DataName(a.name)
	if err := a.ensureTable(ctx, table); err != nil {
		return "", nil, err
	}
	var stored string
	var data []byte
	err := a.db.QueryRowContext(ctx,
		"SELECT entity, data FROM "+quoteIdent(table)+" WHERE id = ?", id,
	).Scan(&stored, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, errors.Wrapf(ErrNotFound, "%s %s", class.Name(), id)
	}
	if err != nil {
		return "", nil, errors.Wrapf(err, "sqlite: read %s", table)
	}
	rec, err := decode(data)
	if err != nil {
		return "", nil, err
	}
	return stored, rec, nil
}

func (a *Adapter) encode(inst *entity.Instance) ([]byte, error) {
	rec := make(map[string]any)
	for _, attr := range inst.Entity().Attributes().All() {
		v, ok := inst.Lookup(attr.Name())
		if !ok {
			continue
		}
		dv, err := attr.GetDataValue(v)
		if err != nil {
			return nil, errors.Wrapf(err, "sqlite: encode %s", attr.Name())
		}
		rec[attr.GetDataName(a.name)] = dv
	}
	data, err := msgpack.Marshal(rec)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: encode record")
	}
	return data, nil
}

func decode(data []byte) (map[string]any, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.UseLooseInterfaceDecoding(true)
	var rec map[string]any
	if err := dec.Decode(&rec); err != nil {
		return nil, errors.Wrap(err, "sqlite: decode record")
	}
	return rec, nil
}

func (a *Adapter) ensureTable(ctx context.Context, table string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.tables[table] {
		return nil
	}
	_, err := a.db.ExecContext(ctx, "CREATE TABLE IF NOT EXISTS "+quoteIdent(table)+
		" (id TEXT PRIMARY KEY, entity TEXT NOT NULL, data BLOB NOT NULL)")
	if err != nil {
		return errors.Wrapf(err, "sqlite: create table %s", table)
	}
	a.tables[table] = true
	return nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
