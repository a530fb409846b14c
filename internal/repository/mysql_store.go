package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/go-sql-driver/mysql"
    "github.com/google/uuid"
)

// MySQLStore is the persistent Store.  Every multi-row operation runs in
// a transaction and takes row locks with SELECT ... FOR UPDATE so the
// guarantees match MemoryStore.  All timestamps are stored in UTC.
type MySQLStore struct {
    db  *sql.DB
    now func() time.Time
}

// NewMySQLStore returns a MySQLStore bound to the given database.  The
// schema must already exist; see database.Migrate.
func NewMySQLStore(db *sql.DB) *MySQLStore {
    return &MySQLStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
    ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
    QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
    QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// inTx runs fn inside a transaction, committing when it returns nil.
func (s *MySQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
    tx, err := s.db.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    committed := false
    defer func() {
        if !committed {
            _ = tx.Rollback()
        }
    }()
    if err := fn(tx); err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    committed = true
    return nil
}

func isDuplicateKey(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == 1062
}

func newID() string { return uuid.NewString() }

// nullTime converts an optional timestamp for the driver.
func nullTime(t *time.Time) sql.NullTime {
    if t == nil {
        return sql.NullTime{}
    }
    return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
    if !nt.Valid {
        return nil
    }
    t := nt.Time.UTC()
    return &t
}
