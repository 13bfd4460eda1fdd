package storage

import (
	"database/sql"
	_ "embed"
	"fmt"

	"github.com/google/uuid"

	"github.com/pable/go-fm-metrics/internal/model"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// RecordStore is the table-level contract the analytics engine reads from and
// the CLI/server write through. Write* replaces a table, Append* adds rows.
// Every successful write advances Revision.
type RecordStore interface {
	Squad() ([]model.PlayerRecord, error)
	Transfers() ([]model.TransferRecord, error)
	MatchStats() ([]model.MatchStatRecord, error)

	WriteSquad([]model.PlayerRecord) error
	WriteTransfers([]model.TransferRecord) error
	WriteMatchStats([]model.MatchStatRecord) error

	AppendSquad(...model.PlayerRecord) error
	AppendTransfers(...model.TransferRecord) error
	AppendMatchStats(...model.MatchStatRecord) error

	Revision() (int64, error)
	// StoreID identifies the store across processes. Two stores never share
	// an id, even at equal revisions.
	StoreID() (string, error)
}

// DB is the SQLite-backed RecordStore.
type DB struct {
	conn *sql.DB
}

var _ RecordStore = (*DB)(nil)

// Open opens (or creates) the SQLite database at the given path and applies the schema.
func Open(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// One writer at a time; also keeps a :memory: database on a single connection.
	conn.SetMaxOpenConns(1)
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	if _, err := conn.Exec(`INSERT OR IGNORE INTO store_info(key, value) VALUES ('store_id', ?)`, uuid.NewString()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init store id: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Revision returns the store's write counter.
func (db *DB) Revision() (int64, error) {
	var rev int64
	err := db.conn.QueryRow(`SELECT value FROM store_meta WHERE key = 'revision'`).Scan(&rev)
	if err != nil {
		return 0, fmt.Errorf("read revision: %w", err)
	}
	return rev, nil
}

// StoreID returns the id generated when the database file was created.
func (db *DB) StoreID() (string, error) {
	var id string
	err := db.conn.QueryRow(`SELECT value FROM store_info WHERE key = 'store_id'`).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("read store id: %w", err)
	}
	return id, nil
}

func bumpRevision(tx *sql.Tx) error {
	_, err := tx.Exec(`UPDATE store_meta SET value = value + 1 WHERE key = 'revision'`)
	if err != nil {
		return fmt.Errorf("bump revision: %w", err)
	}
	return nil
}
