package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// SQLiteStore keeps every slot as one row of the slots table
type SQLiteStore struct {
	conn *sqlx.DB
}

type slotRow struct {
	Key       string `db:"key"`
	Data      []byte `db:"data"`
	UpdatedAt int64  `db:"updated_at"`
}

// OpenSQLiteStore opens or creates the database at path
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	conn, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	s := &SQLiteStore{conn: conn}
	if err := s.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	_, err := s.conn.Exec(`
	CREATE TABLE IF NOT EXISTS slots (
		key TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		updated_at INTEGER NOT NULL
	)`)
	return err
}

func (s *SQLiteStore) Close() error {
	return s.conn.Close()
}

func (s *SQLiteStore) Save(key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if data == nil {
		data = []byte{}
	}
	_, err := s.conn.Exec(
		"INSERT OR REPLACE INTO slots (key, data, updated_at) VALUES (?, ?, ?)",
		key, data, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save slot %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Load(key string) ([]byte, error) {
	var row slotRow
	err := s.conn.Get(&row, "SELECT key, data, updated_at FROM slots WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load slot %s: %w", key, err)
	}
	return row.Data, nil
}

func (s *SQLiteStore) Exists(key string) bool {
	var count int
	if err := s.conn.Get(&count, "SELECT COUNT(*) FROM slots WHERE key = ?", key); err != nil {
		return false
	}
	return count > 0
}

func (s *SQLiteStore) Delete(key string) error {
	result, err := s.conn.Exec("DELETE FROM slots WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("delete slot %s: %w", key, err)
	}
	n, err := result.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return err
}

func (s *SQLiteStore) Keys() ([]string, error) {
	var keys []string
	if err := s.conn.Select(&keys, "SELECT key FROM slots ORDER BY key"); err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return keys, nil
}
