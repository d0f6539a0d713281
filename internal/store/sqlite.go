package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	_ "modernc.org/sqlite"

	"github.com/affiliateai/copilot/internal/credential"
)

const secretPrefix = "secret."

type SQLiteStore struct {
	db      *sql.DB
	secrets *credential.Manager
}

// NewSQLiteStore opens (or creates) the library database at dbPath. Secrets
// written through SetSecret are encrypted with the given manager; a nil
// manager stores them in the clear.
func NewSQLiteStore(dbPath string, secrets *credential.Manager) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &SQLiteStore{
		db:      db,
		secrets: secrets,
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS contents (
			id TEXT PRIMARY KEY,
			kind TEXT,
			topic TEXT,
			title TEXT,
			body TEXT,
			provider TEXT,
			metadata TEXT,
			created_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS chat_sessions (
			id TEXT PRIMARY KEY,
			provider TEXT,
			module TEXT,
			turns INTEGER,
			started_at DATETIME,
			updated_at DATETIME
		);`,
		`CREATE TABLE IF NOT EXISTS configuration (
			key TEXT PRIMARY KEY,
			value TEXT
		);`,
	}

	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return fmt.Errorf("failed to init schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Content Library Implementation

func (s *SQLiteStore) SaveContent(rec *ContentRecord) error {
	metaJSON, err := json.Marshal(rec.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `INSERT INTO contents (id, kind, topic, title, body, provider, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET kind = excluded.kind, topic = excluded.topic,
			title = excluded.title, body = excluded.body, provider = excluded.provider,
			metadata = excluded.metadata`
	_, err = s.db.Exec(query, rec.ID, rec.Kind, rec.Topic, rec.Title, rec.Body, rec.Provider, string(metaJSON), rec.CreatedAt)
	return err
}

func (s *SQLiteStore) GetContent(id string) (*ContentRecord, error) {
	query := `SELECT id, kind, topic, title, body, provider, metadata, created_at FROM contents WHERE id = ?`
	row := s.db.QueryRow(query, id)

	rec, err := scanContent(row.Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("content not found: %s", id)
		}
		return nil, err
	}
	return rec, nil
}

func (s *SQLiteStore) ListContent(pattern string) ([]*ContentRecord, error) {
	query := `SELECT id, kind, topic, title, body, provider, metadata, created_at FROM contents ORDER BY created_at DESC`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*ContentRecord
	for rows.Next() {
		rec, err := scanContent(rows.Scan)
		if err != nil {
			return nil, err
		}
		if pattern != "" {
			ok, err := doublestar.Match(pattern, rec.Kind+"/"+Slug(rec.Topic))
			if err != nil {
				return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
			}
			if !ok {
				continue
			}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) DeleteContent(id string) error {
	res, err := s.db.Exec(`DELETE FROM contents WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("content not found: %s", id)
	}
	return nil
}

func scanContent(scan func(dest ...any) error) (*ContentRecord, error) {
	var rec ContentRecord
	var metaJSON string
	if err := scan(&rec.ID, &rec.Kind, &rec.Topic, &rec.Title, &rec.Body, &rec.Provider, &metaJSON, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(metaJSON), &rec.Metadata); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
	}
	return &rec, nil
}

// Slug normalizes a topic for glob matching: lowercase, word runs joined by dashes.
func Slug(topic string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(topic) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Chat Session Implementation

func (s *SQLiteStore) SaveChatSession(sess *ChatSession) error {
	query := `INSERT INTO chat_sessions (id, provider, module, turns, started_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET provider = excluded.provider, module = excluded.module,
			turns = excluded.turns, updated_at = excluded.updated_at`
	_, err := s.db.Exec(query, sess.ID, sess.Provider, sess.Module, sess.Turns, sess.StartedAt, time.Now())
	return err
}

func (s *SQLiteStore) ListChatSessions() ([]*ChatSession, error) {
	query := `SELECT id, provider, module, turns, started_at, updated_at FROM chat_sessions ORDER BY started_at DESC`
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*ChatSession
	for rows.Next() {
		var sess ChatSession
		if err := rows.Scan(&sess.ID, &sess.Provider, &sess.Module, &sess.Turns, &sess.StartedAt, &sess.UpdatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, &sess)
	}
	return sessions, rows.Err()
}

// Configuration Implementation

func (s *SQLiteStore) SetConfig(key, value string) error {
	query := `INSERT INTO configuration (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	_, err := s.db.Exec(query, key, value)
	return err
}

func (s *SQLiteStore) GetConfig(key string) (string, error) {
	query := `SELECT value FROM configuration WHERE key = ?`
	row := s.db.QueryRow(query, key)
	var value string
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return "", nil
		}
		return "", err
	}
	return value, nil
}

// Secret Implementation

func (s *SQLiteStore) SetSecret(key, value string) error {
	if s.secrets != nil {
		enc, err := s.secrets.Encrypt(value)
		if err != nil {
			return fmt.Errorf("failed to encrypt secret: %w", err)
		}
		value = enc
	}
	return s.SetConfig(secretPrefix+key, value)
}

func (s *SQLiteStore) GetSecret(key string) (string, error) {
	value, err := s.GetConfig(secretPrefix + key)
	if err != nil || value == "" {
		return "", err
	}
	if s.secrets != nil {
		return s.secrets.Decrypt(value)
	}
	return value, nil
}
