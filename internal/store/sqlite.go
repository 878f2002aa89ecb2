package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	source TEXT NOT NULL DEFAULT '',
	position INTEGER NOT NULL,
	original_text TEXT NOT NULL,
	translated_text TEXT,
	translated_at TEXT
);

CREATE INDEX IF NOT EXISTS idx_records_position ON records(position);

CREATE TABLE IF NOT EXISTS tags (
	record_id TEXT NOT NULL,
	tag TEXT NOT NULL,
	PRIMARY KEY (record_id, tag),
	FOREIGN KEY (record_id) REFERENCES records(id) ON DELETE CASCADE
);
`

// SQLite is a Store backed by a single database file.
type SQLite struct {
	db *sql.DB
}

var _ Store = (*SQLite)(nil)

// Open opens or creates the database at path and applies the schema.
func Open(path string) (*SQLite, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on&_txlock=immediate"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Import(ctx context.Context, recs []NewRecord) ([]string, error) {
	var ids []string
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		var err error
		ids, err = insertRecords(ctx, tx, recs)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("import records: %w", err)
	}
	return ids, nil
}

func (s *SQLite) ReplaceSource(ctx context.Context, source string, recs []NewRecord) ([]string, int64, error) {
	var (
		ids     []string
		removed int64
	)
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM records WHERE source = ?", source)
		if err != nil {
			return err
		}
		removed, _ = res.RowsAffected()
		for i := range recs {
			recs[i].Source = source
		}
		ids, err = insertRecords(ctx, tx, recs)
		return err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("replace records of %s: %w", source, err)
	}
	return ids, removed, nil
}

func insertRecords(ctx context.Context, tx *sql.Tx, recs []NewRecord) ([]string, error) {
	var next int
	if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(position), -1) + 1 FROM records").Scan(&next); err != nil {
		return nil, err
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO records (id, name, source, position, original_text) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	ids := make([]string, 0, len(recs))
	for i, r := range recs {
		id := uuid.NewString()
		if _, err := stmt.ExecContext(ctx, id, r.Name, r.Source, next+i, r.Text); err != nil {
			return nil, fmt.Errorf("insert %q: %w", r.Name, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *SQLite) Records(ctx context.Context, ids ...string) ([]Record, error) {
	query := "SELECT id, name, source, position, original_text, translated_text, translated_at FROM records"
	args := make([]any, 0, len(ids))
	if len(ids) > 0 {
		query += " WHERE id IN (" + strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",") + ")"
		for _, id := range ids {
			args = append(args, id)
		}
	}
	query += " ORDER BY position ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var translated, at sql.NullString
		if err := rows.Scan(&r.ID, &r.Name, &r.Source, &r.Position, &r.OriginalText, &translated, &at); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.TranslatedText = translated.String
		if at.Valid {
			r.TranslatedAt, _ = time.Parse(time.RFC3339Nano, at.String)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	if err := checkMissing(ids, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLite) Tags(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT tag FROM tags WHERE record_id = ? ORDER BY tag", id)
	if err != nil {
		return nil, fmt.Errorf("query tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

func (s *SQLite) TagCounts(ctx context.Context, prefix string) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT tag, COUNT(*) FROM tags WHERE substr(tag, 1, length(?)) = ? GROUP BY tag",
		prefix, prefix,
	)
	if err != nil {
		return nil, fmt.Errorf("count tags: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var tag string
		var n int
		if err := rows.Scan(&tag, &n); err != nil {
			return nil, err
		}
		counts[tag] = n
	}
	return counts, rows.Err()
}

func (s *SQLite) Reset(ctx context.Context, prefix string) (int64, error) {
	var removed int64
	err := s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, "DELETE FROM tags WHERE substr(tag, 1, length(?)) = ?", prefix, prefix)
		if err != nil {
			return err
		}
		removed, _ = res.RowsAffected()
		_, err = tx.ExecContext(ctx, "UPDATE records SET translated_text = NULL, translated_at = NULL")
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("reset: %w", err)
	}
	return removed, nil
}

// WithWriteAccess holds one IMMEDIATE transaction for the whole of fn. The
// transaction is detached from ctx cancellation so an interrupted batch still
// commits the records it finished.
func (s *SQLite) WithWriteAccess(ctx context.Context, fn func(Session) error) (err error) {
	tx, err := s.db.BeginTx(context.WithoutCancel(ctx), nil)
	if err != nil {
		return fmt.Errorf("begin write access: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
		if err != nil {
			tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("commit write access: %w", cerr)
		}
	}()
	return fn(&sqliteSession{tx: tx})
}

func (s *SQLite) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

type sqliteSession struct {
	tx *sql.Tx
}

func (s *sqliteSession) OriginalText(ctx context.Context, id string) (string, error) {
	var text string
	err := s.tx.QueryRowContext(ctx, "SELECT original_text FROM records WHERE id = ?", id).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return text, err
}

func (s *sqliteSession) AddTag(ctx context.Context, id, tag string) error {
	if err := s.exists(ctx, id); err != nil {
		return err
	}
	_, err := s.tx.ExecContext(ctx, "INSERT OR IGNORE INTO tags (record_id, tag) VALUES (?, ?)", id, tag)
	return err
}

func (s *sqliteSession) RemoveTag(ctx context.Context, id, tag string) error {
	_, err := s.tx.ExecContext(ctx, "DELETE FROM tags WHERE record_id = ? AND tag = ?", id, tag)
	return err
}

func (s *sqliteSession) ApplyTranslation(ctx context.Context, id, translated string) error {
	res, err := s.tx.ExecContext(ctx,
		"UPDATE records SET translated_text = ?, translated_at = ? WHERE id = ?",
		translated, time.Now().UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *sqliteSession) exists(ctx context.Context, id string) error {
	var one int
	err := s.tx.QueryRowContext(ctx, "SELECT 1 FROM records WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return err
}

func checkMissing(ids []string, found []Record) error {
	if len(ids) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(found))
	for _, r := range found {
		seen[r.ID] = true
	}
	var missing []string
	for _, id := range ids {
		if !seen[id] {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("%w: %s", ErrNotFound, strings.Join(missing, ", "))
}
