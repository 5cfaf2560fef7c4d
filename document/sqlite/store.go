// Package sqlite is the document read model: denormalized current rows, the
// full version history and the projection's consumer offset, all in one
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/kyuff/docflow"
	"github.com/kyuff/docflow/document"

	_ "modernc.org/sqlite"
)

const schemaVersion = 1

// ErrNotFound is returned when a document or version row does not exist.
var ErrNotFound = errors.New("sqlite: not found")

// Store implements docflow.ReadModel over SQLite.
type Store struct {
	db       *sql.DB
	consumer string
}

func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening %s: %w", path, err)
	}

	// Single writer per connection keeps every ApplyAt transaction serialized.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, consumer: "document-readmodel"}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migration failed: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var currentVersion int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&currentVersion)
	if err != nil {
		return err
	}

	if currentVersion >= schemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		approval TEXT NOT NULL,
		approval_code TEXT NOT NULL DEFAULT '',
		version INTEGER NOT NULL,
		updated_at_ms INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS document_versions (
		id TEXT NOT NULL,
		version INTEGER NOT NULL,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at_ms INTEGER NOT NULL,
		PRIMARY KEY (id, version)
	);

	CREATE TABLE IF NOT EXISTS consumer_offsets (
		consumer TEXT PRIMARY KEY,
		last_offset INTEGER NOT NULL
	);
	`
	if _, err := tx.Exec(schema); err != nil {
		return err
	}

	if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return err
	}

	return tx.Commit()
}

var _ docflow.ReadModel = (*Store)(nil)

func (s *Store) LastOffset(ctx context.Context) (int64, error) {
	var offset int64
	err := s.db.QueryRowContext(ctx,
		"SELECT last_offset FROM consumer_offsets WHERE consumer = ?", s.consumer,
	).Scan(&offset)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("sqlite: reading offset: %w", err)
	}

	return offset, nil
}

// ApplyAt projects one event and advances the consumer offset in the same
// transaction. All writes are idempotent upserts, so redelivering an event
// after a crash is harmless.
func (s *Store) ApplyAt(ctx context.Context, offset int64, event docflow.Event) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if event.AggregateType == document.AggregateType {
		err = s.applyDocument(ctx, tx, event)
		if err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO consumer_offsets (consumer, last_offset) VALUES (?, ?)
		ON CONFLICT (consumer) DO UPDATE SET last_offset = excluded.last_offset
		WHERE excluded.last_offset > last_offset`,
		s.consumer, offset,
	)
	if err != nil {
		return fmt.Errorf("sqlite: advancing offset: %w", err)
	}

	return tx.Commit()
}

func (s *Store) applyDocument(ctx context.Context, tx *sql.Tx, event docflow.Event) error {
	atMS := event.EventTime.UnixMilli()

	switch content := event.Content.(type) {
	case document.CreatedOrUpdated:
		_, err := tx.ExecContext(ctx, `
			INSERT INTO documents (id, title, content, approval, version, updated_at_ms)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET
				title = excluded.title,
				content = excluded.content,
				version = excluded.version,
				updated_at_ms = excluded.updated_at_ms`,
			event.AggregateID, content.Document.Title, content.Document.Content,
			string(document.ApprovalPending), event.EventNumber, atMS,
		)
		if err != nil {
			return fmt.Errorf("sqlite: upserting document %s: %w", event.AggregateID, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT OR REPLACE INTO document_versions (id, version, title, content, created_at_ms)
			VALUES (?, ?, ?, ?, ?)`,
			event.AggregateID, event.EventNumber, content.Document.Title, content.Document.Content, atMS,
		)
		if err != nil {
			return fmt.Errorf("sqlite: recording version %d of %s: %w", event.EventNumber, event.AggregateID, err)
		}
	case document.ApprovalCodeSet:
		return s.updateDocument(ctx, tx, event,
			"UPDATE documents SET approval_code = ?, version = ?, updated_at_ms = ? WHERE id = ?",
			content.Code, event.EventNumber, atMS, event.AggregateID,
		)
	case document.Approved:
		return s.updateDocument(ctx, tx, event,
			"UPDATE documents SET approval = ?, version = ?, updated_at_ms = ? WHERE id = ?",
			string(document.ApprovalApproved), event.EventNumber, atMS, event.AggregateID,
		)
	case document.Rejected:
		return s.updateDocument(ctx, tx, event,
			"UPDATE documents SET approval = ?, version = ?, updated_at_ms = ? WHERE id = ?",
			string(document.ApprovalRejected), event.EventNumber, atMS, event.AggregateID,
		)
	}

	return nil
}

func (s *Store) updateDocument(ctx context.Context, tx *sql.Tx, event docflow.Event, query string, args ...any) error {
	_, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("sqlite: applying %s to %s: %w", event.Content.EventName(), event.AggregateID, err)
	}

	return nil
}

// Row is the current state of one document.
type Row struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Approval     string    `json:"approval"`
	ApprovalCode string    `json:"-"`
	Version      int64     `json:"version"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// VersionRow is one historical version of a document.
type VersionRow struct {
	ID        string    `json:"id"`
	Version   int64     `json:"version"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func (s *Store) Get(ctx context.Context, id string) (Row, error) {
	var (
		row       Row
		updatedMS int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, content, approval, approval_code, version, updated_at_ms
		FROM documents WHERE id = ?`, id,
	).Scan(&row.ID, &row.Title, &row.Content, &row.Approval, &row.ApprovalCode, &row.Version, &updatedMS)
	if errors.Is(err, sql.ErrNoRows) {
		return Row{}, fmt.Errorf("%w: document %s", ErrNotFound, id)
	}
	if err != nil {
		return Row{}, fmt.Errorf("sqlite: reading document %s: %w", id, err)
	}

	row.UpdatedAt = time.UnixMilli(updatedMS)

	return row, nil
}

func (s *Store) GetVersion(ctx context.Context, id string, version int64) (VersionRow, error) {
	var (
		row       VersionRow
		createdMS int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, version, title, content, created_at_ms
		FROM document_versions WHERE id = ? AND version = ?`, id, version,
	).Scan(&row.ID, &row.Version, &row.Title, &row.Content, &createdMS)
	if errors.Is(err, sql.ErrNoRows) {
		return VersionRow{}, fmt.Errorf("%w: document %s version %d", ErrNotFound, id, version)
	}
	if err != nil {
		return VersionRow{}, fmt.Errorf("sqlite: reading version %d of %s: %w", version, id, err)
	}

	row.CreatedAt = time.UnixMilli(createdMS)

	return row, nil
}

func (s *Store) ListVersions(ctx context.Context, id string) ([]VersionRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, version, title, content, created_at_ms
		FROM document_versions WHERE id = ? ORDER BY version`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing versions of %s: %w", id, err)
	}
	defer func() { _ = rows.Close() }()

	var versions []VersionRow
	for rows.Next() {
		var (
			row       VersionRow
			createdMS int64
		)
		err = rows.Scan(&row.ID, &row.Version, &row.Title, &row.Content, &createdMS)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning version of %s: %w", id, err)
		}
		row.CreatedAt = time.UnixMilli(createdMS)
		versions = append(versions, row)
	}

	return versions, rows.Err()
}
