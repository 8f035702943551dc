package journal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/guildstore/internal/dbx"
	"github.com/dmitrijs2005/guildstore/internal/filex"
	"github.com/dmitrijs2005/guildstore/internal/journal/migrations"
	"github.com/dmitrijs2005/guildstore/internal/models"
)

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// Migrate brings the journal schema up to date.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to migrate journal: %w", err)
	}
	return nil
}

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLiteJournal(db *sql.DB) *SQLiteJournal {
	return &SQLiteJournal{db: db}
}

// Open opens (creating if needed) the journal database at dsn and migrates it.
func Open(ctx context.Context, dsn string) (*SQLiteJournal, error) {
	if path := filex.SQLitePath(dsn); path != "" {
		if err := filex.EnsureParentDir(path); err != nil {
			return nil, fmt.Errorf("failed to prepare journal directory: %w", err)
		}
	}

	db, err := dbx.Open(ctx, "sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewSQLiteJournal(db), nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

func (j *SQLiteJournal) Stage(ctx context.Context, parts ...models.StagedPart) error {
	if len(parts) == 0 {
		return nil
	}

	return dbx.WithTx(ctx, j.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		for _, p := range parts {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO staged_parts (draft_id, box_id, entry_id, staged_at) VALUES (?, ?, ?, ?)
				ON CONFLICT(draft_id, entry_id) DO NOTHING
			`, p.DraftID, p.BoxID, p.EntryID, p.StagedAt.UTC())
			if err != nil {
				return fmt.Errorf("failed to stage part[%s/%s]: %w", p.DraftID, p.EntryID, err)
			}
		}
		return nil
	})
}

func (j *SQLiteJournal) Clear(ctx context.Context, draftID string) error {
	_, err := j.db.ExecContext(ctx, `DELETE FROM staged_parts WHERE draft_id = ?`, draftID)
	if err != nil {
		return fmt.Errorf("failed to clear draft[%s]: %w", draftID, err)
	}
	return nil
}

// Pending lists every staged part, oldest first.
func (j *SQLiteJournal) Pending(ctx context.Context) ([]models.StagedPart, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT draft_id, box_id, entry_id, staged_at
		FROM staged_parts
		ORDER BY staged_at, rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list staged parts: %w", err)
	}
	defer rows.Close()

	result := make([]models.StagedPart, 0)
	for rows.Next() {
		var p models.StagedPart
		var at time.Time
		if err := rows.Scan(&p.DraftID, &p.BoxID, &p.EntryID, &at); err != nil {
			return nil, fmt.Errorf("failed to scan staged part row: %w", err)
		}
		p.StagedAt = at.UTC()
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate staged part rows: %w", err)
	}

	return result, nil
}
