package dbx

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const stageStmt = `INSERT INTO staged_parts (draft_id, box_id, entry_id) VALUES (?, ?, ?)`

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	_, err = db.Exec(`CREATE TABLE staged_parts (
		draft_id TEXT NOT NULL,
		box_id   TEXT NOT NULL,
		entry_id TEXT NOT NULL,
		PRIMARY KEY (draft_id, entry_id)
	)`)
	require.NoError(t, err)
	return db
}

func stagedCount(t *testing.T, db *sql.DB, draft string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM staged_parts WHERE draft_id = ?`, draft).Scan(&n))
	return n
}

func TestWithTx_CommitsEveryPart(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		for _, entry := range []string{"e1", "e2", "e3"} {
			if _, err := tx.ExecContext(ctx, stageStmt, "d1", "b1", entry); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, stagedCount(t, db, "d1"))
}

func TestWithTx_DuplicatePartRollsBackDraft(t *testing.T) {
	db := setupDB(t)

	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		if _, err := tx.ExecContext(ctx, stageStmt, "d1", "b1", "e1"); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, stageStmt, "d1", "b1", "e1")
		return err
	})
	require.Error(t, err)
	assert.Zero(t, stagedCount(t, db, "d1"))
}

func TestWithTx_RollbackOnPanic(t *testing.T) {
	db := setupDB(t)

	defer func() {
		r := recover()
		require.Equal(t, "journal exploded", r)
		assert.Zero(t, stagedCount(t, db, "d1"))
	}()

	_ = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, stageStmt, "d1", "b1", "e1")
		require.NoError(t, err)
		panic("journal exploded")
	})
}

func TestWithTx_BeginError(t *testing.T) {
	db := setupDB(t)
	require.NoError(t, db.Close())

	called := false
	err := WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		called = true
		return nil
	})
	assert.ErrorContains(t, err, "failed to begin transaction")
	assert.False(t, called)
}

func TestWithTx_CommitError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO staged_parts`).WithArgs("d1", "b1", "e1").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit().WillReturnError(errors.New("database is locked"))

	err = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		_, err := tx.ExecContext(ctx, stageStmt, "d1", "b1", "e1")
		return err
	})
	assert.ErrorContains(t, err, "failed to commit transaction: database is locked")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollbackErrorIsJoined(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	cause := errors.New("disk full")
	mock.ExpectBegin()
	mock.ExpectRollback().WillReturnError(errors.New("connection lost"))

	err = WithTx(context.Background(), db, nil, func(ctx context.Context, tx DBTX) error {
		return cause
	})
	assert.ErrorIs(t, err, cause)
	assert.ErrorContains(t, err, "failed to roll back transaction: connection lost")
	assert.NoError(t, mock.ExpectationsWereMet())
}
