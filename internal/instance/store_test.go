// internal/instance/store_test.go
//
// Unit-tests for the instance store helpers using sqlmock.
//
// Run: go test ./internal/instance -v

package instance

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func TestReplaceDeletesThenInserts(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM instance`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO instance (id, name, email, secret_hash) VALUES (?, ?, ?, ?)`,
	)).
		WithArgs(SingletonID, "Ada", "ada@x.com", "digest").
		WillReturnResult(sqlmock.NewResult(1, 1))

	rec := Record{ID: SingletonID, Name: "Ada", Email: "ada@x.com", SecretHash: "digest"}
	if err := Replace(context.Background(), db, rec); err != nil {
		t.Fatalf("Replace error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestByHashMiss(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT id, name, email`).
		WithArgs(SingletonID, "wrong-digest").
		WillReturnError(sql.ErrNoRows)

	_, err := ByHash(context.Background(), db, "wrong-digest")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestByHashHit(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT id, name, email`).
		WithArgs(SingletonID, "digest").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).
			AddRow(SingletonID, "Ada", "ada@x.com"))

	inst, err := ByHash(context.Background(), db, "digest")
	if err != nil {
		t.Fatalf("ByHash error: %v", err)
	}
	if inst.ID != SingletonID || inst.Name != "Ada" || inst.Email != "ada@x.com" {
		t.Fatalf("unexpected projection: %+v", inst)
	}
}

// TestDeleteCascadeOrdering pins the children-before-parents sequence:
// update rows for all owned parents, then jobs, then connections, then
// the instance row.
func TestDeleteCascadeOrdering(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM job WHERE instance_id = ?`)).
		WithArgs(SingletonID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("job-1").AddRow("job-2"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM connection WHERE instance_id = ?`)).
		WithArgs(SingletonID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("conn-1"))

	mock.ExpectExec(regexp.QuoteMeta(
		`DELETE FROM update_entry WHERE parent_id IN (?,?,?)`,
	)).
		WithArgs("job-1", "job-2", "conn-1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM job WHERE instance_id = ?`)).
		WithArgs(SingletonID).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM connection WHERE instance_id = ?`)).
		WithArgs(SingletonID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM instance WHERE id = ?`)).
		WithArgs(SingletonID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := DeleteCascade(context.Background(), db); err != nil {
		t.Fatalf("DeleteCascade error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

// With no owned parents the update-row delete is skipped entirely.
func TestDeleteCascadeNoChildren(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM job WHERE instance_id = ?`)).
		WithArgs(SingletonID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM connection WHERE instance_id = ?`)).
		WithArgs(SingletonID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM job WHERE instance_id = ?`)).
		WithArgs(SingletonID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM connection WHERE instance_id = ?`)).
		WithArgs(SingletonID).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM instance WHERE id = ?`)).
		WithArgs(SingletonID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := DeleteCascade(context.Background(), db); err != nil {
		t.Fatalf("DeleteCascade error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

// A failure mid-sequence aborts: nothing after the failing statement runs.
func TestDeleteCascadeAbortsOnFirstError(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM job WHERE instance_id = ?`)).
		WithArgs(SingletonID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("job-1"))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id FROM connection WHERE instance_id = ?`)).
		WithArgs(SingletonID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM update_entry WHERE parent_id IN (?)`)).
		WithArgs("job-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM job WHERE instance_id = ?`)).
		WithArgs(SingletonID).
		WillReturnError(errors.New("connection lost"))

	err := DeleteCascade(context.Background(), db)
	if err == nil || err.Error() != "connection lost" {
		t.Fatalf("expected the store error to surface, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}
