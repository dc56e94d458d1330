// internal/tracker/store_test.go
//
// Unit-tests for the tracker store using sqlmock.  The interesting part
// is CreateUpdate's parent stamp: which table gets written, and the
// last-write-wins date semantics.

package tracker

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/pursuithq/pursuit/internal/instance"
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

func TestCreateUpdateStampsJobParent(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(`INSERT INTO update_entry`).
		WithArgs(sqlmock.AnyArg(), string(ParentJob), "job-1", "2024-03-01", "phone screen").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE job SET last_update_date = ? WHERE id = ? AND instance_id = ?`,
	)).
		WithArgs("2024-03-01", "job-1", instance.SingletonID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	up, err := CreateUpdate(context.Background(), db,
		ParentRef{Kind: ParentJob, ID: "job-1"}, "2024-03-01", "phone screen")
	if err != nil {
		t.Fatalf("CreateUpdate error: %v", err)
	}
	if up.ParentKind != ParentJob || up.ParentID != "job-1" || up.Date != "2024-03-01" {
		t.Fatalf("unexpected update: %+v", up)
	}
	if up.ID == "" {
		t.Fatal("update id was not generated")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestCreateUpdateStampsConnectionParent(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(`INSERT INTO update_entry`).
		WithArgs(sqlmock.AnyArg(), string(ParentConnection), "conn-1", "2024-04-02", "coffee chat").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE connection SET last_update_date = ? WHERE id = ? AND instance_id = ?`,
	)).
		WithArgs("2024-04-02", "conn-1", instance.SingletonID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if _, err := CreateUpdate(context.Background(), db,
		ParentRef{Kind: ParentConnection, ID: "conn-1"}, "2024-04-02", "coffee chat"); err != nil {
		t.Fatalf("CreateUpdate error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

// The stamp is last-write-wins: an earlier-dated update created later
// still overwrites the parent's last_update_date with its own date.
func TestCreateUpdateLastWriteWins(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(`INSERT INTO update_entry`).
		WithArgs(sqlmock.AnyArg(), string(ParentJob), "job-1", "2024-03-01", "later event").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE job SET last_update_date`).
		WithArgs("2024-03-01", "job-1", instance.SingletonID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectExec(`INSERT INTO update_entry`).
		WithArgs(sqlmock.AnyArg(), string(ParentJob), "job-1", "2024-01-15", "earlier event").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`UPDATE job SET last_update_date`).
		WithArgs("2024-01-15", "job-1", instance.SingletonID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ref := ParentRef{Kind: ParentJob, ID: "job-1"}
	if _, err := CreateUpdate(context.Background(), db, ref, "2024-03-01", "later event"); err != nil {
		t.Fatalf("first CreateUpdate: %v", err)
	}
	if _, err := CreateUpdate(context.Background(), db, ref, "2024-01-15", "earlier event"); err != nil {
		t.Fatalf("second CreateUpdate: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestCreateUpdateUnknownKind(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(`INSERT INTO update_entry`).
		WithArgs(sqlmock.AnyArg(), "bogus", "x", "2024-01-01", "?").
		WillReturnResult(sqlmock.NewResult(1, 1))

	_, err := CreateUpdate(context.Background(), db,
		ParentRef{Kind: ParentKind("bogus"), ID: "x"}, "2024-01-01", "?")
	if err == nil {
		t.Fatal("expected an error for an unknown parent kind")
	}
}

func TestJobByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`FROM job`).
		WithArgs("missing", instance.SingletonID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := JobByID(context.Background(), db, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPatchJobMergesFields(t *testing.T) {
	db, mock := newMockDB(t)

	cols := []string{"id", "instance_id", "date_applied", "role", "description",
		"job_type", "source", "link", "company", "contact_name",
		"contact_email", "contact_mobile", "status", "last_update_date"}
	mock.ExpectQuery(`FROM job`).
		WithArgs("job-1", instance.SingletonID).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"job-1", instance.SingletonID, "2024-02-01", "Engineer", nil,
			"full-time", "referral", nil, "Acme", nil, nil, nil,
			"applied", nil))

	mock.ExpectExec(`UPDATE job`).
		WithArgs("Engineer", nil, "full-time", "referral", nil, "Acme",
			nil, nil, nil, "interviewing", "job-1", instance.SingletonID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	status := "interviewing"
	job, err := PatchJob(context.Background(), db, "job-1", JobPatch{Status: &status})
	if err != nil {
		t.Fatalf("PatchJob error: %v", err)
	}
	if job.Status != "interviewing" || job.Role != "Engineer" {
		t.Fatalf("merge went wrong: %+v", job)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestDeleteJobRemovesChildrenFirst(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM update_entry WHERE parent_id = ?`)).
		WithArgs("job-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM job WHERE id = ? AND instance_id = ?`)).
		WithArgs("job-1", instance.SingletonID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := DeleteJob(context.Background(), db, "job-1"); err != nil {
		t.Fatalf("DeleteJob error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestUpdatesForParentOrdering(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`ORDER BY date DESC, id DESC`).
		WithArgs("job-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "parent_kind", "parent_id", "date", "description"}).
			AddRow("u2", "job", "job-1", "2024-03-01", "newer").
			AddRow("u1", "job", "job-1", "2024-01-15", "older"))

	ups, err := UpdatesForParent(context.Background(), db, "job-1")
	if err != nil {
		t.Fatalf("UpdatesForParent error: %v", err)
	}
	if len(ups) != 2 || ups[0].Date != "2024-03-01" {
		t.Fatalf("unexpected ordering: %+v", ups)
	}
}
