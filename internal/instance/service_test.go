// internal/instance/service_test.go
//
// Service-level tests: trimming, error taxonomy, and the hash flowing
// into the store.  SQL is mocked; the digest assertions use the real
// hasher so a drift between service and hasher shows up here.

package instance

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"go.uber.org/zap"

	"github.com/pursuithq/pursuit/internal/secret"
)

func TestRegisterValidation(t *testing.T) {
	db, _ := newMockDB(t)
	svc := NewService(db, zap.NewNop().Sugar())

	cases := []struct {
		name, email, sec, field string
	}{
		{"", "ada@x.com", "s3cret", "name"},
		{"   ", "ada@x.com", "s3cret", "name"},
		{"Ada", "", "s3cret", "email"},
		{"Ada", "ada@x.com", "", "secret"},
		{"Ada", "ada@x.com", "   ", "secret"},
	}
	for _, c := range cases {
		_, err := svc.Register(context.Background(), c.name, c.email, c.sec)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("Register(%q,%q,%q): expected ValidationError, got %v",
				c.name, c.email, c.sec, err)
		}
		if ve.Field != c.field {
			t.Errorf("wrong field: got %q, want %q", ve.Field, c.field)
		}
	}
}

func TestRegisterHashesAndTrims(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db, zap.NewNop().Sugar())

	wantHash := secret.Hash("s3cret")

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM instance`)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO instance (id, name, email, secret_hash) VALUES (?, ?, ?, ?)`,
	)).
		WithArgs(SingletonID, "Ada", "ada@x.com", wantHash).
		WillReturnResult(sqlmock.NewResult(1, 1))

	inst, err := svc.Register(context.Background(), "  Ada ", " ada@x.com ", " s3cret ")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if inst.ID != SingletonID || inst.Name != "Ada" || inst.Email != "ada@x.com" {
		t.Fatalf("unexpected projection: %+v", inst)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestValidateMissIsUniform(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db, zap.NewNop().Sugar())

	// Whether the row is absent or the digest differs, the store answer is
	// the same empty set, and the service answer the same ErrNotFound.
	mock.ExpectQuery(`SELECT id, name, email`).
		WithArgs(SingletonID, secret.Hash("nope")).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Validate(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestValidateSuccess(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db, zap.NewNop().Sugar())

	mock.ExpectQuery(`SELECT id, name, email`).
		WithArgs(SingletonID, secret.Hash("s3cret")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).
			AddRow(SingletonID, "Ada", "ada@x.com"))

	inst, err := svc.Validate(context.Background(), "s3cret")
	if err != nil {
		t.Fatalf("Validate error: %v", err)
	}
	if inst.Name != "Ada" || inst.Email != "ada@x.com" {
		t.Fatalf("unexpected projection: %+v", inst)
	}
}

func TestUpdateWithoutInstance(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db, zap.NewNop().Sugar())

	mock.ExpectQuery(`SELECT id, name, email`).
		WithArgs(SingletonID).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.Update(context.Background(), "Ada L.", "ada@x.com")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateRewritesProfile(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db, zap.NewNop().Sugar())

	mock.ExpectQuery(`SELECT id, name, email`).
		WithArgs(SingletonID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).
			AddRow(SingletonID, "Ada", "ada@x.com"))
	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE instance SET name = ?, email = ? WHERE id = ?`,
	)).
		WithArgs("Ada L.", "ada@x.com", SingletonID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	inst, err := svc.Update(context.Background(), "Ada L.", "ada@x.com")
	if err != nil {
		t.Fatalf("Update error: %v", err)
	}
	if inst.Name != "Ada L." {
		t.Fatalf("name not updated: %+v", inst)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

// A wrong secret on Delete is ErrUnauthorized, and nothing is deleted:
// sqlmock would flag any unexpected DELETE.
func TestDeleteWrongSecretTouchesNothing(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db, zap.NewNop().Sugar())

	mock.ExpectQuery(`SELECT id, name, email`).
		WithArgs(SingletonID, secret.Hash("wrong")).
		WillReturnError(sql.ErrNoRows)

	err := svc.Delete(context.Background(), "wrong")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestDeleteHappyPath(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db, zap.NewNop().Sugar())

	mock.ExpectQuery(`SELECT id, name, email`).
		WithArgs(SingletonID, secret.Hash("s3cret")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email"}).
			AddRow(SingletonID, "Ada", "ada@x.com"))

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

	if err := svc.Delete(context.Background(), "s3cret"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

// TestRegisterLeavesChildRows pins replace semantics: registering over
// an existing instance touches only the instance table.  Dependent job,
// connection, and update rows survive, pointed at a since-removed
// instance id, and only an explicit Delete cleans them up.
func TestRegisterLeavesChildRows(t *testing.T) {
	db, mock := newMockDB(t)
	svc := NewService(db, zap.NewNop().Sugar())

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM instance`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO instance`).
		WithArgs(SingletonID, "Ada", "ada@x.com", secret.Hash("fresh")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if _, err := svc.Register(context.Background(), "Ada", "ada@x.com", "fresh"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Any statement against job, connection, or update_entry would have
	// been unexpected and failed the call above; nothing else ran.
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected SQL during replace: %v", err)
	}
}
