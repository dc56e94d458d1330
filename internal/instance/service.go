// internal/instance/service.go
//
// Instance lifecycle service.
//
// Context
// -------
// One service instance orchestrates the four operations of the singleton
// lifecycle: Register (replace-if-exists), Validate (constant-shape
// lookup), Update (name and email only), and Delete (secret-gated,
// cascading).  Every operation is a single request/response call with no
// internal concurrency; a Register racing a Delete can interleave
// arbitrarily, which is an accepted risk for a single-user deployment.
//
// Secret handling
// ---------------
// The plaintext secret exists here only long enough to be hashed.  The
// service never stores it, never logs it, and never returns the hash.
package instance

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/pursuithq/pursuit/internal/metrics"
	"github.com/pursuithq/pursuit/internal/secret"
)

// Service carries the shared DB pool and logger.  Safe for concurrent
// use; it holds no per-operation state.
type Service struct {
	db  *sqlx.DB
	log *zap.SugaredLogger
}

// NewService wires a Service.  A nil logger falls back to the global.
func NewService(db *sqlx.DB, log *zap.SugaredLogger) *Service {
	if log == nil {
		log = zap.S()
	}
	return &Service{db: db, log: log}
}

// Register replaces any existing instance with a new one.  All three
// fields are trimmed; an empty result is a *ValidationError.  The prior
// instance row is deleted but its jobs, connections, and updates are not
// — only an explicit Delete cascades.
func (s *Service) Register(ctx context.Context, name, email, sec string) (*Instance, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	sec = strings.TrimSpace(sec)

	switch {
	case name == "":
		return nil, &ValidationError{Field: "name"}
	case email == "":
		return nil, &ValidationError{Field: "email"}
	case sec == "":
		return nil, &ValidationError{Field: "secret"}
	}

	rec := Record{
		ID:         SingletonID,
		Name:       name,
		Email:      email,
		SecretHash: secret.Hash(sec),
	}
	if err := Replace(ctx, s.db, rec); err != nil {
		return nil, err
	}

	metrics.RegisterTotal.Inc()
	s.log.Infow("instance registered", "name", name, "email", email)
	return &Instance{ID: rec.ID, Name: rec.Name, Email: rec.Email}, nil
}

// Validate hashes the supplied secret and looks the row up by fixed id
// AND digest equality.  Any miss — wrong secret or no instance at all —
// is the same ErrNotFound, so callers learn nothing about which it was.
func (s *Service) Validate(ctx context.Context, sec string) (*Instance, error) {
	sec = strings.TrimSpace(sec)
	if sec == "" {
		return nil, &ValidationError{Field: "secret"}
	}

	inst, err := ByHash(ctx, s.db, secret.Hash(sec))
	if errors.Is(err, sql.ErrNoRows) {
		metrics.ValidateFailureTotal.Inc()
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	metrics.ValidateSuccessTotal.Inc()
	return inst, nil
}

// Update rewrites name and email.  It requires an existing instance but
// does not re-check the secret: possession is assumed to have been
// established by a prior Validate on the caller's side.
func (s *Service) Update(ctx context.Context, name, email string) (*Instance, error) {
	// Existence is checked before field validation: a missing instance is
	// a 404 even when the body is also bad.
	if _, err := Get(ctx, s.db); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)

	switch {
	case name == "":
		return nil, &ValidationError{Field: "name"}
	case email == "":
		return nil, &ValidationError{Field: "email"}
	}

	if err := UpdateProfile(ctx, s.db, name, email); err != nil {
		return nil, err
	}

	s.log.Infow("instance updated", "name", name, "email", email)
	return &Instance{ID: SingletonID, Name: name, Email: email}, nil
}

// Delete validates the secret, then tears everything down children-first.
// A mismatch is ErrUnauthorized and nothing is touched.  The cascade is
// sequential and non-transactional; the first error aborts mid-way.
func (s *Service) Delete(ctx context.Context, sec string) error {
	sec = strings.TrimSpace(sec)
	if sec == "" {
		return &ValidationError{Field: "secret"}
	}

	if _, err := s.Validate(ctx, sec); err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrUnauthorized
		}
		return err
	}

	if err := DeleteCascade(ctx, s.db); err != nil {
		return err
	}

	metrics.DeleteTotal.Inc()
	s.log.Infow("instance deleted, all records removed")
	return nil
}
