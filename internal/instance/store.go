// internal/instance/store.go
//
// Query helpers for the singleton `instance` row.
//
// Context
// -------
// These helpers accept a *sqlx.DB and perform simple parameterised
// queries; all policy (trimming, hashing, error taxonomy) lives in the
// service.  Replace and DeleteCascade are multi-statement sequences with
// no wrapping transaction: the first error aborts and surfaces to the
// caller, leaving whatever the earlier statements already did.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
// • Max line length 100 columns.
package instance

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// Replace unconditionally deletes any existing instance row, then inserts
// rec.  Dependent job, connection, and update rows are *not* touched;
// registering over an old instance leaves them orphaned.  That quirk is
// load-bearing — see DeleteCascade for the path that does clean up.
func Replace(ctx context.Context, db *sqlx.DB, rec Record) error {
	if _, err := db.ExecContext(ctx, `DELETE FROM instance`); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO instance (id, name, email, secret_hash) VALUES (?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Email, rec.SecretHash)
	return err
}

// ByHash fetches the public projection when the fixed id AND the digest
// both match.  A miss comes back as sql.ErrNoRows, which the service maps
// to its uniform not-found shape.
func ByHash(ctx context.Context, db *sqlx.DB, hash string) (*Instance, error) {
	const q = `
	    SELECT id, name, email
	    FROM   instance
	    WHERE  id = ?
	      AND  secret_hash = ?
	    LIMIT  1`
	var inst Instance
	if err := db.GetContext(ctx, &inst, q, SingletonID, hash); err != nil {
		return nil, err
	}
	return &inst, nil
}

// Get fetches the projection regardless of secret.  Used by Update to
// decide between 404 and proceed; never exposed over HTTP.
func Get(ctx context.Context, db *sqlx.DB) (*Instance, error) {
	const q = `
	    SELECT id, name, email
	    FROM   instance
	    WHERE  id = ?
	    LIMIT  1`
	var inst Instance
	if err := db.GetContext(ctx, &inst, q, SingletonID); err != nil {
		return nil, err
	}
	return &inst, nil
}

// UpdateProfile rewrites name and email on the singleton row.  The secret
// hash is untouched; there is no operation that rotates it short of a
// full re-registration.
func UpdateProfile(ctx context.Context, db *sqlx.DB, name, email string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE instance SET name = ?, email = ? WHERE id = ?`,
		name, email, SingletonID)
	return err
}

// DeleteCascade removes everything the instance owns, children before
// parents: update rows for every owned job or connection, then jobs, then
// connections, then the instance row itself.  Sequential and
// non-transactional; a failure partway through leaves a partially-deleted
// store with no rollback or retry.
func DeleteCascade(ctx context.Context, db *sqlx.DB) error {
	parentIDs, err := ownedParentIDs(ctx, db)
	if err != nil {
		return err
	}

	if len(parentIDs) > 0 {
		// Construct the IN clause placeholders dynamically.
		placeholders := make([]byte, 0, len(parentIDs)*2)
		args := make([]any, 0, len(parentIDs))
		for i, id := range parentIDs {
			if i > 0 {
				placeholders = append(placeholders, ',')
			}
			placeholders = append(placeholders, '?')
			args = append(args, id)
		}

		q := `DELETE FROM update_entry WHERE parent_id IN (` + string(placeholders) + `)`
		if _, err := db.ExecContext(ctx, q, args...); err != nil {
			return err
		}
	}

	if _, err := db.ExecContext(ctx,
		`DELETE FROM job WHERE instance_id = ?`, SingletonID); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx,
		`DELETE FROM connection WHERE instance_id = ?`, SingletonID); err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM instance WHERE id = ?`, SingletonID)
	return err
}

// ownedParentIDs collects the ids of every job and connection owned by
// the singleton instance, in that order.
func ownedParentIDs(ctx context.Context, db *sqlx.DB) ([]string, error) {
	ids := make([]string, 0, 16)

	var jobIDs []string
	if err := db.SelectContext(ctx, &jobIDs,
		`SELECT id FROM job WHERE instance_id = ?`, SingletonID); err != nil {
		return nil, err
	}
	ids = append(ids, jobIDs...)

	var connIDs []string
	if err := db.SelectContext(ctx, &connIDs,
		`SELECT id FROM connection WHERE instance_id = ?`, SingletonID); err != nil {
		return nil, err
	}
	ids = append(ids, connIDs...)

	return ids, nil
}
