// internal/tracker/store.go
//
// Query helpers for jobs, connections, and updates.
//
// Context
// -------
// Every read and write is scoped to the singleton instance id.  These are
// direct keyed operations with one piece of business logic: creating an
// update stamps the parent's last_update_date with the update's own date.
// That stamp is last-write-wins — a later call with an earlier date still
// overwrites — matching how the tracker has always behaved.
//
// Notes
// -----
// • Oxford commas, two spaces after periods.
package tracker

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pursuithq/pursuit/internal/instance"
	"github.com/pursuithq/pursuit/internal/metrics"
)

// ErrNotFound is returned for keyed reads and patches that match no row.
var ErrNotFound = errors.New("record not found")

/*──────────────────────────────── jobs ────────────────────────────────────*/

const jobColumns = `id, instance_id, date_applied, role, description, job_type,
	source, link, company, contact_name, contact_email, contact_mobile,
	status, last_update_date`

// ListJobs returns every job, oldest application first.
func ListJobs(ctx context.Context, db *sqlx.DB) ([]Job, error) {
	q := `SELECT ` + jobColumns + `
	        FROM job
	       WHERE instance_id = ?
	       ORDER BY date_applied ASC`
	jobs := make([]Job, 0, 16)
	if err := db.SelectContext(ctx, &jobs, q, instance.SingletonID); err != nil {
		return nil, err
	}
	return jobs, nil
}

// JobByID fetches one job or ErrNotFound.
func JobByID(ctx context.Context, db *sqlx.DB, id string) (*Job, error) {
	q := `SELECT ` + jobColumns + `
	        FROM job
	       WHERE id = ? AND instance_id = ?
	       LIMIT 1`
	var j Job
	if err := db.GetContext(ctx, &j, q, id, instance.SingletonID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}

// CreateJob inserts a job with a fresh UUID and a NULL last_update_date.
// The caller-supplied InstanceID and ID are ignored.
func CreateJob(ctx context.Context, db *sqlx.DB, j Job) (*Job, error) {
	j.ID = uuid.NewString()
	j.InstanceID = instance.SingletonID
	j.LastUpdateDate = nil

	const q = `
	    INSERT INTO job (id, instance_id, date_applied, role, description,
	        job_type, source, link, company, contact_name, contact_email,
	        contact_mobile, status, last_update_date)
	    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)`
	_, err := db.ExecContext(ctx, q,
		j.ID, j.InstanceID, j.DateApplied, j.Role, j.Description,
		j.JobType, j.Source, j.Link, j.Company, j.ContactName,
		j.ContactEmail, j.ContactMobile, j.Status)
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// PatchJob merges non-nil patch fields over the current row and writes
// the result.  Returns the merged job, or ErrNotFound.
func PatchJob(ctx context.Context, db *sqlx.DB, id string, p JobPatch) (*Job, error) {
	cur, err := JobByID(ctx, db, id)
	if err != nil {
		return nil, err
	}

	if p.Role != nil {
		cur.Role = *p.Role
	}
	if p.Description != nil {
		cur.Description = p.Description
	}
	if p.JobType != nil {
		cur.JobType = *p.JobType
	}
	if p.Source != nil {
		cur.Source = *p.Source
	}
	if p.Link != nil {
		cur.Link = p.Link
	}
	if p.Company != nil {
		cur.Company = *p.Company
	}
	if p.ContactName != nil {
		cur.ContactName = p.ContactName
	}
	if p.ContactEmail != nil {
		cur.ContactEmail = p.ContactEmail
	}
	if p.ContactMobile != nil {
		cur.ContactMobile = p.ContactMobile
	}
	if p.Status != nil {
		cur.Status = *p.Status
	}

	const q = `
	    UPDATE job
	       SET role = ?, description = ?, job_type = ?, source = ?, link = ?,
	           company = ?, contact_name = ?, contact_email = ?,
	           contact_mobile = ?, status = ?
	     WHERE id = ? AND instance_id = ?`
	_, err = db.ExecContext(ctx, q,
		cur.Role, cur.Description, cur.JobType, cur.Source, cur.Link,
		cur.Company, cur.ContactName, cur.ContactEmail, cur.ContactMobile,
		cur.Status, id, instance.SingletonID)
	if err != nil {
		return nil, err
	}
	return cur, nil
}

// DeleteJob removes a job's updates, then the job.  Sequential; first
// error aborts.
func DeleteJob(ctx context.Context, db *sqlx.DB, id string) error {
	if _, err := db.ExecContext(ctx,
		`DELETE FROM update_entry WHERE parent_id = ?`, id); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx,
		`DELETE FROM job WHERE id = ? AND instance_id = ?`,
		id, instance.SingletonID)
	return err
}

/*───────────────────────────── connections ────────────────────────────────*/

const connectionColumns = `id, instance_id, date_requested, company,
	contact_name, contact_linkedin_url, contact_mobile, status,
	last_update_date`

// ListConnections returns every connection, oldest request first.
func ListConnections(ctx context.Context, db *sqlx.DB) ([]Connection, error) {
	q := `SELECT ` + connectionColumns + `
	        FROM connection
	       WHERE instance_id = ?
	       ORDER BY date_requested ASC`
	conns := make([]Connection, 0, 16)
	if err := db.SelectContext(ctx, &conns, q, instance.SingletonID); err != nil {
		return nil, err
	}
	return conns, nil
}

// ConnectionByID fetches one connection or ErrNotFound.
func ConnectionByID(ctx context.Context, db *sqlx.DB, id string) (*Connection, error) {
	q := `SELECT ` + connectionColumns + `
	        FROM connection
	       WHERE id = ? AND instance_id = ?
	       LIMIT 1`
	var c Connection
	if err := db.GetContext(ctx, &c, q, id, instance.SingletonID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// CreateConnection inserts a connection with a fresh UUID and a NULL
// last_update_date.
func CreateConnection(ctx context.Context, db *sqlx.DB, c Connection) (*Connection, error) {
	c.ID = uuid.NewString()
	c.InstanceID = instance.SingletonID
	c.LastUpdateDate = nil

	const q = `
	    INSERT INTO connection (id, instance_id, date_requested, company,
	        contact_name, contact_linkedin_url, contact_mobile, status,
	        last_update_date)
	    VALUES (?, ?, ?, ?, ?, ?, ?, ?, NULL)`
	_, err := db.ExecContext(ctx, q,
		c.ID, c.InstanceID, c.DateRequested, c.Company, c.ContactName,
		c.ContactLinkedInURL, c.ContactMobile, c.Status)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// PatchConnection merges non-nil patch fields and writes the result.
func PatchConnection(ctx context.Context, db *sqlx.DB, id string, p ConnectionPatch) (*Connection, error) {
	cur, err := ConnectionByID(ctx, db, id)
	if err != nil {
		return nil, err
	}

	if p.Company != nil {
		cur.Company = *p.Company
	}
	if p.ContactName != nil {
		cur.ContactName = p.ContactName
	}
	if p.ContactLinkedInURL != nil {
		cur.ContactLinkedInURL = p.ContactLinkedInURL
	}
	if p.ContactMobile != nil {
		cur.ContactMobile = p.ContactMobile
	}
	if p.Status != nil {
		cur.Status = *p.Status
	}

	const q = `
	    UPDATE connection
	       SET company = ?, contact_name = ?, contact_linkedin_url = ?,
	           contact_mobile = ?, status = ?
	     WHERE id = ? AND instance_id = ?`
	_, err = db.ExecContext(ctx, q,
		cur.Company, cur.ContactName, cur.ContactLinkedInURL,
		cur.ContactMobile, cur.Status, id, instance.SingletonID)
	if err != nil {
		return nil, err
	}
	return cur, nil
}

// DeleteConnection removes a connection's updates, then the connection.
func DeleteConnection(ctx context.Context, db *sqlx.DB, id string) error {
	if _, err := db.ExecContext(ctx,
		`DELETE FROM update_entry WHERE parent_id = ?`, id); err != nil {
		return err
	}
	_, err := db.ExecContext(ctx,
		`DELETE FROM connection WHERE id = ? AND instance_id = ?`,
		id, instance.SingletonID)
	return err
}

/*─────────────────────────────── updates ──────────────────────────────────*/

// UpdatesForParent lists a parent's updates, newest date first with id as
// the tiebreaker, matching the feed ordering in the UI.
func UpdatesForParent(ctx context.Context, db *sqlx.DB, parentID string) ([]Update, error) {
	const q = `
	    SELECT id, parent_kind, parent_id, date, description
	      FROM update_entry
	     WHERE parent_id = ?
	     ORDER BY date DESC, id DESC`
	ups := make([]Update, 0, 8)
	if err := db.SelectContext(ctx, &ups, q, parentID); err != nil {
		return nil, err
	}
	return ups, nil
}

// CreateUpdate appends an update and stamps the parent's
// last_update_date with this update's date.  The stamp is last-write-wins:
// a later call carrying an earlier date still overwrites.
// Insert and stamp are two statements, not a transaction.
func CreateUpdate(ctx context.Context, db *sqlx.DB, ref ParentRef, date, description string) (*Update, error) {
	up := Update{
		ID:          uuid.NewString(),
		ParentKind:  ref.Kind,
		ParentID:    ref.ID,
		Date:        date,
		Description: description,
	}

	const ins = `
	    INSERT INTO update_entry (id, parent_kind, parent_id, date, description)
	    VALUES (?, ?, ?, ?, ?)`
	if _, err := db.ExecContext(ctx, ins,
		up.ID, up.ParentKind, up.ParentID, up.Date, up.Description); err != nil {
		return nil, err
	}

	var stamp string
	switch ref.Kind {
	case ParentJob:
		stamp = `UPDATE job SET last_update_date = ? WHERE id = ? AND instance_id = ?`
	case ParentConnection:
		stamp = `UPDATE connection SET last_update_date = ? WHERE id = ? AND instance_id = ?`
	default:
		return nil, fmt.Errorf("unknown parent kind %q", ref.Kind)
	}
	if _, err := db.ExecContext(ctx, stamp, up.Date, ref.ID, instance.SingletonID); err != nil {
		return nil, err
	}

	metrics.UpdateCreatedTotal.Inc()
	return &up, nil
}
