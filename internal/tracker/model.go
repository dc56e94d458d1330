// internal/tracker/model.go
//
// Record types for the tracker surfaces: jobs, connections, and the
// immutable updates hung off either.
//
// The parent of an update is a tagged reference (kind + id) rather than a
// bare discriminator string, so both last-update-date write paths are
// handled exhaustively at the point of use.
package tracker

// ParentKind discriminates which table an update's parent lives in.
type ParentKind string

const (
	ParentJob        ParentKind = "job"
	ParentConnection ParentKind = "connection"
)

// ParentRef identifies the one parent an update belongs to.
type ParentRef struct {
	Kind ParentKind `json:"type"`
	ID   string     `json:"parent_id"`
}

// Job mirrors one row in the `job` table.  Dates are ISO-8601 day
// strings; nullable columns map to pointer fields.
type Job struct {
	ID             string  `db:"id"               json:"id"`
	InstanceID     string  `db:"instance_id"      json:"instance_id"`
	DateApplied    string  `db:"date_applied"     json:"date_applied"`
	Role           string  `db:"role"             json:"role"`
	Description    *string `db:"description"      json:"description"`
	JobType        string  `db:"job_type"         json:"job_type"`
	Source         string  `db:"source"           json:"source"`
	Link           *string `db:"link"             json:"link"`
	Company        string  `db:"company"          json:"company"`
	ContactName    *string `db:"contact_name"     json:"contact_name"`
	ContactEmail   *string `db:"contact_email"    json:"contact_email"`
	ContactMobile  *string `db:"contact_mobile"   json:"contact_mobile"`
	Status         string  `db:"status"           json:"status"`
	LastUpdateDate *string `db:"last_update_date" json:"last_update_date"`
}

// Connection mirrors one row in the `connection` table.
type Connection struct {
	ID                 string  `db:"id"                   json:"id"`
	InstanceID         string  `db:"instance_id"          json:"instance_id"`
	DateRequested      string  `db:"date_requested"       json:"date_requested"`
	Company            string  `db:"company"              json:"company"`
	ContactName        *string `db:"contact_name"         json:"contact_name"`
	ContactLinkedInURL *string `db:"contact_linkedin_url" json:"contact_linkedin_url"`
	ContactMobile      *string `db:"contact_mobile"       json:"contact_mobile"`
	Status             string  `db:"status"               json:"status"`
	LastUpdateDate     *string `db:"last_update_date"     json:"last_update_date"`
}

// Update mirrors one row in the `update_entry` table.  Updates are
// append-only: there is no edit or delete operation for them.
type Update struct {
	ID          string     `db:"id"          json:"id"`
	ParentKind  ParentKind `db:"parent_kind" json:"type"`
	ParentID    string     `db:"parent_id"   json:"parent_id"`
	Date        string     `db:"date"        json:"date"`
	Description string     `db:"description" json:"description"`
}

// JobPatch carries the mutable job fields for partial updates.  Nil means
// "leave as is".  DateApplied and LastUpdateDate are not patchable: the
// former is fixed at creation, the latter only moves as a side effect of
// CreateUpdate.
type JobPatch struct {
	Role          *string `json:"role"`
	Description   *string `json:"description"`
	JobType       *string `json:"job_type"`
	Source        *string `json:"source"`
	Link          *string `json:"link"`
	Company       *string `json:"company"`
	ContactName   *string `json:"contact_name"`
	ContactEmail  *string `json:"contact_email"`
	ContactMobile *string `json:"contact_mobile"`
	Status        *string `json:"status"`
}

// ConnectionPatch is the connection counterpart of JobPatch.
type ConnectionPatch struct {
	Company            *string `json:"company"`
	ContactName        *string `json:"contact_name"`
	ContactLinkedInURL *string `json:"contact_linkedin_url"`
	ContactMobile      *string `json:"contact_mobile"`
	Status             *string `json:"status"`
}
