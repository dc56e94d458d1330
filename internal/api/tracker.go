// internal/api/tracker.go
//
// Tracker CRUD endpoints: jobs, connections, and updates.
//
// Create bodies are checked with go-playground/validator; everything else
// is a direct keyed read or write against the tracker store.  Updates are
// append-only, so the updates route has no item-level verbs.
package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pursuithq/pursuit/internal/tracker"
)

/*──────────────────────────────── jobs ────────────────────────────────────*/

type createJobRequest struct {
	DateApplied   string  `json:"date_applied" validate:"required"`
	Role          string  `json:"role"          validate:"required"`
	Description   *string `json:"description"`
	JobType       string  `json:"job_type"      validate:"required"`
	Source        string  `json:"source"        validate:"required"`
	Link          *string `json:"link"`
	Company       string  `json:"company"       validate:"required"`
	ContactName   *string `json:"contact_name"`
	ContactEmail  *string `json:"contact_email"`
	ContactMobile *string `json:"contact_mobile"`
	Status        string  `json:"status"        validate:"required"`
}

func (a *API) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs, err := tracker.ListJobs(r.Context(), a.db)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (a *API) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if !decodeBody(r, &req) {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := a.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest,
			"Date applied, role, job type, source, company, and status are required.")
		return
	}

	job, err := tracker.CreateJob(r.Context(), a.db, tracker.Job{
		DateApplied:   req.DateApplied,
		Role:          req.Role,
		Description:   req.Description,
		JobType:       req.JobType,
		Source:        req.Source,
		Link:          req.Link,
		Company:       req.Company,
		ContactName:   req.ContactName,
		ContactEmail:  req.ContactEmail,
		ContactMobile: req.ContactMobile,
		Status:        req.Status,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": job})
}

func (a *API) handleGetJob(w http.ResponseWriter, r *http.Request) {
	job, err := tracker.JobByID(r.Context(), a.db, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, tracker.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Job not found.")
			return
		}
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": job})
}

func (a *API) handlePatchJob(w http.ResponseWriter, r *http.Request) {
	var patch tracker.JobPatch
	if !decodeBody(r, &patch) {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	job, err := tracker.PatchJob(r.Context(), a.db, chi.URLParam(r, "id"), patch)
	if err != nil {
		if errors.Is(err, tracker.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Job not found.")
			return
		}
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"job": job})
}

func (a *API) handleDeleteJob(w http.ResponseWriter, r *http.Request) {
	if err := tracker.DeleteJob(r.Context(), a.db, chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

/*───────────────────────────── connections ────────────────────────────────*/

type createConnectionRequest struct {
	DateRequested      string  `json:"date_requested" validate:"required"`
	Company            string  `json:"company"        validate:"required"`
	ContactName        *string `json:"contact_name"`
	ContactLinkedInURL *string `json:"contact_linkedin_url"`
	ContactMobile      *string `json:"contact_mobile"`
	Status             string  `json:"status"         validate:"required"`
}

func (a *API) handleListConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := tracker.ListConnections(r.Context(), a.db)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"connections": conns})
}

func (a *API) handleCreateConnection(w http.ResponseWriter, r *http.Request) {
	var req createConnectionRequest
	if !decodeBody(r, &req) {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := a.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest,
			"Date requested, company, and status are required.")
		return
	}

	conn, err := tracker.CreateConnection(r.Context(), a.db, tracker.Connection{
		DateRequested:      req.DateRequested,
		Company:            req.Company,
		ContactName:        req.ContactName,
		ContactLinkedInURL: req.ContactLinkedInURL,
		ContactMobile:      req.ContactMobile,
		Status:             req.Status,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"connection": conn})
}

func (a *API) handleGetConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := tracker.ConnectionByID(r.Context(), a.db, chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, tracker.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Connection not found.")
			return
		}
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"connection": conn})
}

func (a *API) handlePatchConnection(w http.ResponseWriter, r *http.Request) {
	var patch tracker.ConnectionPatch
	if !decodeBody(r, &patch) {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	conn, err := tracker.PatchConnection(r.Context(), a.db, chi.URLParam(r, "id"), patch)
	if err != nil {
		if errors.Is(err, tracker.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Connection not found.")
			return
		}
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"connection": conn})
}

func (a *API) handleDeleteConnection(w http.ResponseWriter, r *http.Request) {
	if err := tracker.DeleteConnection(r.Context(), a.db, chi.URLParam(r, "id")); err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

/*─────────────────────────────── updates ──────────────────────────────────*/

type createUpdateRequest struct {
	Type        string `json:"type"        validate:"required,oneof=job connection"`
	ParentID    string `json:"parent_id"   validate:"required"`
	Date        string `json:"date"        validate:"required"`
	Description string `json:"description" validate:"required"`
}

func (a *API) handleListUpdates(w http.ResponseWriter, r *http.Request) {
	parentID := r.URL.Query().Get("parent_id")
	if parentID == "" {
		writeError(w, http.StatusBadRequest, "parent_id is required.")
		return
	}

	ups, err := tracker.UpdatesForParent(r.Context(), a.db, parentID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updates": ups})
}

func (a *API) handleCreateUpdate(w http.ResponseWriter, r *http.Request) {
	var req createUpdateRequest
	if !decodeBody(r, &req) {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	if err := a.validate.Struct(&req); err != nil {
		writeError(w, http.StatusBadRequest,
			"Type, parent id, date, and description are required.")
		return
	}

	ref := tracker.ParentRef{Kind: tracker.ParentKind(req.Type), ID: req.ParentID}
	up, err := tracker.CreateUpdate(r.Context(), a.db, ref, req.Date, req.Description)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"update": up})
}
