// internal/api/instance.go
//
// Instance lifecycle endpoints.
//
// Context
// -------
// All four operations are POSTs with JSON bodies.  Error mapping:
//
//	*instance.ValidationError → 400 with a user-readable message,
//	instance.ErrNotFound      → 401 on validate, 404 on update,
//	instance.ErrUnauthorized  → 401 on delete,
//	anything else             → opaque 500.
//
// Validate's 401 is deliberately indistinguishable between "no instance
// registered" and "wrong secret".
package api

import (
	"errors"
	"net/http"

	"github.com/pursuithq/pursuit/internal/instance"
)

type registerRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Secret string `json:"secret"`
}

type secretRequest struct {
	Secret string `json:"secret"`
}

type updateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type instanceResponse struct {
	Instance *instance.Instance `json:"instance"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeBody(r, &req) {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	inst, err := a.svc.Register(r.Context(), req.Name, req.Email, req.Secret)
	if err != nil {
		if instance.IsValidation(err) {
			writeError(w, http.StatusBadRequest, "Name, email, and secret are required.")
			return
		}
		a.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, instanceResponse{Instance: inst})
}

func (a *API) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req secretRequest
	if !decodeBody(r, &req) {
		writeError(w, http.StatusBadRequest, "Secret is required.")
		return
	}

	inst, err := a.svc.Validate(r.Context(), req.Secret)
	if err != nil {
		switch {
		case instance.IsValidation(err):
			writeError(w, http.StatusBadRequest, "Secret is required.")
		case errors.Is(err, instance.ErrNotFound):
			writeError(w, http.StatusUnauthorized, "Invalid secret.")
		default:
			a.fail(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, instanceResponse{Instance: inst})
}

func (a *API) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if !decodeBody(r, &req) {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	inst, err := a.svc.Update(r.Context(), req.Name, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, instance.ErrNotFound):
			writeError(w, http.StatusNotFound, "No instance found to update.")
		case instance.IsValidation(err):
			writeError(w, http.StatusBadRequest, "Name and email are required.")
		default:
			a.fail(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, instanceResponse{Instance: inst})
}

func (a *API) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req secretRequest
	if !decodeBody(r, &req) {
		writeError(w, http.StatusBadRequest, "Secret is required to delete the instance.")
		return
	}

	if err := a.svc.Delete(r.Context(), req.Secret); err != nil {
		switch {
		case instance.IsValidation(err):
			writeError(w, http.StatusBadRequest, "Secret is required to delete the instance.")
		case errors.Is(err, instance.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "Secret did not match the current instance.")
		default:
			a.fail(w, r, err)
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
