// internal/api/router.go
//
// Pursuit HTTP surface.
//
// Context
// -------
// One chi router carries the whole JSON API.  The instance lifecycle
// endpoints are the access-control gate; the tracker endpoints are plain
// keyed CRUD behind the same base path.  The tracker routes carry no
// per-request secret check — possession of the deployment is established
// by the guard on the client side, which mirrors how the protected layout
// worked in the UI this API serves.
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/pursuithq/pursuit/internal/instance"
)

// API bundles the handler dependencies.
type API struct {
	svc      *instance.Service
	db       *sqlx.DB
	log      *zap.SugaredLogger
	validate *validator.Validate
}

// New wires an API.  A nil logger falls back to the global.
func New(svc *instance.Service, db *sqlx.DB, log *zap.SugaredLogger) *API {
	if log == nil {
		log = zap.S()
	}
	return &API{
		svc:      svc,
		db:       db,
		log:      log,
		validate: validator.New(),
	}
}

// Routes builds and returns the router mounted at "/".
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/api", func(r chi.Router) {
		r.Route("/instance", func(r chi.Router) {
			r.Post("/register", a.handleRegister)
			r.Post("/validate", a.handleValidate)
			r.Post("/update", a.handleUpdate)
			r.Post("/delete", a.handleDelete)
		})

		r.Route("/jobs", func(r chi.Router) {
			r.Get("/", a.handleListJobs)
			r.Post("/", a.handleCreateJob)
			r.Get("/{id}", a.handleGetJob)
			r.Put("/{id}", a.handlePatchJob)
			r.Delete("/{id}", a.handleDeleteJob)
		})

		r.Route("/connections", func(r chi.Router) {
			r.Get("/", a.handleListConnections)
			r.Post("/", a.handleCreateConnection)
			r.Get("/{id}", a.handleGetConnection)
			r.Put("/{id}", a.handlePatchConnection)
			r.Delete("/{id}", a.handleDeleteConnection)
		})

		r.Route("/updates", func(r chi.Router) {
			r.Get("/", a.handleListUpdates)
			r.Post("/", a.handleCreateUpdate)
		})
	})

	return r
}

// fail logs the underlying error and answers with an opaque 500.
func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	a.log.Errorw("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"err", err,
	)
	writeError(w, http.StatusInternalServerError, "Internal server error.")
}
