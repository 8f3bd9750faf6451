// Package server exposes the engine's operation surface over HTTP,
// following the teacher's own RegisterRoutes/withDB pattern
// (atomicbase api/data/handlers.go) adapted to bedquilt's single-engine,
// single-process model: there is no per-request tenant database, so the
// wrapper closes over one *engine.Engine instead of dialing a connection
// per request.
package server

import (
	"context"
	"net/http"

	"github.com/bedquiltdb/bedquilt/config"
	"github.com/bedquiltdb/bedquilt/engine"
	"github.com/bedquiltdb/bedquilt/tools"
)

// Handler is a handler that operates on the engine and returns a JSON
// body, an HTTP status override (0 means http.StatusOK), or an error.
type Handler func(ctx context.Context, e *engine.Engine, r *http.Request) (any, int, error)

// RegisterRoutes registers the full bedquilt operation surface (§6) on
// mux, bound to e.
func RegisterRoutes(mux *http.ServeMux, e *engine.Engine) {
	mux.HandleFunc("GET /health", handleHealth())

	mux.HandleFunc("GET /collections", wrap(e, handleListCollections))
	mux.HandleFunc("POST /collections/{name}", wrap(e, handleCreateCollection))
	mux.HandleFunc("DELETE /collections/{name}", wrap(e, handleDeleteCollection))

	mux.HandleFunc("POST /collections/{name}/insert", wrap(e, handleInsert))
	mux.HandleFunc("POST /collections/{name}/save", wrap(e, handleSave))
	mux.HandleFunc("POST /collections/{name}/find", wrap(e, handleFind))
	mux.HandleFunc("POST /collections/{name}/find_one", wrap(e, handleFindOne))
	mux.HandleFunc("POST /collections/{name}/find_one_by_id", wrap(e, handleFindOneByID))
	mux.HandleFunc("POST /collections/{name}/count", wrap(e, handleCount))
	mux.HandleFunc("POST /collections/{name}/distinct", wrap(e, handleDistinct))
	mux.HandleFunc("POST /collections/{name}/remove", wrap(e, handleRemove))
	mux.HandleFunc("POST /collections/{name}/remove_one", wrap(e, handleRemoveOne))
	mux.HandleFunc("POST /collections/{name}/remove_one_by_id", wrap(e, handleRemoveOneByID))

	mux.HandleFunc("POST /collections/{name}/constraints", wrap(e, handleAddConstraint))
	mux.HandleFunc("DELETE /collections/{name}/constraints", wrap(e, handleRemoveConstraint))
	mux.HandleFunc("GET /collections/{name}/constraints", wrap(e, handleListConstraints))
}

func handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tools.RespJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// wrap adapts a Handler into an http.HandlerFunc: it bounds the request
// body, runs the handler, and maps the result (or error) to a JSON
// response, mirroring the teacher's withDB (atomicbase
// api/data/handlers.go).
func wrap(e *engine.Engine, h Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, config.Cfg.MaxRequestBody)
		defer r.Body.Close()

		result, status, err := h(r.Context(), e, r)
		if err != nil {
			tools.RespErr(w, err)
			return
		}
		if status == 0 {
			status = http.StatusOK
		}
		tools.RespJSON(w, status, result)
	}
}
