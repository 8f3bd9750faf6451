package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/bedquiltdb/bedquilt/engine"
	"github.com/bedquiltdb/bedquilt/value"
)

// decodeBody JSON-decodes r's body into dst, treating an empty body as
// "all fields default" rather than an error.
func decodeBody(r *http.Request, dst any) error {
	if r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

type docRequest struct {
	Document value.Value `json:"document"`
}

func handleInsert(ctx context.Context, e *engine.Engine, r *http.Request) (any, int, error) {
	var req docRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, 0, err
	}
	doc, err := e.Insert(ctx, r.PathValue("name"), req.Document)
	if err != nil {
		return nil, 0, err
	}
	return doc, http.StatusCreated, nil
}

func handleSave(ctx context.Context, e *engine.Engine, r *http.Request) (any, int, error) {
	var req docRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, 0, err
	}
	doc, err := e.Save(ctx, r.PathValue("name"), req.Document)
	if err != nil {
		return nil, 0, err
	}
	return doc, 0, nil
}

type findRequest struct {
	Query   value.Value `json:"query"`
	Sort    value.Value `json:"sort"`
	Skip    int         `json:"skip"`
	Limit   int         `json:"limit"`
	Project value.Value `json:"project"`
}

func handleFind(ctx context.Context, e *engine.Engine, r *http.Request) (any, int, error) {
	var req findRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, 0, err
	}
	docs, err := e.Find(ctx, r.PathValue("name"), req.Query, engine.FindOptions{
		Sort: req.Sort, Skip: req.Skip, Limit: req.Limit, Project: req.Project,
	})
	if err != nil {
		return nil, 0, err
	}
	return docs, 0, nil
}

func handleFindOne(ctx context.Context, e *engine.Engine, r *http.Request) (any, int, error) {
	var req findRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, 0, err
	}
	doc, ok, err := e.FindOne(ctx, r.PathValue("name"), req.Query, engine.FindOptions{
		Sort: req.Sort, Skip: req.Skip, Project: req.Project,
	})
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return value.Null, 0, nil
	}
	return doc, 0, nil
}

type idRequest struct {
	ID      string      `json:"id"`
	Project value.Value `json:"project"`
}

func handleFindOneByID(ctx context.Context, e *engine.Engine, r *http.Request) (any, int, error) {
	var req idRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, 0, err
	}
	doc, ok, err := e.FindOneByID(ctx, r.PathValue("name"), req.ID, req.Project)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return value.Null, 0, nil
	}
	return doc, 0, nil
}

type queryRequest struct {
	Query value.Value `json:"query"`
}

func handleCount(ctx context.Context, e *engine.Engine, r *http.Request) (any, int, error) {
	var req queryRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, 0, err
	}
	n, err := e.Count(ctx, r.PathValue("name"), req.Query)
	if err != nil {
		return nil, 0, err
	}
	return n, 0, nil
}

type distinctRequest struct {
	Path  string      `json:"path"`
	Query value.Value `json:"query"`
}

func handleDistinct(ctx context.Context, e *engine.Engine, r *http.Request) (any, int, error) {
	var req distinctRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, 0, err
	}
	vals, err := e.Distinct(ctx, r.PathValue("name"), req.Path, req.Query)
	if err != nil {
		return nil, 0, err
	}
	return vals, 0, nil
}

func handleRemove(ctx context.Context, e *engine.Engine, r *http.Request) (any, int, error) {
	var req queryRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, 0, err
	}
	n, err := e.Remove(ctx, r.PathValue("name"), req.Query)
	if err != nil {
		return nil, 0, err
	}
	return n, 0, nil
}

func handleRemoveOne(ctx context.Context, e *engine.Engine, r *http.Request) (any, int, error) {
	var req queryRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, 0, err
	}
	doc, ok, err := e.RemoveOne(ctx, r.PathValue("name"), req.Query)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return 0, 0, nil
	}
	_ = doc
	return 1, 0, nil
}

func handleRemoveOneByID(ctx context.Context, e *engine.Engine, r *http.Request) (any, int, error) {
	var req idRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, 0, err
	}
	_, ok, err := e.RemoveOneByID(ctx, r.PathValue("name"), req.ID)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return 0, 0, nil
	}
	return 1, 0, nil
}

type constraintSpecRequest struct {
	Spec value.Value `json:"spec"`
}

func handleAddConstraint(ctx context.Context, e *engine.Engine, r *http.Request) (any, int, error) {
	var req constraintSpecRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, 0, err
	}
	_, added, err := e.AddConstraint(ctx, r.PathValue("name"), req.Spec)
	if err != nil {
		return nil, 0, err
	}
	status := 0
	if added {
		status = http.StatusCreated
	}
	return added, status, nil
}

func handleRemoveConstraint(ctx context.Context, e *engine.Engine, r *http.Request) (any, int, error) {
	var req constraintSpecRequest
	if err := decodeBody(r, &req); err != nil {
		return nil, 0, err
	}
	ok, err := e.RemoveConstraint(ctx, r.PathValue("name"), req.Spec)
	if err != nil {
		return nil, 0, err
	}
	return ok, 0, nil
}

func handleListConstraints(ctx context.Context, e *engine.Engine, r *http.Request) (any, int, error) {
	list, err := e.ListConstraints(ctx, r.PathValue("name"))
	if err != nil {
		return nil, 0, err
	}
	return list, 0, nil
}

func handleListCollections(ctx context.Context, e *engine.Engine, r *http.Request) (any, int, error) {
	names, err := e.ListCollections(ctx)
	if err != nil {
		return nil, 0, err
	}
	return names, 0, nil
}

func handleCreateCollection(ctx context.Context, e *engine.Engine, r *http.Request) (any, int, error) {
	created, err := e.CreateCollection(ctx, r.PathValue("name"))
	if err != nil {
		return nil, 0, err
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return created, status, nil
}

func handleDeleteCollection(ctx context.Context, e *engine.Engine, r *http.Request) (any, int, error) {
	deleted, err := e.DeleteCollection(ctx, r.PathValue("name"))
	if err != nil {
		return nil, 0, err
	}
	return deleted, 0, nil
}
