package recruitee

import (
	"context"
	"fmt"
	"net/http"
)

// endpoint maps one operation to its verb, path template and envelope keys.
// Path templates take the operation's ids as %d verbs.
type endpoint struct {
	method      string
	path        string
	requestKey  string
	responseKey string
}

func (e endpoint) resolve(ids ...int64) string {
	if len(ids) == 0 {
		return e.path
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	return fmt.Sprintf(e.path, args...)
}

// body wraps params under the request envelope key, if there is one.
func (e endpoint) body(params Params) any {
	if params == nil {
		params = Params{}
	}
	if e.requestKey == "" {
		return params
	}
	return map[string]any{e.requestKey: params}
}

func (e endpoint) do(ctx context.Context, r Requester, opts RequestOptions, out any, ids ...int64) error {
	resp, err := r.Request(ctx, e.method, e.resolve(ids...), opts)
	if err != nil {
		return err
	}
	_, err = resp.Unwrap(e.responseKey, out)
	return err
}

func (e endpoint) record(ctx context.Context, r Requester, opts RequestOptions, ids ...int64) (Record, error) {
	var rec Record
	if err := e.do(ctx, r, opts, &rec, ids...); err != nil {
		return nil, err
	}
	return rec, nil
}

func (e endpoint) records(ctx context.Context, r Requester, query Query, ids ...int64) ([]Record, error) {
	var recs []Record
	if err := e.do(ctx, r, RequestOptions{Query: query}, &recs, ids...); err != nil {
		return nil, err
	}
	return recs, nil
}

// resource is the CRUD table shared by most facades.
type resource struct {
	r      Requester
	list   endpoint
	fetch  endpoint
	create endpoint
	update endpoint
	remove endpoint
}

func crud(r Requester, base, singular, plural string) resource {
	item := base + "/%d"
	return resource{
		r:      r,
		list:   endpoint{method: http.MethodGet, path: base, responseKey: plural},
		fetch:  endpoint{method: http.MethodGet, path: item, responseKey: singular},
		create: endpoint{method: http.MethodPost, path: base, requestKey: singular, responseKey: singular},
		update: endpoint{method: http.MethodPatch, path: item, requestKey: singular, responseKey: singular},
		remove: endpoint{method: http.MethodDelete, path: item, responseKey: singular},
	}
}

// List returns the collection, filtered by query.
func (res resource) List(ctx context.Context, query Query) ([]Record, error) {
	return res.list.records(ctx, res.r, query)
}

// Fetch returns a single record.
func (res resource) Fetch(ctx context.Context, id int64, query Query) (Record, error) {
	return res.fetch.record(ctx, res.r, RequestOptions{Query: query}, id)
}

// Update changes the given fields of a record.
func (res resource) Update(ctx context.Context, id int64, params Params) (Record, error) {
	return res.update.record(ctx, res.r, RequestOptions{Body: res.update.body(params)}, id)
}

// Delete removes a record and returns it.
func (res resource) Delete(ctx context.Context, id int64, query Query) (Record, error) {
	return res.remove.record(ctx, res.r, RequestOptions{Query: query}, id)
}
