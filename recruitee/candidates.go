package recruitee

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// Candidates manages candidates under /candidates.
type Candidates struct {
	resource
}

func candidates(r Requester) resource {
	return crud(r, "/candidates", "candidate", "candidates")
}

var (
	updateCandidateField = endpoint{
		method:      http.MethodPatch,
		path:        "/custom_fields/candidates/fields/%d",
		requestKey:  "field",
		responseKey: "field",
	}
	searchCandidates = endpoint{method: http.MethodGet, path: "/search/new/candidates"}
	quickSearch      = endpoint{method: http.MethodGet, path: "/search/new/quick", responseKey: "candidates"}
)

// Create adds a candidate. An "offers" param holds the ids of the offers to
// assign the candidate to; it is sent next to the candidate envelope rather
// than inside it, as an empty list when absent.
func (c *Candidates) Create(ctx context.Context, params Params) (Record, error) {
	candidate := Params{}
	var offerIDs any = []any{}
	for k, v := range params {
		if k == "offers" {
			if v != nil {
				offerIDs = v
			}
			continue
		}
		candidate[k] = v
	}

	body := map[string]any{
		"candidate": candidate,
		"offers":    offerIDs,
	}
	return c.create.record(ctx, c.r, RequestOptions{Body: body})
}

// UpdateField sets the value of a custom field on a candidate's profile.
func (c *Candidates) UpdateField(ctx context.Context, fieldID int64, params Params) (Record, error) {
	return updateCandidateField.record(ctx, c.r, RequestOptions{Body: updateCandidateField.body(params)}, fieldID)
}

// Filter is one clause of a candidate search.
type Filter struct {
	Field string `json:"field"`
	Query string `json:"query"`
}

// SearchOptions configures a filtered candidate search.
type SearchOptions struct {
	Filters []Filter
	Limit   int
	Page    int
	// SortBy defaults to "relevance".
	SortBy string
	// Query holds extra query parameters, merged last.
	Query Query
}

// SearchResult is one page of search hits.
type SearchResult struct {
	Hits  []Record `json:"hits"`
	Total int      `json:"total"`
}

// Search runs a filtered full-text search over candidates.
func (c *Candidates) Search(ctx context.Context, opts SearchOptions) (*SearchResult, error) {
	filters := opts.Filters
	if filters == nil {
		filters = []Filter{}
	}
	filtersJSON, err := json.Marshal(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to encode search filters: %w", err)
	}

	sortBy := opts.SortBy
	if sortBy == "" {
		sortBy = "relevance"
	}

	query := Query{
		"filters_json": string(filtersJSON),
		"sort_by":      sortBy,
	}
	if opts.Limit > 0 {
		query["limit"] = opts.Limit
	}
	if opts.Page > 0 {
		query["page"] = opts.Page
	}
	for k, v := range opts.Query {
		query[k] = v
	}

	resp, err := c.r.Request(ctx, searchCandidates.method, searchCandidates.path, RequestOptions{Query: query})
	if err != nil {
		return nil, err
	}

	var result SearchResult
	if _, ok := resp.Body.(map[string]any); ok {
		if err := convert(resp.Body, &result); err != nil {
			return nil, fmt.Errorf("failed to decode search result: %w", err)
		}
	}
	return &result, nil
}

// FetchByEmail returns the best search hit for email, or nil when no
// candidate matches.
func (c *Candidates) FetchByEmail(ctx context.Context, email string, query Query) (Record, error) {
	result, err := c.Search(ctx, SearchOptions{
		Filters: []Filter{{Field: "all", Query: email}},
		Limit:   1,
		Query:   query,
	})
	if err != nil {
		return nil, err
	}
	if len(result.Hits) == 0 {
		return nil, nil
	}
	return result.Hits[0], nil
}

// QuickSearch looks candidates up through the quick search endpoint and
// returns the hits.
//
// Deprecated: the quick search endpoint ignores filters and relevance; use
// Search or FetchByEmail.
func (c *Candidates) QuickSearch(ctx context.Context, term string, query Query) ([]Record, error) {
	q := Query{"query": term}
	for k, v := range query {
		q[k] = v
	}

	var hits struct {
		Hits []Record `json:"hits"`
	}
	if err := quickSearch.do(ctx, c.r, RequestOptions{Query: q}, &hits); err != nil {
		return nil, err
	}
	return hits.Hits, nil
}
