package recruitee

import (
	"context"
	"net/http"
)

// Placements assigns candidates to offers and pipeline stages.
type Placements struct {
	r Requester
}

var (
	createPlacement = endpoint{method: http.MethodPost, path: "/placements", responseKey: "placement"}
	deletePlacement = endpoint{method: http.MethodDelete, path: "/placements/%d", responseKey: "placement"}
)

// placementKeys renames the id params to the API's field names.
var placementKeys = map[string]string{
	"candidateId": "candidate_id",
	"offerId":     "offer_id",
	"stageId":     "stage_id",
}

// Create places a candidate on an offer. The candidateId, offerId and stageId
// params are sent as candidate_id, offer_id and stage_id; every other param
// is passed through unchanged at the top level of the body.
func (p *Placements) Create(ctx context.Context, params Params) (Record, error) {
	body := Params{}
	for from, to := range placementKeys {
		if v, ok := params[from]; ok {
			body[to] = v
		}
	}
	for k, v := range params {
		if _, renamed := placementKeys[k]; !renamed {
			body[k] = v
		}
	}
	return createPlacement.record(ctx, p.r, RequestOptions{Body: createPlacement.body(body)})
}

// Delete removes a placement and returns it.
func (p *Placements) Delete(ctx context.Context, id int64, query Query) (Record, error) {
	return deletePlacement.record(ctx, p.r, RequestOptions{Query: query}, id)
}
