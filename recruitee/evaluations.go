package recruitee

import (
	"context"
	"net/http"
)

// Evaluations manages interview results (scorecards) under /interview/results.
type Evaluations struct {
	resource
}

func evaluations(r Requester) resource {
	res := crud(r, "/interview/results", "interview_result", "interview_results")
	res.create = endpoint{
		method:      http.MethodPost,
		path:        "/interview/candidates/%d/results",
		requestKey:  "interview_result",
		responseKey: "interview_result",
	}
	return res
}

// Create records an evaluation of the candidate.
func (e *Evaluations) Create(ctx context.Context, candidateID int64, params Params) (Record, error) {
	return e.create.record(ctx, e.r, RequestOptions{Body: e.create.body(params)}, candidateID)
}
