package recruitee

import (
	"context"
	"net/http"
)

// Events manages interview events under /interview/events.
type Events struct {
	resource
}

func events(r Requester) resource {
	res := crud(r, "/interview/events", "interview_event", "interview_events")
	res.create = endpoint{
		method:      http.MethodPost,
		path:        "/interview/candidates/%d/events",
		requestKey:  "interview_event",
		responseKey: "interview_event",
	}
	return res
}

var scheduleEvent = endpoint{
	method:      http.MethodPost,
	path:        "/interview/events/%d/schedule",
	requestKey:  "interview_event",
	responseKey: "interview_event",
}

// Create adds an interview event for the candidate.
func (e *Events) Create(ctx context.Context, candidateID int64, params Params) (Record, error) {
	return e.create.record(ctx, e.r, RequestOptions{Body: e.create.body(params)}, candidateID)
}

// Schedule books an existing event, sending invitations to its attendees.
func (e *Events) Schedule(ctx context.Context, id int64, params Params) (Record, error) {
	return scheduleEvent.record(ctx, e.r, RequestOptions{Body: scheduleEvent.body(params)}, id)
}
