package recruitee

import "context"

// Offers manages job offers under /offers.
type Offers struct {
	resource
}

func offers(r Requester) resource {
	return crud(r, "/offers", "offer", "offers")
}

// Create publishes a new offer from params.
func (o *Offers) Create(ctx context.Context, params Params) (Record, error) {
	return o.create.record(ctx, o.r, RequestOptions{Body: o.create.body(params)})
}
