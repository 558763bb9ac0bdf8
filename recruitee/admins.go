package recruitee

import (
	"context"
	"net/http"
)

// Admins lists the company's team members.
type Admins struct {
	r Requester
}

var listAdmins = endpoint{method: http.MethodGet, path: "/admins", responseKey: "admins"}

// List returns the company's admins, filtered by query.
func (a *Admins) List(ctx context.Context, query Query) ([]Record, error) {
	return listAdmins.records(ctx, a.r, query)
}
