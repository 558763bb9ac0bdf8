package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ochronus/gorecruitee/internal/app"
	"github.com/ochronus/gorecruitee/recruitee"
	"github.com/spf13/cobra"
)

func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// call runs op under the container's retry policy.
func call[T any](ctx context.Context, container *app.Container, op func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := container.Do(ctx, func(ctx context.Context) error {
		var err error
		result, err = op(ctx)
		return err
	})
	return result, err
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return id, nil
}

func toQuery(values map[string]string) recruitee.Query {
	if len(values) == 0 {
		return nil
	}
	query := make(recruitee.Query, len(values))
	for k, v := range values {
		query[k] = v
	}
	return query
}

// lister is the List method shared by the collection facades.
type lister func(ctx context.Context, query recruitee.Query) ([]recruitee.Record, error)

func (c *cli) listCmd(short string, list func(*recruitee.Client) lister) *cobra.Command {
	var query map[string]string

	cmd := &cobra.Command{
		Use:   "list",
		Short: short,
		Args:  cobra.NoArgs,
		RunE: c.withContainer(func(ctx context.Context, container *app.Container, args []string) (any, error) {
			return call(ctx, container, func(ctx context.Context) ([]recruitee.Record, error) {
				return list(container.Client)(ctx, toQuery(query))
			})
		}),
	}
	cmd.Flags().StringToStringVarP(&query, "query", "q", nil, "Extra query parameters (key=value)")
	return cmd
}

// fetcher is the Fetch method shared by the collection facades.
type fetcher func(ctx context.Context, id int64, query recruitee.Query) (recruitee.Record, error)

func (c *cli) getCmd(short string, fetch func(*recruitee.Client) fetcher) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: c.withContainer(func(ctx context.Context, container *app.Container, args []string) (any, error) {
			id, err := parseID(args[0])
			if err != nil {
				return nil, err
			}
			return call(ctx, container, func(ctx context.Context) (recruitee.Record, error) {
				return fetch(container.Client)(ctx, id, nil)
			})
		}),
	}
}

func (c *cli) deleteCmd(short string, remove func(*recruitee.Client) fetcher) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: c.withContainer(func(ctx context.Context, container *app.Container, args []string) (any, error) {
			id, err := parseID(args[0])
			if err != nil {
				return nil, err
			}
			// Deletes are not retried; a lost response would make the retry fail with 404.
			return remove(container.Client)(ctx, id, nil)
		}),
	}
}

func (c *cli) candidatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "candidates",
		Short: "Manage candidates",
	}
	cmd.AddCommand(c.listCmd("List candidates", func(client *recruitee.Client) lister { return client.Candidates.List }))
	cmd.AddCommand(c.candidatesGetCmd())
	cmd.AddCommand(c.candidatesSearchCmd())
	cmd.AddCommand(c.candidatesCreateCmd())
	cmd.AddCommand(c.deleteCmd("Delete a candidate", func(client *recruitee.Client) fetcher { return client.Candidates.Delete }))
	return cmd
}

func (c *cli) candidatesGetCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "get [id]",
		Short: "Show a candidate by id or email",
		Args:  cobra.MaximumNArgs(1),
		RunE: c.withContainer(func(ctx context.Context, container *app.Container, args []string) (any, error) {
			if email != "" {
				rec, err := call(ctx, container, func(ctx context.Context) (recruitee.Record, error) {
					return container.Client.Candidates.FetchByEmail(ctx, email, nil)
				})
				if err != nil {
					return nil, err
				}
				if rec == nil {
					return nil, fmt.Errorf("no candidate found for %s", email)
				}
				return rec, nil
			}

			if len(args) != 1 {
				return nil, fmt.Errorf("either an id or --email is required")
			}
			id, err := parseID(args[0])
			if err != nil {
				return nil, err
			}
			return call(ctx, container, func(ctx context.Context) (recruitee.Record, error) {
				return container.Client.Candidates.Fetch(ctx, id, nil)
			})
		}),
	}
	cmd.Flags().StringVar(&email, "email", "", "Look the candidate up by email")
	return cmd
}

func (c *cli) candidatesSearchCmd() *cobra.Command {
	var (
		field  string
		limit  int
		page   int
		sortBy string
	)

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search candidates",
		Args:  cobra.ExactArgs(1),
		RunE: c.withContainer(func(ctx context.Context, container *app.Container, args []string) (any, error) {
			opts := recruitee.SearchOptions{
				Filters: []recruitee.Filter{{Field: field, Query: args[0]}},
				Limit:   limit,
				Page:    page,
				SortBy:  sortBy,
			}
			return call(ctx, container, func(ctx context.Context) (*recruitee.SearchResult, error) {
				return container.Client.Candidates.Search(ctx, opts)
			})
		}),
	}
	cmd.Flags().StringVar(&field, "field", "all", "Field to match the term against")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of hits")
	cmd.Flags().IntVar(&page, "page", 1, "Page of hits to return")
	cmd.Flags().StringVar(&sortBy, "sort-by", "relevance", "Sort order")
	return cmd
}

func (c *cli) candidatesCreateCmd() *cobra.Command {
	var (
		name   string
		emails []string
		phones []string
		offers []int64
		cvPath string
		fields map[string]string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a candidate",
		Args:  cobra.NoArgs,
		RunE: c.withContainer(func(ctx context.Context, container *app.Container, args []string) (any, error) {
			params := recruitee.Params{"name": name}
			for k, v := range fields {
				params[k] = v
			}
			if len(emails) > 0 {
				params["emails"] = emails
			}
			if len(phones) > 0 {
				params["phones"] = phones
			}
			if len(offers) > 0 {
				params["offers"] = offers
			}

			if cvPath != "" {
				cv, err := os.Open(cvPath)
				if err != nil {
					return nil, fmt.Errorf("failed to open CV: %w", err)
				}
				defer cv.Close()
				params["cv"] = cv
			}

			// Creates are not retried; a lost response would create a duplicate.
			return container.Client.Candidates.Create(ctx, params)
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "Full name")
	cmd.Flags().StringSliceVar(&emails, "email", nil, "Email address (repeatable)")
	cmd.Flags().StringSliceVar(&phones, "phone", nil, "Phone number (repeatable)")
	cmd.Flags().Int64SliceVar(&offers, "offer", nil, "Offer id to assign the candidate to (repeatable)")
	cmd.Flags().StringVar(&cvPath, "cv", "", "Path to a CV file to upload")
	cmd.Flags().StringToStringVar(&fields, "field", nil, "Extra candidate fields (key=value)")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func (c *cli) offersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offers",
		Short: "Browse job offers",
	}
	cmd.AddCommand(c.listCmd("List offers", func(client *recruitee.Client) lister { return client.Offers.List }))
	cmd.AddCommand(c.getCmd("Show an offer", func(client *recruitee.Client) fetcher { return client.Offers.Fetch }))
	return cmd
}

func (c *cli) adminsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admins",
		Short: "Browse team members",
	}
	cmd.AddCommand(c.listCmd("List admins", func(client *recruitee.Client) lister { return client.Admins.List }))
	return cmd
}

func (c *cli) evaluationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluations",
		Short: "Browse interview results",
	}
	cmd.AddCommand(c.listCmd("List evaluations", func(client *recruitee.Client) lister { return client.Evaluations.List }))
	return cmd
}

func (c *cli) eventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Browse interview events",
	}
	cmd.AddCommand(c.listCmd("List events", func(client *recruitee.Client) lister { return client.Events.List }))
	return cmd
}

func (c *cli) placementsCmd() *cobra.Command {
	var candidateID, offerID, stageID int64

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Place a candidate on an offer",
		Args:  cobra.NoArgs,
		RunE: c.withContainer(func(ctx context.Context, container *app.Container, args []string) (any, error) {
			params := recruitee.Params{
				"candidateId": candidateID,
				"offerId":     offerID,
			}
			if stageID > 0 {
				params["stageId"] = stageID
			}
			// Not retried, see candidates create.
			return container.Client.Placements.Create(ctx, params)
		}),
	}
	createCmd.Flags().Int64Var(&candidateID, "candidate", 0, "Candidate id")
	createCmd.Flags().Int64Var(&offerID, "offer", 0, "Offer id")
	createCmd.Flags().Int64Var(&stageID, "stage", 0, "Pipeline stage id")
	_ = createCmd.MarkFlagRequired("candidate")
	_ = createCmd.MarkFlagRequired("offer")

	cmd := &cobra.Command{
		Use:   "placements",
		Short: "Manage placements",
	}
	cmd.AddCommand(createCmd)
	cmd.AddCommand(c.deleteCmd("Delete a placement", func(client *recruitee.Client) fetcher { return client.Placements.Delete }))
	return cmd
}
