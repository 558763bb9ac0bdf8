package main

import (
	"context"
	"fmt"

	"github.com/ochronus/gorecruitee/internal/app"
	"github.com/ochronus/gorecruitee/recruitee"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// snapshotSection is one collection included in a snapshot.
type snapshotSection struct {
	name string
	list func(*recruitee.Client) lister
}

var snapshotSections = []snapshotSection{
	{name: "admins", list: func(c *recruitee.Client) lister { return c.Admins.List }},
	{name: "offers", list: func(c *recruitee.Client) lister { return c.Offers.List }},
	{name: "candidates", list: func(c *recruitee.Client) lister { return c.Candidates.List }},
	{name: "evaluations", list: func(c *recruitee.Client) lister { return c.Evaluations.List }},
	{name: "events", list: func(c *recruitee.Client) lister { return c.Events.List }},
}

// snapshot lists every collection concurrently. The first failure cancels
// the remaining requests.
func snapshot(ctx context.Context, container *app.Container, concurrency int) (map[string][]recruitee.Record, error) {
	results := make([][]recruitee.Record, len(snapshotSections))

	g, ctx := errgroup.WithContext(ctx)
	if concurrency > 0 {
		g.SetLimit(concurrency)
	}

	for i, section := range snapshotSections {
		g.Go(func() error {
			records, err := call(ctx, container, func(ctx context.Context) ([]recruitee.Record, error) {
				return section.list(container.Client)(ctx, nil)
			})
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", section.name, err)
			}
			if records == nil {
				records = []recruitee.Record{}
			}
			results[i] = records
			container.Logger.Debugf("Listed %d %s", len(records), section.name)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]recruitee.Record, len(snapshotSections))
	for i, section := range snapshotSections {
		out[section.name] = results[i]
	}
	return out, nil
}

func (c *cli) snapshotCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Dump admins, offers, candidates, evaluations and events as one document",
		Args:  cobra.NoArgs,
		RunE: c.withContainer(func(ctx context.Context, container *app.Container, args []string) (any, error) {
			return snapshot(ctx, container, concurrency)
		}),
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 3, "Maximum number of concurrent requests")
	return cmd
}
