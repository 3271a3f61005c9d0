package search

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/scoutdata/parcelscout/internal/database"
)

// Result carries the page of matching rows plus the unpaginated match count.
type Result struct {
	Rows       []map[string]any
	TotalCount int64
}

// Executor runs a compiled plan against the database. The data and count
// queries share one parameter slice and run concurrently.
type Executor struct {
	db *database.DB
}

// NewExecutor creates an Executor backed by the given database handle.
func NewExecutor(db *database.DB) *Executor {
	return &Executor{db: db}
}

// Execute runs both halves of the plan and joins the results. Either query
// failing fails the whole search.
func (e *Executor) Execute(ctx context.Context, plan *Plan) (*Result, error) {
	var (
		rows  []map[string]any
		total int64
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		rows, err = e.db.Select(ctx, plan.DataSQL, plan.Params...)
		if err != nil {
			return fmt.Errorf("data query: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := e.db.Pool.QueryRow(ctx, plan.CountSQL, plan.Params...).Scan(&total); err != nil {
			return fmt.Errorf("count query: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Result{Rows: rows, TotalCount: total}, nil
}
