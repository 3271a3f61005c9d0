package search

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/scoutdata/parcelscout/internal/database"
	"github.com/scoutdata/parcelscout/internal/registry"
)

// AppliedFilter echoes one validated filter back to the caller, enriched with
// registry display metadata.
type AppliedFilter struct {
	Key      string   `json:"key"`
	Name     string   `json:"name"`
	Category string   `json:"category"`
	Operator Operator `json:"operator"`
	Value    any      `json:"value"`
}

// Response is the full result of a search request.
type Response struct {
	Properties     []map[string]any `json:"properties"`
	TotalCount     int64            `json:"total_count"`
	AppliedFilters []AppliedFilter  `json:"applied_filters"`
	Insights       []Insight        `json:"insights,omitempty"`
}

// Service wires the validation, compilation, and execution stages into one
// search entry point.
type Service struct {
	registry  *registry.Store
	validator *Validator
	builder   *Builder
	executor  *Executor
	insights  *InsightRunner
}

// NewService creates a Service over the given registry store and database
// handle. Limits carries the deployment's page size bounds; the zero value
// uses the built-in defaults.
func NewService(store *registry.Store, db *database.DB, limits Limits) *Service {
	return &Service{
		registry:  store,
		validator: NewValidator(store),
		builder:   NewBuilderWithLimits(store, limits),
		executor:  NewExecutor(db),
		insights:  NewInsightRunner(store, db),
	}
}

// Search validates the request, compiles it to SQL, and executes it. Any
// validation or compilation failure aborts before the database is touched.
func (s *Service) Search(ctx context.Context, req Request) (*Response, error) {
	requestID := uuid.NewString()
	start := time.Now()
	log.Printf("[search] %s: %d filters, spatial=%s", requestID, len(req.Filters), spatialLabel(req.Spatial))

	validated, err := s.validator.Validate(req.Filters)
	if err != nil {
		log.Printf("[search] %s: rejected: %v", requestID, err)
		return nil, err
	}

	plan, err := s.builder.Build(validated, req.Spatial, req.Sort, req.Limit)
	if err != nil {
		log.Printf("[search] %s: compilation failed: %v", requestID, err)
		return nil, err
	}
	log.Printf("[search] %s: compiled plan with %d params: %s", requestID, len(plan.Params), sqlPrefix(plan.DataSQL))

	result, err := s.executor.Execute(ctx, plan)
	if err != nil {
		log.Printf("[search] %s: execution failed: %v", requestID, err)
		return nil, err
	}

	resp := &Response{
		Properties:     result.Rows,
		TotalCount:     result.TotalCount,
		AppliedFilters: appliedFilters(validated),
	}

	if len(req.Insights) > 0 {
		resp.Insights = s.insights.Run(ctx, parcelIDs(result.Rows), req.Insights)
	}

	log.Printf("[search] %s: %d rows of %d matches in %s",
		requestID, len(result.Rows), result.TotalCount, time.Since(start).Round(time.Millisecond))
	return resp, nil
}

func appliedFilters(validated []ValidatedFilter) []AppliedFilter {
	applied := make([]AppliedFilter, len(validated))
	for i, vf := range validated {
		applied[i] = AppliedFilter{
			Key:      vf.Key,
			Name:     vf.Definition.Name,
			Category: vf.Definition.Category,
			Operator: vf.Operator,
			Value:    vf.Value,
		}
	}
	return applied
}

// parcelIDs pulls the parcel_id column out of the result rows. pgx decodes
// bigint columns as int64.
func parcelIDs(rows []map[string]any) []int64 {
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		switch id := row["parcel_id"].(type) {
		case int64:
			ids = append(ids, id)
		case int32:
			ids = append(ids, int64(id))
		}
	}
	return ids
}

// sqlPrefix trims a statement for log lines.
func sqlPrefix(sql string) string {
	const max = 120
	if len(sql) <= max {
		return sql
	}
	return sql[:max] + "..."
}

func spatialLabel(s *Spatial) string {
	if s == nil || s.Type == "" {
		return "none"
	}
	return string(s.Type)
}
