// Package property serves single-parcel lookups: full detail records, nearby
// parcels, and area-level market statistics.
package property

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/maypok86/otter"
	"golang.org/x/sync/errgroup"

	"github.com/scoutdata/parcelscout/internal/database"
)

// NotFoundError indicates a parcel id with no matching property row.
type NotFoundError struct {
	ParcelID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no property found for parcel %d", e.ParcelID)
}

// Detail is the complete record for one parcel: the base property row plus
// every related table keyed by parcel id.
type Detail struct {
	Property     map[string]any   `json:"property"`
	Ownership    []map[string]any `json:"ownership"`
	Assessments  []map[string]any `json:"tax_assessments"`
	Sales        []map[string]any `json:"sales_transactions"`
	Loans        []map[string]any `json:"current_loans"`
	Valuations   []map[string]any `json:"property_valuations"`
	ClimateRisk  []map[string]any `json:"climate_risk"`
	Permits      []map[string]any `json:"building_permits"`
	Foreclosures []map[string]any `json:"foreclosure_records"`
}

// relatedQueries maps each related table to its detail query. All are keyed by
// parcel_id; ordering puts the most recent record first where the table has a
// natural date.
var relatedQueries = map[string]string{
	"ownership":           `SELECT * FROM ownership WHERE parcel_id = $1`,
	"tax_assessments":     `SELECT * FROM tax_assessments WHERE parcel_id = $1 ORDER BY tax_year DESC`,
	"sales_transactions":  `SELECT * FROM sales_transactions WHERE parcel_id = $1 ORDER BY sale_date DESC`,
	"current_loans":       `SELECT * FROM current_loans WHERE parcel_id = $1 ORDER BY loan_recording_date DESC`,
	"property_valuations": `SELECT * FROM property_valuations WHERE parcel_id = $1 ORDER BY valuation_date DESC`,
	"climate_risk":        `SELECT * FROM climate_risk WHERE parcel_id = $1`,
	"building_permits":    `SELECT * FROM building_permits WHERE parcel_id = $1 ORDER BY permit_date DESC`,
	"foreclosure_records": `SELECT * FROM foreclosure_records WHERE parcel_id = $1 ORDER BY recording_date DESC`,
}

const propertyQuery = `SELECT * FROM properties WHERE parcel_id = $1`

// Service answers parcel detail lookups with a read-through in-memory cache
// in front of the database.
type Service struct {
	db    *database.DB
	cache otter.Cache[int64, *Detail]
}

// NewService creates a property Service. Capacity bounds the number of cached
// details and ttl bounds their staleness.
func NewService(db *database.DB, capacity int, ttl time.Duration) (*Service, error) {
	cache, err := otter.MustBuilder[int64, *Detail](capacity).
		WithTTL(ttl).
		Build()
	if err != nil {
		return nil, fmt.Errorf("building detail cache: %w", err)
	}
	return &Service{db: db, cache: cache}, nil
}

// Close releases the cache's background resources.
func (s *Service) Close() {
	s.cache.Close()
}

// Detail returns the full record for one parcel. The base property row and
// all related tables are fetched concurrently on a cache miss.
func (s *Service) Detail(ctx context.Context, parcelID int64) (*Detail, error) {
	if cached, ok := s.cache.Get(parcelID); ok {
		return cached, nil
	}

	detail := &Detail{}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		row, err := s.db.SelectRow(ctx, propertyQuery, parcelID)
		if err != nil {
			return fmt.Errorf("property row: %w", err)
		}
		if row == nil {
			return &NotFoundError{ParcelID: parcelID}
		}
		detail.Property = row
		return nil
	})

	targets := map[string]*[]map[string]any{
		"ownership":           &detail.Ownership,
		"tax_assessments":     &detail.Assessments,
		"sales_transactions":  &detail.Sales,
		"current_loans":       &detail.Loans,
		"property_valuations": &detail.Valuations,
		"climate_risk":        &detail.ClimateRisk,
		"building_permits":    &detail.Permits,
		"foreclosure_records": &detail.Foreclosures,
	}
	for table, target := range targets {
		g.Go(func() error {
			rows, err := s.db.Select(ctx, relatedQueries[table], parcelID)
			if err != nil {
				return fmt.Errorf("%s: %w", table, err)
			}
			*target = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if !s.cache.Set(parcelID, detail) {
		log.Printf("[property] detail cache rejected parcel %d", parcelID)
	}
	return detail, nil
}
