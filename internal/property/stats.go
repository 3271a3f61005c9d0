package property

import (
	"context"
	"errors"

	sq "github.com/Masterminds/squirrel"
)

// ErrNoStatsArea indicates a stats request with no area constraint. An
// unconstrained aggregate over the whole table is never intended.
var ErrNoStatsArea = errors.New("market stats require at least one of zip, city, or fips")

// StatsRequest scopes a market-statistics aggregate. At least one area field
// must be set; PropertyUseGroup further narrows within the area.
type StatsRequest struct {
	Zip              string `json:"zip,omitempty"`
	City             string `json:"city,omitempty"`
	State            string `json:"state,omitempty"`
	Fips             string `json:"fips,omitempty"`
	PropertyUseGroup string `json:"property_use_group,omitempty"`
}

// Stats summarizes the parcels matching a StatsRequest.
type Stats struct {
	ParcelCount      int64    `json:"parcel_count"`
	AvgYearBuilt     *float64 `json:"avg_year_built"`
	AvgBuildingSqft  *float64 `json:"avg_building_sqft"`
	AvgLotAcres      *float64 `json:"avg_lot_acres"`
	AvgAssessedValue *float64 `json:"avg_assessed_value"`
	MedianSalePrice  *float64 `json:"median_sale_price"`
	AvgSalePrice     *float64 `json:"avg_sale_price"`
	SalesLast12Mo    int64    `json:"sales_last_12_months"`
}

// buildStatsQuery renders the aggregate for one stats request.
func buildStatsQuery(req StatsRequest) (string, []any, error) {
	query := sq.Select(
		"COUNT(*) AS parcel_count",
		"AVG(p.year_built) AS avg_year_built",
		"AVG(p.area_building) AS avg_building_sqft",
		"AVG(p.area_lot_acres) AS avg_lot_acres",
		"AVG(p.tax_assessed_value_total) AS avg_assessed_value",
		"PERCENTILE_CONT(0.5) WITHIN GROUP (ORDER BY p.last_sale_price) AS median_sale_price",
		"AVG(p.last_sale_price) AS avg_sale_price",
		"COUNT(*) FILTER (WHERE p.last_sale_date >= NOW() - INTERVAL '12 months') AS sales_last_12_months",
	).From("properties p")

	constrained := false
	if req.Zip != "" {
		query = query.Where(sq.Eq{"p.address_zip": req.Zip})
		constrained = true
	}
	if req.City != "" {
		query = query.Where(sq.Expr("p.address_city ILIKE ?", req.City))
		constrained = true
	}
	if req.State != "" {
		query = query.Where(sq.Eq{"p.address_state": req.State})
	}
	if req.Fips != "" {
		query = query.Where(sq.Eq{"p.fips_code": req.Fips})
		constrained = true
	}
	if req.PropertyUseGroup != "" {
		query = query.Where(sq.Eq{"p.property_use_group": req.PropertyUseGroup})
	}
	if !constrained {
		return "", nil, ErrNoStatsArea
	}

	return query.PlaceholderFormat(sq.Dollar).ToSql()
}

// MarketStats aggregates parcel counts, sizes, and sale prices for an area.
func (s *Service) MarketStats(ctx context.Context, req StatsRequest) (*Stats, error) {
	query, args, err := buildStatsQuery(req)
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	err = s.db.Pool.QueryRow(ctx, query, args...).Scan(
		&stats.ParcelCount,
		&stats.AvgYearBuilt,
		&stats.AvgBuildingSqft,
		&stats.AvgLotAcres,
		&stats.AvgAssessedValue,
		&stats.MedianSalePrice,
		&stats.AvgSalePrice,
		&stats.SalesLast12Mo,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}
