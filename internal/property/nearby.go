package property

import (
	"context"
	"fmt"
)

const (
	defaultNearbyLimit = 25
	maxNearbyLimit     = 100
	maxNearbyMeters    = 16000
)

// nearbyQuery returns parcels within a radius of a point, closest first, with
// the computed distance projected alongside the usual address columns.
const nearbyQuery = `
SELECT p.parcel_id, p.address_full, p.address_city, p.address_state,
       p.address_zip, p.latitude, p.longitude,
       p.property_use_standardized, p.property_use_group,
       p.year_built, p.area_building, p.last_sale_date, p.last_sale_price,
       ST_Distance(p.location::geography,
                   ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography) AS distance_meters
FROM properties p
WHERE ST_DWithin(p.location::geography,
                 ST_SetSRID(ST_MakePoint($1, $2), 4326)::geography, $3)
ORDER BY distance_meters ASC
LIMIT $4`

// Nearby lists parcels within meters of the given point, nearest first.
// The radius is capped at 16 km and the page size at 100 rows.
func (s *Service) Nearby(ctx context.Context, lat, lon float64, meters float64, limit int) ([]map[string]any, error) {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("invalid center point (%f, %f)", lat, lon)
	}
	if meters <= 0 {
		return nil, fmt.Errorf("radius must be a positive distance in meters")
	}
	if meters > maxNearbyMeters {
		meters = maxNearbyMeters
	}
	if limit <= 0 {
		limit = defaultNearbyLimit
	}
	if limit > maxNearbyLimit {
		limit = maxNearbyLimit
	}

	return s.db.Select(ctx, nearbyQuery, lon, lat, meters, limit)
}
