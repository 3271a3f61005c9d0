package search

import (
	sq "github.com/Masterminds/squirrel"
)

// spatialExpr renders a spatial descriptor into a parameterized predicate.
// A nil or empty descriptor yields no expression; the assembler falls back to
// an always-true WHERE clause in that case.
func spatialExpr(s *Spatial) (sq.Sqlizer, error) {
	if s == nil || s.Type == "" {
		return nil, nil
	}

	switch s.Type {
	case SpatialBBox:
		if len(s.Bounds) != 4 {
			return nil, &MalformedSpatialError{Type: s.Type, Reason: "bounds must be [west, south, east, north]"}
		}
		west, south, east, north := s.Bounds[0], s.Bounds[1], s.Bounds[2], s.Bounds[3]
		return sq.Expr("p.longitude BETWEEN ? AND ? AND p.latitude BETWEEN ? AND ?",
			west, east, south, north), nil

	case SpatialZip:
		if s.Code == "" {
			return nil, &MalformedSpatialError{Type: s.Type, Reason: "missing postal code"}
		}
		return sq.Expr("p.address_zip = ?", s.Code), nil

	case SpatialRadius:
		if s.Center == nil {
			return nil, &MalformedSpatialError{Type: s.Type, Reason: "missing center point"}
		}
		if s.Meters <= 0 {
			return nil, &MalformedSpatialError{Type: s.Type, Reason: "radius must be a positive distance in meters"}
		}
		return sq.Expr("ST_DWithin(p.location::geography, ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography, ?)",
			s.Center.Lon, s.Center.Lat, s.Meters), nil

	case SpatialPolygon:
		if len(s.Geometry) == 0 {
			return nil, &MalformedSpatialError{Type: s.Type, Reason: "missing polygon geometry"}
		}
		return sq.Expr("ST_Within(p.location, ST_SetSRID(ST_GeomFromGeoJSON(?), 4326))",
			string(s.Geometry)), nil

	default:
		return nil, &UnknownSpatialTypeError{Type: s.Type}
	}
}
