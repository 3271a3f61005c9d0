package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scoutdata/parcelscout/internal/registry"
)

// stubSource serves fixed registry fixtures without a database.
type stubSource struct {
	filters []registry.FilterDefinition
	joins   []registry.JoinDefinition
}

func (s *stubSource) FetchFilters(ctx context.Context) ([]registry.FilterDefinition, error) {
	return s.filters, nil
}

func (s *stubSource) FetchJoins(ctx context.Context) ([]registry.JoinDefinition, error) {
	return s.joins, nil
}

var testFilters = []registry.FilterDefinition{
	{
		Key: "property-use-group", Name: "Property Use Group", Category: "property",
		Family: registry.FamilyEnum, SourceTable: "properties",
		SourceColumns: []string{"property_use_group"},
		AllowedValues: []string{"Residential", "Commercial", "Vacant Land"},
		Active:        true,
	},
	{
		Key: "sqft", Name: "Building Square Feet", Category: "property",
		Family: registry.FamilyNumericRange, SourceTable: "properties",
		SourceColumns: []string{"area_building"},
		Active:        true,
	},
	{
		Key: "year-built", Name: "Year Built", Category: "property",
		Family: registry.FamilyNumericRange, SourceTable: "properties",
		SourceColumns: []string{"year_built"},
		Active:        true,
	},
	{
		Key: "last-sale-date", Name: "Last Sale Date", Category: "sales",
		Family: registry.FamilyDateRange, SourceTable: "properties",
		SourceColumns: []string{"last_sale_date"},
		Active:        true,
	},
	{
		Key: "city", Name: "City", Category: "location",
		Family: registry.FamilyTextSearch, SourceTable: "properties",
		SourceColumns: []string{"address_city"},
		Active:        true,
	},
	{
		Key: "tax-delinquent", Name: "Tax Delinquent", Category: "distress",
		Family: registry.FamilyBoolean, SourceTable: "tax_assessments",
		SourceColumns: []string{"tax_delinquent_year"},
		SQLTemplate:   "ta.tax_delinquent_year IS NOT NULL",
		Active:        true,
	},
	{
		Key: "absentee-owner", Name: "Absentee Owner", Category: "ownership",
		Family: registry.FamilyBoolean, SourceTable: "ownership",
		SourceColumns: []string{"is_absentee_owner"},
		SQLTemplate:   "o.is_absentee_owner = ?",
		Active:        true,
	},
	{
		Key: "foreclosure-status", Name: "Foreclosure Status", Category: "distress",
		Family: registry.FamilyEnum, SourceTable: "foreclosure_records",
		SourceColumns: []string{"foreclosure_status"},
		AllowedValues: []string{"pre-foreclosure", "auction", "bank-owned"},
		Active:        true,
	},
	{
		Key: "estimated-value", Name: "Estimated Value", Category: "valuation",
		Family: registry.FamilyNumericRange, SourceTable: "property_valuations",
		SourceColumns: []string{"estimated_value"},
		Active:        true,
	},
	{
		Key: "loan-due-date", Name: "Loan Due Date", Category: "loans",
		Family: registry.FamilyDateRange, SourceTable: "current_loans",
		SourceColumns: []string{"loan_due_date"},
		Active:        true,
	},
	// building_permits has no join definition on purpose: compiling a filter
	// against it must fail closed.
	{
		Key: "permit-type", Name: "Permit Type", Category: "permits",
		Family: registry.FamilyEnum, SourceTable: "building_permits",
		SourceColumns: []string{"permit_type"},
		Active:        true,
	},
}

var testJoins = []registry.JoinDefinition{
	{
		Table: "ownership", Alias: "o",
		JoinClause:   "LEFT JOIN ownership o ON o.parcel_id = p.parcel_id",
		ExtraColumns: []string{"o.owner_name", "o.is_absentee_owner"},
	},
	{
		Table: "tax_assessments", Alias: "ta",
		JoinClause:   "LEFT JOIN tax_assessments ta ON ta.parcel_id = p.parcel_id AND ta.is_latest = TRUE",
		ExtraColumns: []string{"ta.tax_delinquent_year"},
	},
	{
		Table: "property_valuations", Alias: "pv",
		JoinClause:   "LEFT JOIN property_valuations pv ON pv.parcel_id = p.parcel_id AND pv.is_latest = TRUE",
		ExtraColumns: []string{"pv.estimated_value"},
	},
	{
		Table: "current_loans", Alias: "cl",
		JoinClause: "LEFT JOIN current_loans cl ON cl.parcel_id = p.parcel_id",
	},
	{
		Table: "foreclosure_records", Alias: "fr",
		JoinClause:   "LEFT JOIN foreclosure_records fr ON fr.parcel_id = p.parcel_id",
		ExtraColumns: []string{"fr.foreclosure_status"},
	},
}

// newTestStore returns a loaded registry over the shared fixtures.
func newTestStore(t *testing.T) *registry.Store {
	t.Helper()
	store := registry.NewStore(&stubSource{filters: testFilters, joins: testJoins})
	require.NoError(t, store.Load(context.Background()))
	return store
}
