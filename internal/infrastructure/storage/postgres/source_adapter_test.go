package postgres

import (
	"testing"
	"time"

	"carworkshop/internal/core/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAdapter() *SourceAdapter {
	return NewSourceAdapter(nil, "Standard Selling")
}

func TestSourceAdapter_SectionQuery(t *testing.T) {
	a := newTestAdapter()

	tests := []struct {
		name    string
		section workOrderSection
		wantSQL string
	}{
		{
			name:    "parts join their catalog",
			section: workOrderSections[2],
			wantSQL: "SELECT l.name AS line_name, l.part AS reference, COALESCE(l.part_name, '') AS description, " +
				"l.quantity AS quantity, l.rate AS rate, c.item AS item FROM work_order_parts l " +
				"LEFT JOIN parts c ON c.name = l.part WHERE l.parent = $1 ORDER BY l.idx",
		},
		{
			name:    "job types use hours",
			section: workOrderSections[0],
			wantSQL: "SELECT l.name AS line_name, l.job_type AS reference, COALESCE(l.job_type_name, '') AS description, " +
				"l.hours AS quantity, l.rate AS rate, c.item AS item FROM work_order_job_types l " +
				"LEFT JOIN job_types c ON c.name = l.job_type WHERE l.parent = $1 ORDER BY l.idx",
		},
		{
			name:    "external services have no catalog",
			section: workOrderSections[3],
			wantSQL: "SELECT l.name AS line_name, l.service_name AS reference, COALESCE(l.provider, '') AS description, " +
				"1::numeric AS quantity, l.rate AS rate, NULL::text AS item FROM work_order_external_services l " +
				"WHERE l.parent = $1 ORDER BY l.idx",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sql, args, err := a.sectionQuery("WO-0001", tt.section).ToSql()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, []any{"WO-0001"}, args)
		})
	}
}

func TestSourceAdapter_PriceQueries(t *testing.T) {
	a := newTestAdapter()
	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	validity := "((valid_from IS NULL OR valid_from <= $4) AND (valid_upto IS NULL OR valid_upto >= $5))"

	sql, args, err := a.itemPriceQuery("ITEM-OIL", "Standard Selling", date).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT price_list_rate AS rate, currency FROM item_prices "+
		"WHERE item_code = $1 AND price_list = $2 AND selling = $3 AND "+validity+
		" ORDER BY valid_from DESC NULLS LAST, created_at DESC LIMIT 1", sql)
	assert.Equal(t, []any{"ITEM-OIL", "Standard Selling", true, date, date}, args)

	sql, args, err = a.servicePriceQuery("Job Type", "Oil Change", "Standard Selling", date).ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "FROM service_price_lists WHERE is_active = $1 AND price_list = $2 AND reference_name = $3 AND reference_type = $4")
	assert.Contains(t, sql, "(valid_from IS NULL OR valid_from <= $5)")
	assert.Contains(t, sql, "LIMIT 1")
	assert.Equal(t, []any{true, "Standard Selling", "Oil Change", "Job Type", date, date}, args)
}

func TestSourceAdapter_TaxRulesQuery(t *testing.T) {
	sql, args, err := newTestAdapter().taxRulesQuery("VAT-11").ToSql()
	require.NoError(t, err)
	assert.Equal(t, "SELECT charge_type, rate, COALESCE(account_head, '') AS account_head, "+
		"COALESCE(description, '') AS description FROM tax_template_rules WHERE parent = $1 ORDER BY idx", sql)
	assert.Equal(t, []any{"VAT-11"}, args)
}

func TestCheckBillable(t *testing.T) {
	billed := "Billed"
	unbilled := "Not Billed"

	tests := []struct {
		name    string
		row     workOrderRow
		wantErr bool
	}{
		{"completed", workOrderRow{Name: "WO-1", Status: "Completed", BillingStatus: &unbilled}, false},
		{"closed without billing status", workOrderRow{Name: "WO-1", Status: "Closed"}, false},
		{"in progress", workOrderRow{Name: "WO-1", Status: "In Progress"}, true},
		{"already billed", workOrderRow{Name: "WO-1", Status: "Completed", BillingStatus: &billed}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkBillable(&tt.row)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperror.IsValidation(err))
		})
	}
}

func TestWorkOrderRowColumns(t *testing.T) {
	assert.Equal(t, []string{"name", "status", "billing_status", "customer", "company"}, Columns[workOrderRow]())
}
