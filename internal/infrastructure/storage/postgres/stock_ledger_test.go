package postgres

import (
	"testing"
	"time"

	"carworkshop/internal/core/id"
	"carworkshop/internal/domain/documents/stock_adjustment"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerRows(t *testing.T) {
	docID := id.New()
	now := time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC)
	receipt := []stock_adjustment.Movement{{Part: "OIL", Warehouse: "Stores", Quantity: decimal.NewFromInt(2), Rate: decimal.NewFromInt(50), Amount: decimal.NewFromInt(100)}}
	issue := []stock_adjustment.Movement{{Part: "PAD", Warehouse: "Stores", Quantity: decimal.NewFromInt(3), Rate: decimal.NewFromInt(120), Amount: decimal.NewFromInt(360)}}

	rows := ledgerRows(docID, receipt, issue, now)
	require.Len(t, rows, 2)
	assert.Equal(t, EntryMaterialReceipt, rows[0].EntryType)
	assert.Equal(t, "OIL", rows[0].Part)
	assert.Equal(t, EntryMaterialIssue, rows[1].EntryType)
	assert.Equal(t, docID, rows[1].VoucherID)
	assert.NotEqual(t, rows[0].ID, rows[1].ID)
	assert.Equal(t, now, rows[1].PostedAt)
}

func TestStockLedger_Queries(t *testing.T) {
	l := NewStockLedger(nil)
	docID := id.New()

	rows := ledgerRows(docID, []stock_adjustment.Movement{{Part: "OIL", Warehouse: "Stores"}}, nil, time.Now())
	sql, args, err := l.insertQuery(Columns[ledgerEntryRow](), rows).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO stock_ledger_entries (id,voucher_type,voucher_id,entry_type,part,warehouse,"+
		"quantity,rate,amount,is_cancelled,posted_at) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)", sql)
	assert.Len(t, args, 11)

	sql, args, err = l.reverseQuery(docID).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "UPDATE stock_ledger_entries SET is_cancelled = $1 WHERE voucher_id = $2 AND voucher_type = $3", sql)
	assert.Equal(t, []any{true, docID, "Part Stock Adjustment"}, args)
}
