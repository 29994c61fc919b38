package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"carworkshop/internal/core/id"
	"carworkshop/internal/domain/documents/stock_adjustment"
)

const stockLedgerTable = "stock_ledger_entries"

// Ledger entry types.
const (
	EntryMaterialReceipt = "Material Receipt"
	EntryMaterialIssue   = "Material Issue"
)

const voucherStockAdjustment = "Part Stock Adjustment"

type ledgerEntryRow struct {
	ID          id.ID           `db:"id"`
	VoucherType string          `db:"voucher_type"`
	VoucherID   id.ID           `db:"voucher_id"`
	EntryType   string          `db:"entry_type"`
	Part        string          `db:"part"`
	Warehouse   string          `db:"warehouse"`
	Quantity    decimal.Decimal `db:"quantity"`
	Rate        decimal.Decimal `db:"rate"`
	Amount      decimal.Decimal `db:"amount"`
	IsCancelled bool            `db:"is_cancelled"`
	PostedAt    time.Time       `db:"posted_at"`
}

// StockLedger implements stock_adjustment.Ledger.
type StockLedger struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

var _ stock_adjustment.Ledger = (*StockLedger)(nil)

// NewStockLedger creates a stock ledger repository.
func NewStockLedger(txManager *TxManager) *StockLedger {
	return &StockLedger{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func ledgerRows(docID id.ID, receipt, issue []stock_adjustment.Movement, now time.Time) []ledgerEntryRow {
	rows := make([]ledgerEntryRow, 0, len(receipt)+len(issue))
	add := func(entryType string, movements []stock_adjustment.Movement) {
		for _, m := range movements {
			rows = append(rows, ledgerEntryRow{
				ID:          id.New(),
				VoucherType: voucherStockAdjustment,
				VoucherID:   docID,
				EntryType:   entryType,
				Part:        m.Part,
				Warehouse:   m.Warehouse,
				Quantity:    m.Quantity,
				Rate:        m.Rate,
				Amount:      m.Amount,
				PostedAt:    now,
			})
		}
	}
	add(EntryMaterialReceipt, receipt)
	add(EntryMaterialIssue, issue)
	return rows
}

// PostMovements inserts receipt and issue entries. Inside a transaction it uses COPY.
func (l *StockLedger) PostMovements(ctx context.Context, docID id.ID, receipt, issue []stock_adjustment.Movement) error {
	rows := ledgerRows(docID, receipt, issue, time.Now().UTC())
	if len(rows) == 0 {
		return nil
	}
	columns := Columns[ledgerEntryRow]()

	if l.txManager.GetTx(ctx) != nil {
		values := make([][]any, 0, len(rows))
		for _, row := range rows {
			values = append(values, Values(row))
		}
		if _, err := NewBatchInserter(l.txManager).CopyFromSlice(ctx, stockLedgerTable, columns, values); err != nil {
			return fmt.Errorf("copy ledger entries: %w", err)
		}
		return nil
	}

	sql, args, err := l.insertQuery(columns, rows).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := l.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert ledger entries: %w", err)
	}
	return nil
}

func (l *StockLedger) insertQuery(columns []string, rows []ledgerEntryRow) squirrel.InsertBuilder {
	q := l.builder.Insert(stockLedgerTable).Columns(columns...)
	for _, row := range rows {
		q = q.Values(Values(row)...)
	}
	return q
}

// ReverseMovements marks every entry of the voucher as cancelled.
func (l *StockLedger) ReverseMovements(ctx context.Context, docID id.ID) error {
	sql, args, err := l.reverseQuery(docID).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	if _, err := l.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("cancel ledger entries: %w", err)
	}
	return nil
}

func (l *StockLedger) reverseQuery(docID id.ID) squirrel.UpdateBuilder {
	return l.builder.Update(stockLedgerTable).
		Set("is_cancelled", true).
		Where(squirrel.Eq{"voucher_id": docID, "voucher_type": voucherStockAdjustment})
}
