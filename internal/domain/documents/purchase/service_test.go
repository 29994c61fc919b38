package purchase

import (
	"context"
	"testing"

	"carworkshop/internal/core/apperror"
	"carworkshop/internal/core/entity"
	"carworkshop/internal/domain/totals"
	"carworkshop/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type taxOnlyAdapter struct {
	templates map[string]*totals.TaxTemplate
}

func (a *taxOnlyAdapter) FetchSourceDocumentLines(_ context.Context, id string) (*totals.SourceLines, error) {
	return nil, apperror.NewNotFound("Work Order", id)
}

func (a *taxOnlyAdapter) ResolveReferencePrice(_ context.Context, q totals.PriceQuery) (*totals.ReferencePrice, error) {
	return nil, apperror.NewNotFound("price", q.EntityID)
}

func (a *taxOnlyAdapter) ResolveDefaultAccount(_ context.Context, _, method string) (string, error) {
	return "", apperror.NewNotFound("default account", method)
}

func (a *taxOnlyAdapter) GetTaxTemplate(_ context.Context, id string) (*totals.TaxTemplate, error) {
	if t, ok := a.templates[id]; ok {
		return t, nil
	}
	return nil, apperror.NewNotFound("tax template", id)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newAdapter() *taxOnlyAdapter {
	rule := func(rate string) []totals.TaxRule {
		return []totals.TaxRule{{ChargeType: totals.ChargeOnNetTotal, Rate: dec(rate)}}
	}
	return &taxOnlyAdapter{templates: map[string]*totals.TaxTemplate{
		"PPN-11": {ID: "PPN-11", Rules: rule("11")},
		"PPH-2":  {ID: "PPH-2", Rules: rule("2")},
		"EXEMPT": {ID: "EXEMPT"},
	}}
}

func line(t *testing.T, it ItemType, refID, qty, rate string, billable bool) *totals.LineItem {
	t.Helper()
	l, err := NewLine(it, refID, dec(qty), dec(rate))
	require.NoError(t, err)
	l.Billable = billable
	return l
}

func TestOrder_ValidateItems(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(o *Order)
		wantErr string
	}{
		{"empty", func(o *Order) {}, "Items cannot be empty"},
		{"zero quantity", func(o *Order) {
			o.Lines = append(o.Lines, line(t, ItemPart, "OIL", "0", "10", false))
		}, "Row 1: Quantity must be greater than zero"},
		{"missing reference", func(o *Order) {
			o.Lines = append(o.Lines, line(t, ItemOPL, "", "1", "10", false))
		}, "Row 1: Job Type reference is required for OPL items"},
		{"billable without work order", func(o *Order) {
			o.Lines = append(o.Lines, line(t, ItemExpense, "Towing", "1", "10", true))
		}, "Row 1: Work Order is required for billable items"},
		{"purchase type mismatch", func(o *Order) {
			o.PurchaseType = ItemPart
			o.Lines = append(o.Lines,
				line(t, ItemPart, "OIL", "1", "10", false),
				line(t, ItemExpense, "Towing", "1", "10", false))
		}, "Row 2: Item type must be 'Part' for Purchase Type 'Part'"},
		{"valid", func(o *Order) {
			o.WorkOrder = "WO-0001"
			o.Lines = append(o.Lines, line(t, ItemPart, "OIL", "2", "10", true))
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := NewOrder("Main Workshop")
			tt.setup(o)
			err := o.ValidateItems()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.True(t, apperror.IsValidation(err))
			appErr, _ := apperror.AsAppError(err)
			assert.Equal(t, tt.wantErr, appErr.Message)
		})
	}
}

func TestNewLine(t *testing.T) {
	l, err := NewLine(ItemExpense, "Towing", dec("1"), dec("75"))
	require.NoError(t, err)
	assert.Equal(t, totals.CategoryExpense, l.Category)
	assert.Equal(t, "Expense Type", l.Reference.Type)

	_, err = NewLine(ItemType("Asset"), "X", dec("1"), dec("1"))
	assert.True(t, apperror.IsInvalidInput(err))

	_, err = NewLine(ItemPart, "OIL", dec("-1"), dec("1"))
	assert.True(t, apperror.IsInvalidInput(err))
}

func TestOrder_ValidateDatesAndTax(t *testing.T) {
	o := NewOrder("Main Workshop")
	o.Lines = append(o.Lines, line(t, ItemPart, "OIL", "1", "10", false))
	early := o.PostingDate.AddDate(0, 0, -2)
	o.ExpectedDelivery = &early
	assert.True(t, apperror.IsValidation(o.Validate(context.Background())))

	o.ExpectedDelivery = nil
	o.ApplyDefaultTaxToAll = true
	assert.True(t, apperror.IsValidation(o.Validate(context.Background())))

	o.TaxTemplateID = "PPN-11"
	assert.NoError(t, o.Validate(context.Background()))
}

func TestService_PrepareAndTaxSummary(t *testing.T) {
	svc := NewService(newAdapter(), logger.NewNop())
	o := NewOrder("Main Workshop")
	o.WorkOrder = "WO-0001"
	o.TaxTemplateID = "PPN-11"
	o.ApplyDefaultTaxToAll = true

	part := line(t, ItemPart, "BRAKE-PAD", "2", "100", true)
	opl := line(t, ItemOPL, "Painting", "1", "300", true)
	expense := line(t, ItemExpense, "Delivery", "1", "50", false)
	o.Lines = append(o.Lines, part, opl, expense)
	o.ItemTaxTemplates[opl.ID.String()] = "PPH-2"

	engine, err := svc.Prepare(context.Background(), o)
	require.NoError(t, err)

	got := engine.Totals()
	assert.True(t, dec("550").Equal(got.TotalAmount), got.TotalAmount.String())
	assert.True(t, dec("500").Equal(got.BillableAmount), got.BillableAmount.String())
	assert.True(t, dec("50").Equal(got.NonBillableAmount))
	assert.True(t, dec("55").Equal(got.TaxAmount), got.TaxAmount.String())

	summary, err := svc.TaxSummary(context.Background(), o)
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, "PPN-11", summary[0].TemplateID)
	assert.True(t, dec("250").Equal(summary[0].TaxableAmount))
	assert.True(t, dec("27.5").Equal(summary[0].TaxAmount))
	assert.Equal(t, "PPH-2", summary[1].TemplateID)
	assert.True(t, dec("300").Equal(summary[1].TaxableAmount))
	assert.True(t, dec("6").Equal(summary[1].TaxAmount))
}

func TestService_SubmitAndInvoice(t *testing.T) {
	svc := NewService(newAdapter(), logger.NewNop())
	o := NewOrder("Main Workshop")
	o.Name = "WPO-0001"
	o.Supplier = "Parts Co"
	o.WorkOrder = "WO-0002"
	o.Lines = append(o.Lines, line(t, ItemPart, "OIL", "4", "12.5", true))
	_, err := o.ToInvoice()
	assert.Error(t, err)

	engine, err := svc.Prepare(context.Background(), o)
	require.NoError(t, err)
	require.NoError(t, svc.Submit(context.Background(), o, engine))
	assert.Equal(t, entity.StatusSubmitted, o.Status)

	inv, err := o.ToInvoice()
	require.NoError(t, err)
	assert.Equal(t, totals.KindPurchaseInvoice, inv.Kind)
	assert.Equal(t, "WPO-0001", inv.PurchaseOrder)
	require.Len(t, inv.Lines, 1)
	assert.Equal(t, o.Lines[0].ID.String(), inv.Lines[0].SourceRef)

	invEngine, err := svc.Prepare(context.Background(), inv)
	require.NoError(t, err)
	assert.True(t, dec("50").Equal(invEngine.Totals().GrandTotal))
}

func TestService_SubmitRejectsEmptyOrder(t *testing.T) {
	svc := NewService(newAdapter(), logger.NewNop())
	o := NewOrder("Main Workshop")
	_, err := svc.Prepare(context.Background(), o)
	assert.True(t, apperror.IsValidation(err))

	engine := totals.NewEngine(o.Document, newAdapter(), totals.WithLogger(logger.NewNop()))
	assert.True(t, apperror.IsValidation(svc.Submit(context.Background(), o, engine)))
	assert.True(t, o.IsDraft())
}
