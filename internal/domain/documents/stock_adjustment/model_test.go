package stock_adjustment

import (
	"context"
	"testing"

	"carworkshop/internal/core/apperror"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func q(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestAdjustment_Recalculate(t *testing.T) {
	a := New("Main Workshop", "SO-0001", "Stores - MW")
	require.NoError(t, a.AddItem("OIL-5W30", q("10"), q("12"), q("50")))
	require.NoError(t, a.AddItem("BRAKE-PAD", q("8"), q("5"), q("120")))
	require.NoError(t, a.AddItem("FILTER", q("3"), q("3"), q("40")))

	assert.True(t, q("2").Equal(a.Items[0].Difference))
	assert.True(t, q("100").Equal(a.Items[0].AdjustmentAmount))
	assert.True(t, q("-3").Equal(a.Items[1].Difference))
	assert.True(t, q("-360").Equal(a.Items[1].AdjustmentAmount))
	assert.True(t, q("-1").Equal(a.TotalQuantityDifference), a.TotalQuantityDifference.String())
	assert.True(t, q("-260").Equal(a.TotalValueDifference), a.TotalValueDifference.String())

	require.NoError(t, a.SetAdjustmentAmount(2, q("-300")))
	require.NoError(t, a.SetCountedQuantity(2, q("6")))
	assert.True(t, q("-2").Equal(a.Items[1].Difference))
	assert.True(t, q("-300").Equal(a.Items[1].AdjustmentAmount), "manual amount is kept")
	assert.True(t, q("-200").Equal(a.TotalValueDifference), a.TotalValueDifference.String())
}

func TestAdjustment_NegativeInput(t *testing.T) {
	a := New("Main Workshop", "SO-0001", "Stores - MW")
	assert.True(t, apperror.IsInvalidInput(a.AddItem("OIL", q("1"), q("-1"), q("10"))))
	require.NoError(t, a.AddItem("OIL", q("1"), q("2"), q("10")))

	err := a.SetCountedQuantity(1, q("-5"))
	assert.True(t, apperror.IsInvalidInput(err))
	assert.True(t, q("2").Equal(a.Items[0].CountedQty))

	assert.True(t, apperror.IsValidation(a.SetCountedQuantity(7, q("1"))))
}

func TestAdjustment_Validate(t *testing.T) {
	ctx := context.Background()
	tests := []struct {
		name    string
		build   func() *Adjustment
		wantMsg string
	}{
		{"missing opname", func() *Adjustment { return New("MW", "", "Stores") }, "Reference Stock Opname is mandatory"},
		{"missing warehouse", func() *Adjustment { return New("MW", "SO-1", "") }, "Warehouse is mandatory"},
		{"no items", func() *Adjustment { return New("MW", "SO-1", "Stores") }, "At least one adjustment item is required"},
		{"only zero differences", func() *Adjustment {
			a := New("MW", "SO-1", "Stores")
			_ = a.AddItem("OIL", q("4"), q("4"), q("10"))
			return a
		}, "No differences found to adjust. Please remove items with zero difference."},
		{"valid", func() *Adjustment {
			a := New("MW", "SO-1", "Stores")
			_ = a.AddItem("OIL", q("4"), q("4"), q("10"))
			_ = a.AddItem("FILTER", q("4"), q("1"), q("10"))
			return a
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.build().Validate(ctx)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			appErr, ok := apperror.AsAppError(err)
			require.True(t, ok)
			assert.Equal(t, apperror.CodeValidation, appErr.Code)
			assert.Equal(t, tt.wantMsg, appErr.Message)
		})
	}
}

func TestAdjustment_Movements(t *testing.T) {
	a := New("Main Workshop", "SO-0001", "Stores - MW")
	require.NoError(t, a.AddItem("OIL", q("10"), q("12"), q("50")))
	require.NoError(t, a.AddItem("PAD", q("8"), q("5"), q("120")))
	require.NoError(t, a.AddItem("FILTER", q("3"), q("3"), q("40")))

	receipt, issue := a.Movements()
	require.Len(t, receipt, 1)
	require.Len(t, issue, 1)
	assert.Equal(t, "OIL", receipt[0].Part)
	assert.True(t, q("2").Equal(receipt[0].Quantity))
	assert.True(t, q("100").Equal(receipt[0].Amount))
	assert.Equal(t, "PAD", issue[0].Part)
	assert.Equal(t, "Stores - MW", issue[0].Warehouse)
	assert.True(t, q("3").Equal(issue[0].Quantity))
	assert.True(t, q("360").Equal(issue[0].Amount))
}
