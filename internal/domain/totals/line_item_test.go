package totals

import (
	"testing"

	"carworkshop/internal/core/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineItem_AmountDerivation(t *testing.T) {
	tests := []struct {
		name     string
		category Category
		qty      string
		rate     string
		want     string
	}{
		{"service hours", CategoryService, "3", "100", "300"},
		{"package", CategoryServicePackage, "1", "450", "450"},
		{"parts", CategoryPart, "2", "150", "300"},
		{"fractional parts", CategoryPart, "0.5", "12.34", "6.17"},
		{"expense", CategoryExpense, "4", "2.5", "10"},
		{"zero quantity", CategoryPart, "0", "99", "0"},
		{"external service uses rate", CategoryExternalService, "5", "120", "120"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := NewLineItem(tt.category, Reference{}, money(tt.qty), money(tt.rate))
			require.NoError(t, err)
			assertMoney(t, tt.want, item.Amount, "amount")
			assert.True(t, item.Billable)
		})
	}
}

func TestLineItem_SettersRecomputeAmount(t *testing.T) {
	item, err := NewLineItem(CategoryPart, Reference{Type: "Part", ID: "BRAKE-PAD"}, money("1"), money("10"))
	require.NoError(t, err)

	require.NoError(t, item.SetQuantity(money("4")))
	assertMoney(t, "40", item.Amount, "after quantity")

	require.NoError(t, item.SetRate(money("12.5")))
	assertMoney(t, "50", item.Amount, "after rate")
}

func TestLineItem_NegativeRejectedKeepsLastValue(t *testing.T) {
	item, err := NewLineItem(CategoryService, Reference{}, money("2"), money("100"))
	require.NoError(t, err)

	err = item.SetQuantity(money("-1"))
	assert.True(t, apperror.IsInvalidInput(err))
	assertMoney(t, "2", item.Quantity, "quantity")

	err = item.SetRate(money("-0.01"))
	assert.True(t, apperror.IsInvalidInput(err))
	assertMoney(t, "100", item.Rate, "rate")
	assertMoney(t, "200", item.Amount, "amount")
}

func TestNewLineItem_Validation(t *testing.T) {
	_, err := NewLineItem(Category("Labour"), Reference{}, money("1"), money("1"))
	assert.True(t, apperror.IsValidation(err))

	_, err = NewLineItem(CategoryPart, Reference{}, money("-2"), money("1"))
	assert.True(t, apperror.IsInvalidInput(err))

	_, err = NewLineItem(CategoryPayment, Reference{Type: "Part", ID: "X"}, money("1"), money("1"))
	assert.True(t, apperror.IsValidation(err))
}

func TestNewPaymentLine(t *testing.T) {
	p, err := NewPaymentLine(PaymentMethodCash, money("300"))
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodCash, p.PaymentMethod)
	assertMoney(t, "1", p.Quantity, "quantity")
	assertMoney(t, "300", p.Amount, "amount")

	_, err = NewPaymentLine(PaymentMethodCash, money("-1"))
	assert.True(t, apperror.IsInvalidInput(err))
}
