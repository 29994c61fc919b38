package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestPercent(t *testing.T) {
	assert.True(t, Percent(MustMoney("1000"), MustMoney("10")).Equal(MustMoney("100")))
	assert.True(t, Percent(MustMoney("616"), MustMoney("10")).Equal(MustMoney("61.6")))
	assert.True(t, Percent(decimal.Zero, MustMoney("11")).IsZero())

	values := decimal.Zero
	for i := 0; i < 10; i++ {
		values = values.Add(Percent(MustMoney("1"), MustMoney("10")))
	}
	assert.True(t, values.Equal(MustMoney("1")), "no float drift")
}

func TestRoundWhole(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"616", "616"},
		{"615.5", "616"},
		{"615.49", "615"},
		{"-10.49", "-10"},
		// halves away from zero, not toward +Inf
		{"-10.5", "-11"},
		{"-0.5", "-1"},
		{"-615.5", "-616"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := RoundWhole(MustMoney(tt.in))
			assert.True(t, got.Equal(MustMoney(tt.want)), "got %s", got)
		})
	}
}

func TestMustMoney_Panics(t *testing.T) {
	assert.Panics(t, func() { MustMoney("ten") })
}
