package totals

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPolicyFor(t *testing.T) {
	tests := []struct {
		kind        DocumentKind
		allowed     []Category
		denied      []Category
		billable    bool
		requireLine bool
		negative    NegativeInputPolicy
	}{
		{KindWorkOrderBilling, []Category{CategoryService, CategoryServicePackage, CategoryPayment}, []Category{CategoryExpense}, false, false, NegativeCoerceZero},
		{KindPurchaseOrder, []Category{CategoryPart, CategoryExpense}, []Category{CategoryPayment}, true, true, NegativeKeepLast},
		{KindPurchaseInvoice, []Category{CategoryService}, []Category{CategoryExternalService}, true, true, NegativeKeepLast},
		{KindReturnMaterial, []Category{CategoryPart}, []Category{CategoryService, CategoryPayment}, false, true, NegativeCoerceZero},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.True(t, tt.kind.Valid())
			p := PolicyFor(tt.kind)
			for _, c := range tt.allowed {
				assert.True(t, p.Allows(c), c)
			}
			for _, c := range tt.denied {
				assert.False(t, p.Allows(c), c)
			}
			assert.Equal(t, tt.billable, p.DistinguishBillable)
			assert.Equal(t, tt.requireLine, p.RequireLines)
			assert.Equal(t, tt.negative, p.NegativeInput)
		})
	}

	assert.False(t, DocumentKind("Sales Order").Valid())
	assert.Equal(t, PolicyFor(KindWorkOrderBilling), PolicyFor("Sales Order"))
}
