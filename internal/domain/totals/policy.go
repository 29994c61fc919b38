package totals

// DocumentKind identifies the document type driving the engine.
type DocumentKind string

const (
	KindWorkOrderBilling DocumentKind = "Work Order Billing"
	KindPurchaseOrder    DocumentKind = "Workshop Purchase Order"
	KindPurchaseInvoice  DocumentKind = "Workshop Purchase Invoice"
	KindReturnMaterial   DocumentKind = "Return Material"
)

// Valid reports whether k is one of the known kinds.
func (k DocumentKind) Valid() bool {
	switch k {
	case KindWorkOrderBilling, KindPurchaseOrder, KindPurchaseInvoice, KindReturnMaterial:
		return true
	}
	return false
}

// NegativeInputPolicy decides what a rejected negative input leaves behind.
type NegativeInputPolicy int

const (
	// NegativeKeepLast keeps the last valid value.
	NegativeKeepLast NegativeInputPolicy = iota
	// NegativeCoerceZero replaces the value with zero.
	NegativeCoerceZero
)

// Policy holds the per-document-type rules of the engine.
type Policy struct {
	// Categories relevant to the document, in display order.
	Categories []Category

	// DistinguishBillable makes section sums count billable lines only.
	DistinguishBillable bool

	// RequireLines makes submission fail without at least one non-payment line.
	RequireLines bool

	NegativeInput NegativeInputPolicy
}

// Allows reports whether lines of category c belong on the document.
func (p Policy) Allows(c Category) bool {
	for _, cat := range p.Categories {
		if cat == c {
			return true
		}
	}
	return false
}

// PolicyFor returns the policy of a document kind. Unknown kinds get the billing policy.
func PolicyFor(kind DocumentKind) Policy {
	switch kind {
	case KindPurchaseOrder, KindPurchaseInvoice:
		return Policy{
			Categories:          []Category{CategoryPart, CategoryService, CategoryExpense},
			DistinguishBillable: true,
			RequireLines:        true,
			NegativeInput:       NegativeKeepLast,
		}
	case KindReturnMaterial:
		return Policy{
			Categories:    []Category{CategoryPart},
			RequireLines:  true,
			NegativeInput: NegativeCoerceZero,
		}
	default:
		return Policy{
			Categories: []Category{
				CategoryService,
				CategoryServicePackage,
				CategoryPart,
				CategoryExternalService,
				CategoryPayment,
			},
			NegativeInput: NegativeCoerceZero,
		}
	}
}
