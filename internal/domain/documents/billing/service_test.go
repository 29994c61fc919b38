package billing

import (
	"context"
	"testing"
	"time"

	"carworkshop/internal/core/apperror"
	appctx "carworkshop/internal/core/context"
	"carworkshop/internal/core/entity"
	"carworkshop/internal/domain/totals"
	"carworkshop/pkg/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAdapter struct {
	sources   map[string]*totals.SourceLines
	templates map[string]*totals.TaxTemplate
}

func (s *stubAdapter) FetchSourceDocumentLines(_ context.Context, id string) (*totals.SourceLines, error) {
	if src, ok := s.sources[id]; ok {
		return src, nil
	}
	return nil, apperror.NewNotFound("Work Order", id)
}

func (s *stubAdapter) ResolveReferencePrice(_ context.Context, q totals.PriceQuery) (*totals.ReferencePrice, error) {
	return nil, apperror.NewNotFound("price", q.EntityID)
}

func (s *stubAdapter) ResolveDefaultAccount(_ context.Context, company, method string) (string, error) {
	return "", apperror.NewNotFound("default account", method)
}

func (s *stubAdapter) GetTaxTemplate(_ context.Context, id string) (*totals.TaxTemplate, error) {
	if t, ok := s.templates[id]; ok {
		return t, nil
	}
	return nil, apperror.NewNotFound("tax template", id)
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newStub() *stubAdapter {
	return &stubAdapter{
		sources: map[string]*totals.SourceLines{
			"WO-0001": {
				SourceID:     "WO-0001",
				ServiceLines: []totals.SourceLine{{Reference: totals.Reference{Type: "Job Type", ID: "Oil Change"}, Quantity: d("1"), Rate: d("200")}},
				PartLines:    []totals.SourceLine{{Reference: totals.Reference{Type: "Part", ID: "OIL-5W30"}, Quantity: d("4"), Rate: d("50")}},
			},
		},
		templates: map[string]*totals.TaxTemplate{
			"VAT-11": {ID: "VAT-11", Rules: []totals.TaxRule{{ChargeType: totals.ChargeOnNetTotal, Rate: d("11")}}},
		},
	}
}

func TestService_PrepareFetchesWorkOrder(t *testing.T) {
	svc := NewService(newStub(), DefaultConfig(), logger.NewNop())
	b := New("Main Workshop", "WO-0001")
	b.TaxTemplateID = "VAT-11"

	engine, err := svc.Prepare(context.Background(), b)
	require.NoError(t, err)

	got := engine.Totals()
	assert.True(t, d("400").Equal(got.Subtotal), got.Subtotal.String())
	assert.True(t, d("44").Equal(got.TaxAmount), got.TaxAmount.String())
	assert.True(t, d("444").Equal(got.GrandTotal))
	assert.Equal(t, "Standard Selling", b.PriceList)

	require.NotNil(t, b.DueDate)
	assert.Equal(t, truncateDay(b.PostingDate).AddDate(0, 0, 30), *b.DueDate)
}

func TestService_PrepareErrors(t *testing.T) {
	svc := NewService(newStub(), DefaultConfig(), logger.NewNop())

	_, err := svc.Prepare(context.Background(), New("Main Workshop", ""))
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Prepare(context.Background(), New("Main Workshop", "WO-9999"))
	assert.True(t, apperror.IsNotFound(err))

	b := New("Main Workshop", "WO-0001")
	due := b.PostingDate.AddDate(0, 0, -1)
	b.DueDate = &due
	_, err = svc.Prepare(context.Background(), b)
	assert.True(t, apperror.IsValidation(err))
}

func TestService_DiscountApproval(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DiscountApprovalThreshold = d("100")
	svc := NewService(newStub(), cfg, logger.NewNop())

	prepare := func(t *testing.T, discount string) (*Billing, *totals.Engine) {
		b := New("Main Workshop", "WO-0001")
		e, err := svc.Prepare(context.Background(), b)
		require.NoError(t, err)
		require.NoError(t, e.SetDiscount(d(discount)))
		return b, e
	}
	cashier := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "cashier", Roles: []string{"Sales User"}})
	accountant := appctx.WithUser(context.Background(), &appctx.UserContext{UserID: "acc", Roles: []string{"Accountant"}})

	t.Run("below threshold", func(t *testing.T) {
		b, e := prepare(t, "100")
		require.NoError(t, svc.Submit(cashier, b, e))
	})

	t.Run("missing role", func(t *testing.T) {
		b, e := prepare(t, "150")
		err := svc.Submit(cashier, b, e)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeDiscountApprovalRequired, appErr.Code)
		assert.True(t, b.IsDraft())
	})

	t.Run("role without approval", func(t *testing.T) {
		b, e := prepare(t, "150")
		err := svc.Submit(accountant, b, e)
		appErr, ok := apperror.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, apperror.CodeDiscountApprovalRequired, appErr.Code)
	})

	t.Run("approved", func(t *testing.T) {
		b, e := prepare(t, "150")
		b.ApprovalStatus = ApprovalApproved
		require.NoError(t, svc.Submit(accountant, b, e))
		assert.Equal(t, entity.StatusSubmitted, b.Status)
		assert.Equal(t, "acc", b.ApprovedBy)
		assert.NotNil(t, b.ApprovedOn)
	})
}

func TestService_CancelRunsHooks(t *testing.T) {
	svc := NewService(newStub(), DefaultConfig(), logger.NewNop())
	var cancelled []string
	svc.Hooks().OnAfterCancel(func(_ context.Context, b *Billing) error {
		cancelled = append(cancelled, b.WorkOrder)
		return nil
	})

	b := New("Main Workshop", "WO-0001")
	e, err := svc.Prepare(context.Background(), b)
	require.NoError(t, err)
	require.NoError(t, svc.Submit(context.Background(), b, e))
	require.NoError(t, svc.Cancel(context.Background(), b, e))

	assert.Equal(t, []string{"WO-0001"}, cancelled)
	assert.Equal(t, StatusCancelled, b.DisplayStatus(time.Now()))
}

func TestBilling_DisplayStatus(t *testing.T) {
	today := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	past := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	future := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		status   entity.DocStatus
		workflow string
		payment  totals.PaymentStatus
		due      time.Time
		want     Status
	}{
		{"draft", entity.StatusDraft, "", totals.PaymentPaid, future, StatusDraft},
		{"cancelled", entity.StatusCancelled, "", totals.PaymentPaid, future, StatusCancelled},
		{"workflow completed", entity.StatusSubmitted, "Completed", totals.PaymentUnpaid, past, StatusCompleted},
		{"paid", entity.StatusSubmitted, "", totals.PaymentPaid, past, StatusFullyPaid},
		{"partially paid", entity.StatusSubmitted, "", totals.PaymentPartiallyPaid, past, StatusPartiallyPaid},
		{"overdue", entity.StatusSubmitted, "", totals.PaymentUnpaid, past, StatusOverdue},
		{"pending", entity.StatusSubmitted, "", totals.PaymentUnpaid, future, StatusPendingPayment},
		{"due today is not overdue", entity.StatusSubmitted, "", totals.PaymentUnpaid, today, StatusPendingPayment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("Main Workshop", "WO-1")
			b.Status = tt.status
			b.WorkflowState = tt.workflow
			b.Totals.PaymentStatus = tt.payment
			due := tt.due
			b.DueDate = &due
			assert.Equal(t, tt.want, b.DisplayStatus(today))
		})
	}
}

func TestParseRoles(t *testing.T) {
	assert.Equal(t, []string{"Accountant", "Workshop Manager", "CFO"}, ParseRoles("Accountant, Workshop Manager\nCFO,,"))
	assert.Nil(t, ParseRoles(""))
}

func TestService_CheckSubmitDoesNotFreeze(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DiscountApprovalThreshold = d("50")
	svc := NewService(newStub(), cfg, logger.NewNop())

	b := New("Main Workshop", "WO-0001")
	e, err := svc.Prepare(context.Background(), b)
	require.NoError(t, err)
	require.NoError(t, svc.CheckSubmit(context.Background(), b, e))

	require.NoError(t, e.SetDiscount(d("60")))
	err = svc.CheckSubmit(context.Background(), b, e)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDiscountApprovalRequired, appErr.Code)
	assert.True(t, b.IsDraft())
}
