package stock_adjustment

import (
	"context"
	"errors"
	"testing"

	"carworkshop/internal/core/entity"
	"carworkshop/internal/core/id"
	"carworkshop/internal/core/numerator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memLedger struct {
	posted   map[id.ID][]Movement
	reversed []id.ID
	failWith error
}

func newMemLedger() *memLedger {
	return &memLedger{posted: make(map[id.ID][]Movement)}
}

func (l *memLedger) PostMovements(_ context.Context, docID id.ID, receipt, issue []Movement) error {
	if l.failWith != nil {
		return l.failWith
	}
	l.posted[docID] = append(append([]Movement{}, receipt...), issue...)
	return nil
}

func (l *memLedger) ReverseMovements(_ context.Context, docID id.ID) error {
	l.reversed = append(l.reversed, docID)
	return nil
}

type inlineTx struct{ calls int }

func (m *inlineTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

func adjustment(t *testing.T) *Adjustment {
	t.Helper()
	a := New("Main Workshop", "SO-0001", "Stores - MW")
	require.NoError(t, a.AddItem("OIL", q("10"), q("12"), q("50")))
	require.NoError(t, a.AddItem("PAD", q("8"), q("5"), q("120")))
	return a
}

func TestService_SubmitPostsMovements(t *testing.T) {
	ledger := newMemLedger()
	txm := &inlineTx{}
	svc := NewService(ledger, txm, numerator.NewMemoryGenerator())

	a := adjustment(t)
	require.NoError(t, svc.Submit(context.Background(), a))

	assert.Equal(t, entity.StatusSubmitted, a.Status)
	assert.Equal(t, 1, txm.calls)
	assert.Equal(t, NamingSeries.Format(a.PostingDate, 1), a.Name)
	assert.Len(t, ledger.posted[a.ID], 2)
	assert.Error(t, a.SetCountedQuantity(1, q("1")), "submitted adjustments are frozen")

	require.NoError(t, svc.Cancel(context.Background(), a))
	assert.Equal(t, entity.StatusCancelled, a.Status)
	assert.Equal(t, []id.ID{a.ID}, ledger.reversed)
}

func TestService_SubmitFailureKeepsDraft(t *testing.T) {
	ledger := newMemLedger()
	ledger.failWith = errors.New("connection reset")
	svc := NewService(ledger, &inlineTx{}, numerator.NewMemoryGenerator())

	a := adjustment(t)
	err := svc.Submit(context.Background(), a)
	require.Error(t, err)
	assert.ErrorIs(t, err, ledger.failWith)
	assert.True(t, a.IsDraft())
	assert.Empty(t, a.Name)
}

func TestService_PreviewRunsHooks(t *testing.T) {
	svc := NewService(newMemLedger(), &inlineTx{}, nil)
	var seen string
	svc.Hooks().OnBeforeValidate(func(_ context.Context, a *Adjustment) error {
		seen = a.ReferenceOpname
		return nil
	})

	a := New("Main Workshop", "SO-0002", "Stores - MW")
	require.NoError(t, a.AddItem("OIL", q("2"), q("2"), q("50")))
	assert.Error(t, svc.Preview(context.Background(), a))
	assert.Equal(t, "SO-0002", seen)
}
