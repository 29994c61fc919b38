package totals

import (
	"context"
	"sync"
	"testing"

	"carworkshop/internal/core/apperror"
	"carworkshop/internal/core/types"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// gate blocks an adapter call until released.
type gate struct {
	entered chan struct{}
	release chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 1), release: make(chan struct{})}
}

func (g *gate) wait(ctx context.Context) {
	if g == nil {
		return
	}
	g.entered <- struct{}{}
	select {
	case <-g.release:
	case <-ctx.Done():
	}
}

type fakeAdapter struct {
	mu sync.Mutex

	templates map[string]*TaxTemplate
	sources   map[string]*SourceLines
	prices    map[string]*ReferencePrice
	accounts  map[string]string

	taxErr error

	gates      map[string]*gate
	fetchCalls int
}

func newFakeAdapter() *fakeAdapter {
	return &fakeAdapter{
		templates: map[string]*TaxTemplate{},
		sources:   map[string]*SourceLines{},
		prices:    map[string]*ReferencePrice{},
		accounts:  map[string]string{},
		gates:     map[string]*gate{},
	}
}

// block makes the next call for key wait on the returned gate.
func (f *fakeAdapter) block(key string) *gate {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := newGate()
	f.gates[key] = g
	return g
}

func (f *fakeAdapter) takeGate(key string) *gate {
	f.mu.Lock()
	defer f.mu.Unlock()
	g := f.gates[key]
	delete(f.gates, key)
	return g
}

func (f *fakeAdapter) FetchSourceDocumentLines(ctx context.Context, sourceID string) (*SourceLines, error) {
	f.takeGate("source:" + sourceID).wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	src, ok := f.sources[sourceID]
	if !ok {
		return nil, apperror.NewNotFound("Work Order", sourceID)
	}
	return src, nil
}

func (f *fakeAdapter) ResolveReferencePrice(ctx context.Context, q PriceQuery) (*ReferencePrice, error) {
	f.takeGate("price:" + q.EntityID).wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.prices[q.EntityType+"/"+q.EntityID]
	if !ok {
		return nil, apperror.NewNotFound("price", q.EntityID)
	}
	return p, nil
}

func (f *fakeAdapter) ResolveDefaultAccount(ctx context.Context, company, method string) (string, error) {
	f.takeGate("account:" + method).wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	acc, ok := f.accounts[method]
	if !ok {
		return "", apperror.NewNotFound("default account", method)
	}
	return acc, nil
}

func (f *fakeAdapter) GetTaxTemplate(ctx context.Context, templateID string) (*TaxTemplate, error) {
	f.takeGate("tax:" + templateID).wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.taxErr != nil {
		return nil, f.taxErr
	}
	t, ok := f.templates[templateID]
	if !ok {
		return nil, apperror.NewNotFound("tax template", templateID)
	}
	return t, nil
}

func onNetTotal(id string, rates ...string) *TaxTemplate {
	t := &TaxTemplate{ID: id}
	for _, r := range rates {
		t.Rules = append(t.Rules, TaxRule{ChargeType: ChargeOnNetTotal, Rate: decimal.RequireFromString(r)})
	}
	return t
}

func money(s string) types.Money {
	return decimal.RequireFromString(s)
}

func assertMoney(t *testing.T, want string, got types.Money, field string) {
	t.Helper()
	assert.Truef(t, money(want).Equal(got), "%s: want %s, got %s", field, want, got.String())
}
