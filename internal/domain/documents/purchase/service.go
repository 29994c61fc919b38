package purchase

import (
	"context"
	"fmt"

	"carworkshop/internal/core/types"
	"carworkshop/internal/domain"
	"carworkshop/internal/domain/totals"
	"carworkshop/pkg/logger"

	"github.com/shopspring/decimal"
)

// TemplateTax is the tax of the rows sharing one tax template.
type TemplateTax struct {
	TemplateID    string           `json:"templateId"`
	Rules         []totals.TaxRule `json:"rules"`
	TaxableAmount types.Money      `json:"taxableAmount"`
	TaxAmount     types.Money      `json:"taxAmount"`
}

// Service provides business operations for purchase orders and invoices.
type Service struct {
	adapter totals.SourceAdapter
	taxes   *totals.TaxResolver
	hooks   *domain.HookRegistry[*Order]
	log     *logger.Logger
}

// NewService creates a purchase service.
func NewService(adapter totals.SourceAdapter, log *logger.Logger) *Service {
	return &Service{
		adapter: adapter,
		taxes:   totals.NewTaxResolver(adapter),
		hooks:   domain.NewHookRegistry[*Order](),
		log:     log.WithComponent("purchase"),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Order] {
	return s.hooks
}

// Prepare validates the order, attaches a totals engine and resolves the default tax template.
func (s *Service) Prepare(ctx context.Context, o *Order) (*totals.Engine, error) {
	if err := s.hooks.Run(ctx, domain.BeforeValidate, o); err != nil {
		return nil, err
	}
	if err := o.Validate(ctx); err != nil {
		return nil, err
	}
	engine := totals.NewEngine(o.Document, s.adapter, totals.WithLogger(s.log))
	if o.TaxTemplateID != "" {
		if err := engine.RecomputeTax(ctx); err != nil {
			return nil, err
		}
	}
	return engine, nil
}

// TaxSummary groups rows by their tax template and computes each group's tax.
// Groups keep the order in which templates first appear; rows without a template are skipped.
func (s *Service) TaxSummary(ctx context.Context, o *Order) ([]TemplateTax, error) {
	var (
		order  []string
		groups = make(map[string]*TemplateTax)
	)
	for _, line := range o.ChargeLines() {
		templateID := o.TaxTemplateFor(line)
		if templateID == "" {
			continue
		}
		g, ok := groups[templateID]
		if !ok {
			g = &TemplateTax{TemplateID: templateID, TaxableAmount: decimal.Zero, TaxAmount: decimal.Zero}
			groups[templateID] = g
			order = append(order, templateID)
		}
		g.TaxableAmount = g.TaxableAmount.Add(line.Amount)
	}

	out := make([]TemplateTax, 0, len(order))
	for _, templateID := range order {
		tmpl, err := s.taxes.Resolve(ctx, templateID)
		if err != nil {
			return nil, fmt.Errorf("tax summary: %w", err)
		}
		g := groups[templateID]
		g.Rules = tmpl.Rules
		g.TaxAmount = totals.ComputeTax(g.TaxableAmount, tmpl)
		out = append(out, *g)
	}
	return out, nil
}

// Submit validates and freezes the order.
func (s *Service) Submit(ctx context.Context, o *Order, engine *totals.Engine) error {
	if err := o.Validate(ctx); err != nil {
		return err
	}
	if err := s.hooks.Run(ctx, domain.BeforeSubmit, o); err != nil {
		return err
	}
	if err := engine.Submit(ctx); err != nil {
		return err
	}
	if err := s.hooks.Run(ctx, domain.AfterSubmit, o); err != nil {
		logger.Warn(ctx, "after-submit hook failed", "error", err)
	}
	logger.Info(ctx, "purchase document submitted", "id", o.ID, "kind", o.Kind,
		"billable", o.Totals.BillableAmount.String(), "non_billable", o.Totals.NonBillableAmount.String())
	return nil
}
