package billing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"carworkshop/internal/core/apperror"
	appctx "carworkshop/internal/core/context"
	"carworkshop/internal/domain"
	"carworkshop/internal/domain/totals"
	"carworkshop/pkg/logger"

	"github.com/shopspring/decimal"
)

// Config holds billing settings.
type Config struct {
	DefaultDueDays   int
	DefaultPriceList string

	// DiscountApprovalThreshold above which a discount needs approval. Zero disables the check.
	DiscountApprovalThreshold decimal.Decimal
	DiscountApproverRoles     []string
}

// DefaultConfig returns the settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		DefaultDueDays:            30,
		DefaultPriceList:          "Standard Selling",
		DiscountApprovalThreshold: decimal.Zero,
		DiscountApproverRoles:     []string{"Accountant"},
	}
}

// ParseRoles splits a comma or newline separated role list.
func ParseRoles(s string) []string {
	var out []string
	for _, r := range strings.Split(strings.ReplaceAll(s, "\n", ","), ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

// Service provides business operations for work order billings.
type Service struct {
	adapter totals.SourceAdapter
	cfg     Config
	hooks   *domain.HookRegistry[*Billing]
	log     *logger.Logger
	now     func() time.Time
}

// NewService creates a billing service. The discount approval rule is registered as a before-submit hook.
func NewService(adapter totals.SourceAdapter, cfg Config, log *logger.Logger) *Service {
	if len(cfg.DiscountApproverRoles) == 0 {
		cfg.DiscountApproverRoles = DefaultConfig().DiscountApproverRoles
	}
	s := &Service{
		adapter: adapter,
		cfg:     cfg,
		hooks:   domain.NewHookRegistry[*Billing](),
		log:     log.WithComponent("billing"),
		now:     time.Now,
	}
	s.hooks.OnBeforeSubmit(s.checkDiscountApproval)
	return s
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Billing] {
	return s.hooks
}

// Open attaches a totals engine to the billing.
func (s *Service) Open(b *Billing, opts ...totals.Option) *totals.Engine {
	if b.PriceList == "" {
		b.PriceList = s.cfg.DefaultPriceList
	}
	opts = append([]totals.Option{totals.WithLogger(s.log)}, opts...)
	return totals.NewEngine(b.Document, s.adapter, opts...)
}

// Now returns the service clock.
func (s *Service) Now() time.Time {
	return s.now()
}

// Prepare applies defaults, validates the header, fetches the work order lines when the
// billing has none yet and resolves the tax template.
func (s *Service) Prepare(ctx context.Context, b *Billing) (*totals.Engine, error) {
	return s.PrepareWith(ctx, b, s.Open(b))
}

// PrepareWith is Prepare for an engine the caller already opened and edited.
func (s *Service) PrepareWith(ctx context.Context, b *Billing, engine *totals.Engine) (*totals.Engine, error) {
	if err := s.hooks.Run(ctx, domain.BeforeValidate, b); err != nil {
		return nil, err
	}
	b.ApplyDateDefaults(s.now(), s.cfg.DefaultDueDays)
	if err := b.Validate(ctx); err != nil {
		return nil, err
	}

	if len(b.ChargeLines()) == 0 {
		if err := engine.FetchSource(ctx, b.WorkOrder); err != nil {
			return nil, fmt.Errorf("fetch work order %s: %w", b.WorkOrder, err)
		}
	}
	if b.TaxTemplateID != "" {
		if err := engine.RecomputeTax(ctx); err != nil {
			return nil, err
		}
	}

	logger.Debug(ctx, "billing prepared",
		"work_order", b.WorkOrder,
		"lines", len(b.Lines),
		"grand_total", b.Totals.GrandTotal.String())
	return engine, nil
}

// CheckSubmit runs every submit rule without freezing the billing.
func (s *Service) CheckSubmit(ctx context.Context, b *Billing, engine *totals.Engine) error {
	if err := b.Validate(ctx); err != nil {
		return err
	}
	if err := s.hooks.Run(ctx, domain.BeforeSubmit, b); err != nil {
		return err
	}
	return engine.ValidateForSubmit(ctx)
}

// Submit validates and freezes the billing.
func (s *Service) Submit(ctx context.Context, b *Billing, engine *totals.Engine) error {
	if err := s.CheckSubmit(ctx, b, engine); err != nil {
		return err
	}
	if err := engine.Submit(ctx); err != nil {
		return err
	}

	if err := s.hooks.Run(ctx, domain.AfterSubmit, b); err != nil {
		logger.Warn(ctx, "after-submit hook failed", "error", err)
	}
	logger.Info(ctx, "billing submitted", "id", b.ID, "work_order", b.WorkOrder,
		"status", b.DisplayStatus(s.now()))
	return nil
}

// Cancel cancels a submitted billing.
func (s *Service) Cancel(ctx context.Context, b *Billing, engine *totals.Engine) error {
	if err := s.hooks.Run(ctx, domain.BeforeCancel, b); err != nil {
		return err
	}
	if err := engine.Cancel(); err != nil {
		return err
	}
	if err := s.hooks.Run(ctx, domain.AfterCancel, b); err != nil {
		logger.Warn(ctx, "after-cancel hook failed", "error", err)
	}
	return nil
}

// checkDiscountApproval requires an approver role and an approved status for discounts above the threshold.
func (s *Service) checkDiscountApproval(ctx context.Context, b *Billing) error {
	threshold := s.cfg.DiscountApprovalThreshold
	if !threshold.IsPositive() || !b.DiscountAmount.GreaterThan(threshold) {
		return nil
	}
	roles := s.cfg.DiscountApproverRoles
	if !appctx.HasAnyRole(ctx, roles...) {
		return apperror.NewBusinessRule(apperror.CodeDiscountApprovalRequired,
			fmt.Sprintf("Discount exceeds allowed threshold of %s. Requires approval from roles: %s",
				threshold.String(), strings.Join(roles, ", "))).
			WithDetail("threshold", threshold.String()).
			WithDetail("roles", roles)
	}
	if b.ApprovalStatus != ApprovalApproved {
		return apperror.NewBusinessRule(apperror.CodeDiscountApprovalRequired,
			"Discount exceeds allowed threshold and needs approval").
			WithDetail("approvalStatus", string(b.ApprovalStatus))
	}
	if b.ApprovedBy == "" {
		b.Approve(appctx.GetUserID(ctx), s.now().UTC())
	}
	return nil
}
