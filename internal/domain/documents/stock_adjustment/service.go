package stock_adjustment

import (
	"context"
	"fmt"

	"carworkshop/internal/core/id"
	"carworkshop/internal/core/numerator"
	"carworkshop/internal/core/tx"
	"carworkshop/internal/domain"
	"carworkshop/pkg/logger"
)

// Ledger records the stock entries produced by a submitted adjustment.
type Ledger interface {
	PostMovements(ctx context.Context, docID id.ID, receipt, issue []Movement) error
	ReverseMovements(ctx context.Context, docID id.ID) error
}

// NamingSeries names submitted adjustments that have no name yet.
var NamingSeries = numerator.MustParseSeries("PSA-.YYYY.-.####")

// Service provides business operations for stock adjustments.
type Service struct {
	ledger    Ledger
	txManager tx.Manager
	namer     numerator.Generator
	hooks     *domain.HookRegistry[*Adjustment]
}

// NewService creates a stock adjustment service. namer may be nil, in which case
// adjustments keep the name they were given.
func NewService(ledger Ledger, txManager tx.Manager, namer numerator.Generator) *Service {
	return &Service{
		ledger:    ledger,
		txManager: txManager,
		namer:     namer,
		hooks:     domain.NewHookRegistry[*Adjustment](),
	}
}

// Hooks returns the hook registry for registering callbacks.
func (s *Service) Hooks() *domain.HookRegistry[*Adjustment] {
	return s.hooks
}

// Preview recalculates and validates without persisting anything.
func (s *Service) Preview(ctx context.Context, a *Adjustment) error {
	if err := s.hooks.Run(ctx, domain.BeforeValidate, a); err != nil {
		return err
	}
	a.Recalculate()
	return a.Validate(ctx)
}

// Submit freezes the adjustment and posts its receipt and issue entries atomically.
func (s *Service) Submit(ctx context.Context, a *Adjustment) error {
	if err := s.hooks.Run(ctx, domain.BeforeSubmit, a); err != nil {
		return err
	}

	prevStatus, prevName := a.Status, a.Name
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := a.Submit(ctx); err != nil {
			return err
		}
		if a.Name == "" && s.namer != nil {
			name, err := s.namer.Next(ctx, NamingSeries, a.PostingDate)
			if err != nil {
				return fmt.Errorf("assign name: %w", err)
			}
			a.Name = name
		}
		receipt, issue := a.Movements()
		if err := s.ledger.PostMovements(ctx, a.ID, receipt, issue); err != nil {
			return fmt.Errorf("post movements: %w", err)
		}
		return nil
	})
	if err != nil {
		// nothing was posted
		a.Status, a.Name = prevStatus, prevName
		return err
	}

	if err := s.hooks.Run(ctx, domain.AfterSubmit, a); err != nil {
		logger.Warn(ctx, "after-submit hook failed", "error", err)
	}
	logger.Info(ctx, "stock adjustment submitted", "id", a.ID, "name", a.Name,
		"opname", a.ReferenceOpname,
		"qty_difference", a.TotalQuantityDifference.String(),
		"value_difference", a.TotalValueDifference.String())
	return nil
}

// Cancel reverses the posted entries of a submitted adjustment.
func (s *Service) Cancel(ctx context.Context, a *Adjustment) error {
	if err := s.hooks.Run(ctx, domain.BeforeCancel, a); err != nil {
		return err
	}
	prev := a.Status
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := a.MarkCancelled(); err != nil {
			return err
		}
		return s.ledger.ReverseMovements(ctx, a.ID)
	})
	if err != nil {
		a.Status = prev
		return err
	}
	if err := s.hooks.Run(ctx, domain.AfterCancel, a); err != nil {
		logger.Warn(ctx, "after-cancel hook failed", "error", err)
	}
	return nil
}
