package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"carworkshop/internal/core/numerator"
)

const namingSeriesTable = "naming_series"

// SeriesGenerator implements numerator.Generator over the naming_series table.
// Numbers are allocated with an upsert, so they are gap-free when the caller's
// transaction commits and released when it rolls back.
type SeriesGenerator struct {
	txManager *TxManager
	builder   squirrel.StatementBuilderType
}

var _ numerator.Generator = (*SeriesGenerator)(nil)

// NewSeriesGenerator creates a naming series generator.
func NewSeriesGenerator(txManager *TxManager) *SeriesGenerator {
	return &SeriesGenerator{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Next implements numerator.Generator.
func (g *SeriesGenerator) Next(ctx context.Context, series numerator.Series, at time.Time) (string, error) {
	key := series.Prefix(at)
	sql, args, err := g.nextQuery(key).ToSql()
	if err != nil {
		return "", fmt.Errorf("build next number: %w", err)
	}

	var current int64
	if err := g.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&current); err != nil {
		return "", fmt.Errorf("next number for %s: %w", key, err)
	}
	return series.Format(at, current), nil
}

// SetCurrent sets the last issued counter of a series (for migration purposes).
func (g *SeriesGenerator) SetCurrent(ctx context.Context, series numerator.Series, at time.Time, current int64) error {
	sql, args, err := g.setQuery(series.Prefix(at), current).ToSql()
	if err != nil {
		return fmt.Errorf("build set number: %w", err)
	}
	if _, err := g.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("set number: %w", err)
	}
	return nil
}

func (g *SeriesGenerator) nextQuery(key string) squirrel.InsertBuilder {
	return g.builder.Insert(namingSeriesTable).
		Columns("name", "current").
		Values(key, 1).
		Suffix("ON CONFLICT (name) DO UPDATE SET current = " + namingSeriesTable + ".current + 1 RETURNING current")
}

func (g *SeriesGenerator) setQuery(key string, current int64) squirrel.InsertBuilder {
	return g.builder.Insert(namingSeriesTable).
		Columns("name", "current").
		Values(key, current).
		Suffix("ON CONFLICT (name) DO UPDATE SET current = EXCLUDED.current")
}
