// Package numerator provides document naming series.
// Implementations live in infrastructure layer.
package numerator

import (
	"context"
	"time"
)

// Generator hands out sequential document names.
//
// Implementations must be safe for concurrent use and, when a transaction is
// present in ctx, allocate inside it so a rolled back submit releases the number.
type Generator interface {
	// Next returns the next name of series for a document dated at.
	// Pattern: PREFIX-YYYY-#### (e.g., PSA-2025-0001)
	Next(ctx context.Context, series Series, at time.Time) (string, error)
}
