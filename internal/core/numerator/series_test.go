package numerator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeries_Format(t *testing.T) {
	at := time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		pattern string
		n       int64
		prefix  string
		want    string
	}{
		{"WO-.YYYY.-.####", 12, "WO-2025-", "WO-2025-0012"},
		{"PSA-.YY.MM.-.#####", 1, "PSA-2503-", "PSA-2503-00001"},
		{"ADJ.###./.DD", 7, "ADJ", "ADJ007/07"},
		{"SO-.##", 123, "SO-", "SO-123"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			s, err := ParseSeries(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.prefix, s.Prefix(at))
			assert.Equal(t, tt.want, s.Format(at, tt.n))
		})
	}
}

func TestParseSeries_Errors(t *testing.T) {
	_, err := ParseSeries("WO-.YYYY.-")
	assert.ErrorContains(t, err, "no counter")

	_, err = ParseSeries("WO-.##.-.###")
	assert.ErrorContains(t, err, "more than one counter")

	assert.Panics(t, func() { MustParseSeries("plain") })
}

func TestMemoryGenerator_Next(t *testing.T) {
	g := NewMemoryGenerator()
	s := MustParseSeries("PSA-.YYYY.-.####")
	ctx := context.Background()

	jan := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	next := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)

	first, _ := g.Next(ctx, s, jan)
	second, _ := g.Next(ctx, s, jan)
	other, _ := g.Next(ctx, s, next)

	assert.Equal(t, "PSA-2025-0001", first)
	assert.Equal(t, "PSA-2025-0002", second)
	assert.Equal(t, "PSA-2026-0001", other)
}
