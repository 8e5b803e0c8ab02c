package record_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/geochart/internal/record"
)

func TestNumber(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want float64
		ok   bool
	}{
		{name: "float64", in: 4.5, want: 4.5, ok: true},
		{name: "int", in: 7, want: 7, ok: true},
		{name: "numeric string", in: "12.25", want: 12.25, ok: true},
		{name: "json number", in: json.Number("3"), want: 3, ok: true},
		{name: "non-numeric string", in: "Saskatoon", ok: false},
		{name: "bool", in: true, ok: false},
		{name: "nil", in: nil, ok: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := record.Number(tc.in)

			assert.Equal(t, tc.ok, ok)

			if tc.ok {
				assert.InDelta(t, tc.want, got, 1e-9)
			}
		})
	}
}

func TestTime(t *testing.T) {
	t.Parallel()

	t.Run("rfc3339 string", func(t *testing.T) {
		t.Parallel()

		got, ok := record.Time("2024-06-01T12:00:00Z")
		require.True(t, ok)
		assert.Equal(t, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC), got.UTC())
	})

	t.Run("date-only string", func(t *testing.T) {
		t.Parallel()

		got, ok := record.Time("2024-06-01")
		require.True(t, ok)
		assert.Equal(t, 2024, got.Year())
	})

	t.Run("epoch milliseconds", func(t *testing.T) {
		t.Parallel()

		want := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

		got, ok := record.Time(float64(want.UnixMilli()))
		require.True(t, ok)
		assert.Equal(t, want.UnixMilli(), got.UnixMilli())
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()

		_, ok := record.Time("not a date")
		assert.False(t, ok)
	})
}

func TestString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Saskatoon", record.String("Saskatoon"))
	assert.Equal(t, "42", record.String(float64(42)))
	assert.Equal(t, "true", record.String(true))
	assert.Equal(t, "", record.String(nil))
}

func TestSetClone(t *testing.T) {
	t.Parallel()

	original := record.Set{{"a": 1.0}, {"a": 2.0}}
	cloned := original.Clone()

	require.Len(t, cloned, 2)

	cloned[0] = record.Record{"a": 99.0}
	assert.InDelta(t, 1.0, original[0]["a"], 1e-9)
}
