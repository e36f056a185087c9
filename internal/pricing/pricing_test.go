package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeSize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"500g", "500g"},
		{"500 g", "500g"},
		{"500 G", "500g"},
		{" 1 KG ", "1kg"},
		{"\t2kg\n", "2kg"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeSize(tt.in))
		})
	}
}

func TestParseTable(t *testing.T) {
	table, err := ParseTable(DefaultTable)
	require.NoError(t, err)

	price, ok := table.Lookup("500 G")
	require.True(t, ok)
	assert.Equal(t, 1500.0, price)

	price, ok = table.Lookup("1kg")
	require.True(t, ok)
	assert.Equal(t, 3000.0, price)

	price, ok = table.Lookup("2 KG")
	require.True(t, ok)
	assert.Equal(t, 6000.0, price)

	_, ok = table.Lookup("250g")
	assert.False(t, ok)

	assert.Equal(t, []string{"1kg", "2kg", "500g"}, table.Sizes())
}

func TestParseTableRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"500g", "500g=abc", "=100", "1kg=-5"} {
		_, err := ParseTable(raw)
		assert.Error(t, err, raw)
	}
}

func TestResolve(t *testing.T) {
	table := NewTable(map[string]float64{"500g": 1500, "1kg": 3000, "2kg": 6000})

	t.Run("variant match is case and space insensitive", func(t *testing.T) {
		variants := []Variant{{Size: "500 g", Price: 1400}, {Size: "1KG", Price: 2800}}
		for _, size := range []string{"500g", "500 g", "500 G"} {
			price, ok := table.Resolve(variants, size)
			require.True(t, ok, size)
			assert.Equal(t, 1400.0, price)
		}
	})

	t.Run("variants shadow the fallback table", func(t *testing.T) {
		variants := []Variant{{Size: "1kg", Price: 2800}}
		_, ok := table.Resolve(variants, "2kg")
		assert.False(t, ok)
	})

	t.Run("fallback table when product has no variants", func(t *testing.T) {
		price, ok := table.Resolve(nil, "2 Kg")
		require.True(t, ok)
		assert.Equal(t, 6000.0, price)
	})

	t.Run("unknown size", func(t *testing.T) {
		_, ok := table.Resolve(nil, "5kg")
		assert.False(t, ok)
	})

	t.Run("blank size", func(t *testing.T) {
		_, ok := table.Resolve(nil, "   ")
		assert.False(t, ok)
	})
}
