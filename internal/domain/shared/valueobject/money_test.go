package valueobject

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRound2(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"already two places", "10.25", "10.25"},
		{"rounds half up", "10.255", "10.26"},
		{"rounds down below half", "10.254", "10.25"},
		{"negative rounds away from zero", "-10.255", "-10.26"},
		{"many places", "0.333333", "0.33"},
		{"zero", "0", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := decimal.NewFromString(tt.input)
			require.NoError(t, err)
			assert.True(t, Round2(d).Equal(decimal.RequireFromString(tt.expected)),
				"Round2(%s) = %s, want %s", tt.input, Round2(d), tt.expected)
		})
	}
}

func TestApproxEqual(t *testing.T) {
	tests := []struct {
		name  string
		a     string
		b     string
		equal bool
	}{
		{"exactly equal", "100.00", "100.00", true},
		{"within half cent", "100.00", "100.004", true},
		{"at half cent boundary", "100.00", "100.005", true},
		{"beyond half cent", "100.00", "100.006", false},
		{"one cent apart", "100.00", "100.01", false},
		{"negative drift", "99.996", "100.00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := decimal.RequireFromString(tt.a)
			b := decimal.RequireFromString(tt.b)
			assert.Equal(t, tt.equal, ApproxEqual(a, b))
			assert.Equal(t, tt.equal, ApproxEqual(b, a))
		})
	}
}

func TestApproxZero(t *testing.T) {
	assert.True(t, ApproxZero(decimal.Zero))
	assert.True(t, ApproxZero(decimal.RequireFromString("0.004")))
	assert.True(t, ApproxZero(decimal.RequireFromString("-0.004")))
	assert.False(t, ApproxZero(decimal.RequireFromString("0.01")))
}

func TestMoney_Arithmetic(t *testing.T) {
	t.Run("add same currency", func(t *testing.T) {
		a := NewMoneyUSDFromFloat(10.50)
		b := NewMoneyUSDFromFloat(5.25)
		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.True(t, sum.Amount().Equal(decimal.RequireFromString("15.75")))
	})

	t.Run("add different currency fails", func(t *testing.T) {
		a := NewMoneyUSDFromFloat(10)
		b, err := NewMoney(decimal.NewFromInt(5), CAD)
		require.NoError(t, err)
		_, err = a.Add(b)
		assert.Error(t, err)
	})

	t.Run("subtract", func(t *testing.T) {
		a := NewMoneyUSDFromFloat(10)
		b := NewMoneyUSDFromFloat(4)
		diff, err := a.Subtract(b)
		require.NoError(t, err)
		assert.True(t, diff.Amount().Equal(decimal.NewFromInt(6)))
	})

	t.Run("negate", func(t *testing.T) {
		m := NewMoneyUSDFromFloat(12.34)
		assert.True(t, m.Negate().Amount().Equal(decimal.RequireFromString("-12.34")))
	})

	t.Run("round to cents", func(t *testing.T) {
		m, err := NewMoneyUSDFromString("19.999")
		require.NoError(t, err)
		assert.True(t, m.RoundToCents().Amount().Equal(decimal.RequireFromString("20.00")))
	})
}

func TestMoney_Constructors(t *testing.T) {
	t.Run("empty currency rejected", func(t *testing.T) {
		_, err := NewMoney(decimal.Zero, "")
		assert.Error(t, err)
	})

	t.Run("invalid string rejected", func(t *testing.T) {
		_, err := NewMoneyUSDFromString("not-a-number")
		assert.Error(t, err)
	})

	t.Run("zero", func(t *testing.T) {
		assert.True(t, ZeroUSD().IsZero())
		assert.Equal(t, USD, ZeroUSD().Currency())
	})
}
