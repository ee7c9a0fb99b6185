package currency

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxmap/core/types"
	"taxmap/internal/errors"
)

func TestFallbackTable(t *testing.T) {
	fb := Fallback()

	assert.Equal(t, 46, fb.Len())
	assert.Equal(t, OriginFallback, fb.Origin())
	assert.Equal(t, "fallback", fb.Origin().String())
	assert.Equal(t, fb.ID(), Fallback().ID())
	assert.Len(t, fb.ID(), 16)
}

func TestLookup(t *testing.T) {
	fb := Fallback()

	rate, err := fb.Lookup("USD", "EUR")
	require.NoError(t, err)
	assert.InDelta(t, 0.85, rate, 1e-12)

	rate, err = fb.Lookup("EUR", "GBP")
	require.NoError(t, err)
	assert.InDelta(t, 0.73/0.85, rate, 1e-12)

	rate, err = fb.Lookup("UAH", "UAH")
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)

	_, err = fb.Lookup("USD", "UAH")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.TypeConversionUnavailable))
}

func TestRateDegradesToOne(t *testing.T) {
	fb := Fallback()

	assert.Equal(t, 1.0, fb.Rate("XXX", "EUR"))
	assert.Equal(t, 250.0, fb.Convert(250, "USD", "XXX"))
}

func TestConvertRoundTrip(t *testing.T) {
	fb := Fallback()
	pairs := [][2]types.CurrencyCode{{"USD", "JPY"}, {"EUR", "KRW"}, {"GBP", "KWD"}, {"VND", "CHF"}}

	for _, p := range pairs {
		x := 12345.678
		back := fb.Convert(fb.Convert(x, p[0], p[1]), p[1], p[0])
		assert.InDelta(t, x, back, 1e-9*x, "%s<->%s", p[0], p[1])
	}
}

func TestNewRateTableValidation(t *testing.T) {
	now := time.Now()

	_, err := NewRateTable("USD", nil, OriginLive, now)
	assert.Error(t, err)

	_, err = NewRateTable("USD", map[types.CurrencyCode]float64{"EUR": 0}, OriginLive, now)
	assert.Error(t, err)

	_, err = NewRateTable("", map[types.CurrencyCode]float64{"EUR": 0.9}, OriginLive, now)
	assert.Error(t, err)

	tbl, err := NewRateTable("USD", map[types.CurrencyCode]float64{"EUR": 0.9, "USD": 1.02}, OriginLive, now)
	require.NoError(t, err)
	assert.True(t, tbl.Has("USD"))
	assert.Equal(t, 1.0, tbl.Rates()["USD"])
	assert.Equal(t, []types.CurrencyCode{"EUR", "USD"}, tbl.Codes())
}

func TestRateTableIsImmutable(t *testing.T) {
	src := map[types.CurrencyCode]float64{"EUR": 0.9}
	tbl, err := NewRateTable("USD", src, OriginManual, time.Now())
	require.NoError(t, err)

	src["EUR"] = 5
	copied := tbl.Rates()
	copied["EUR"] = 7

	rate, err := tbl.Lookup("USD", "EUR")
	require.NoError(t, err)
	assert.Equal(t, 0.9, rate)
}

func TestOriginText(t *testing.T) {
	for _, o := range []Origin{OriginLive, OriginFallback, OriginManual} {
		data, err := json.Marshal(o)
		require.NoError(t, err)

		var decoded Origin
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, o, decoded)
	}

	var o Origin
	require.Error(t, json.Unmarshal([]byte(`"cached"`), &o))

	err := o.UnmarshalText([]byte("cached"))
	assert.True(t, errors.IsType(err, errors.TypeParsing))
}
