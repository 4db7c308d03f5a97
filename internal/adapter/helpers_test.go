package adapter

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mooyang-code/exchange-normalizer/internal/metrics"
	"github.com/mooyang-code/exchange-normalizer/internal/model"
)

func TestParseTimeframe(t *testing.T) {
	tests := []struct {
		tf   string
		want int64
	}{
		{"1m", 60},
		{"15m", 900},
		{"4h", 14400},
		{"1d", 86400},
		{"1w", 604800},
		{"1M", 2592000},
	}
	for _, tt := range tests {
		t.Run(tt.tf, func(t *testing.T) {
			got, err := ParseTimeframe(tt.tf)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for _, bad := range []string{"", "m", "0m", "5x", "am"} {
		_, err := ParseTimeframe(bad)
		assert.Error(t, err, "非法周期 %q", bad)
	}
}

func TestParseLevels(t *testing.T) {
	list := []interface{}{
		[]interface{}{"100.10", "2"},
		[]interface{}{"abc", "1"},
		[]interface{}{"99"},
	}
	assert.Equal(t, []model.PriceLevel{{"100.1", "2"}}, ParseLevels(list, 0, 1), "无效档位被跳过")

	keyed := []interface{}{
		map[string]interface{}{"price": "1.5", "amount": "3"},
		map[string]interface{}{"price": "1.4"},
	}
	assert.Equal(t, []model.PriceLevel{{"1.5", "3"}}, ParseKeyedLevels(keyed, "price", "amount"))
}

func TestFilterBySinceLimit(t *testing.T) {
	ts := func(v int64) int64 { return v }
	items := func() []int64 { return []int64{50, 10, 40, 20, 30} }

	assert.Equal(t, []int64{10, 20, 30, 40, 50}, FilterBySinceLimit(items(), ts, 0, 0), "按时间升序")
	assert.Equal(t, []int64{40, 50}, FilterBySinceLimit(items(), ts, 0, 2), "无起始时间取最近的")
	assert.Equal(t, []int64{30, 40}, FilterBySinceLimit(items(), ts, 30, 2), "有起始时间取之后最早的")
	assert.Empty(t, FilterBySinceLimit(items(), ts, 60, 0))
}

func TestFilterBySymbols(t *testing.T) {
	symbol := func(s string) string { return s }
	items := []string{"BTC/USDT", "ETH/USDT", "LTC/BTC"}
	assert.Equal(t, items, FilterBySymbols(items, symbol, nil))
	assert.Equal(t, []string{"ETH/USDT"}, FilterBySymbols(items, symbol, []string{"ETH/USDT", "XRP/USDT"}))
}

func TestScaledTimestamp(t *testing.T) {
	assert.Equal(t, int64(1637856276264), ScaledTimestamp("1637856276.264215", "1000"))
	assert.Equal(t, int64(1674658445272), ScaledTimestamp("1674658.445272", "1000000"))
	assert.Equal(t, int64(0), ScaledTimestamp("", "1000"))
	assert.Equal(t, int64(0), ScaledTimestamp("soon", "1000"))
}

func TestSplitPair(t *testing.T) {
	base, quote, ok := SplitPair("btc_usdt", "_")
	assert.True(t, ok)
	assert.Equal(t, "btc", base)
	assert.Equal(t, "usdt", quote)

	_, _, ok = SplitPair("BTC-PERP", "/")
	assert.False(t, ok)
	_, _, ok = SplitPair("A/B/C", "/")
	assert.False(t, ok)
}

func TestParseList(t *testing.T) {
	f := newFake(nil)
	parse := func(r Raw) (string, error) { return r.Require("widget", "id") }
	skipped := func() float64 {
		return testutil.ToFloat64(metrics.SkippedEntries.WithLabelValues("fake", "widget"))
	}

	t.Run("部分条目无法解析", func(t *testing.T) {
		before := skipped()
		items := []interface{}{
			map[string]interface{}{"id": "a"},
			map[string]interface{}{"name": "x"},
			"not an object",
			map[string]interface{}{"id": "b"},
		}
		got, err := ParseList(f.Base, "widget", items, parse)
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, got)
		assert.Equal(t, before+2, skipped(), "跳过的条数应计入指标")
	})

	t.Run("全部无法解析", func(t *testing.T) {
		items := []interface{}{map[string]interface{}{"name": "x"}, nil}
		got, err := ParseList(f.Base, "widget", items, parse)
		assert.Nil(t, got)
		var pe *ParseError
		require.True(t, errors.As(err, &pe), "应保留第一个解析错误")
		assert.Equal(t, "widget", pe.Entity)
	})

	t.Run("空列表", func(t *testing.T) {
		got, err := ParseList(f.Base, "widget", nil, parse)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}
