package registry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mooyang-code/exchange-normalizer/internal/model"
	"github.com/mooyang-code/exchange-normalizer/internal/taxonomy"
)

func testMarkets(generation string) []model.Market {
	spot := model.Market{ID: "BTC/USDT", Symbol: "BTC/USDT", Base: "BTC", Quote: "USDT", Type: model.MarketTypeSpot, Spot: true,
		Info: map[string]interface{}{"generation": generation}}
	swap := model.Market{ID: "BTC-PERP", Symbol: "BTC/USDT:USDT", Base: "BTC", Quote: "USDT", Settle: "USDT",
		Type: model.MarketTypeSwap, Swap: true, Contract: true, Info: map[string]interface{}{"generation": generation}}
	swap.SetContractKind()
	return []model.Market{spot, swap}
}

func TestResolveSymbol(t *testing.T) {
	c := New("ascendex")

	_, err := c.ResolveSymbol("BTC/USDT")
	var unknown *UnknownMarketError
	require.True(t, errors.As(err, &unknown), "未加载时应返回未知市场错误")

	require.NoError(t, c.Refresh(testMarkets("1"), nil))
	m, err := c.ResolveSymbol("BTC-PERP")
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDT:USDT", m.Symbol)

	_, err = c.ResolveSymbol("ETH-PERP")
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "ETH-PERP", unknown.ID)
	assert.True(t, errors.Is(err, taxonomy.BadSymbol))

	_, err = c.Market("DOGE/USDT")
	assert.True(t, errors.Is(err, taxonomy.BadSymbol))

	assert.Equal(t, []string{"BTC/USDT", "BTC/USDT:USDT"}, c.Symbols())
}

func TestRefreshRejectsInvalidAndKeepsOld(t *testing.T) {
	c := New("ascendex")
	require.NoError(t, c.Refresh(testMarkets("1"), nil))

	dup := append(testMarkets("2"), testMarkets("2")[0])
	assert.Error(t, c.Refresh(dup, nil))

	broken := testMarkets("2")
	broken[1].Linear = model.Bool(true)
	broken[1].Inverse = model.Bool(true)
	assert.Error(t, c.Refresh(broken, nil))

	m, err := c.ResolveSymbol("BTC/USDT")
	require.NoError(t, err)
	assert.Equal(t, "1", m.Info["generation"])
}

func TestRefreshIdempotent(t *testing.T) {
	c := New("ascendex", WithAliases(map[string]string{"BOND": "BONDED"}))
	for i := 0; i < 3; i++ {
		require.NoError(t, c.Refresh(testMarkets("1"), []model.Currency{{ID: "XBT", Code: "BTC"}}))
		m, err := c.ResolveSymbol("BTC-PERP")
		require.NoError(t, err)
		assert.Equal(t, "BTC/USDT:USDT", m.Symbol)
		assert.Equal(t, "BTC", c.ResolveCurrencyCode("XBT"))
		assert.Equal(t, "BONDED", c.ResolveCurrencyCode("bond"))
	}
}

func TestResolveCurrencyCode(t *testing.T) {
	c := New("ascendex", WithAliases(map[string]string{"BTCBEAR": "BEAR", "PLN": "Pollen"}))
	assert.Equal(t, "BEAR", c.ResolveCurrencyCode("BTCBEAR"))
	assert.Equal(t, "Pollen", c.ResolveCurrencyCode("pln"))
	assert.Equal(t, "USDT", c.ResolveCurrencyCode("usdt"))
	assert.Equal(t, "", c.ResolveCurrencyCode(""))
	assert.Equal(t, "PLN", c.CurrencyID("Pollen"))
}

func TestDerivedCurrencies(t *testing.T) {
	c := New("btcalpha")
	markets := []model.Market{{ID: "XBT_USDT", Symbol: "BTC/USDT", Base: "BTC", Quote: "USDT", BaseID: "XBT", QuoteID: "USDT",
		Type: model.MarketTypeSpot, Spot: true}}
	require.NoError(t, c.Refresh(markets, nil))

	assert.Equal(t, "XBT", c.CurrencyID("BTC"), "无币种接口时从市场推导")
	assert.Equal(t, "USDT", c.CurrencyID("USDT"))
	cur, ok := c.Currency("USDT")
	require.True(t, ok)
	assert.True(t, cur.Active)
	assert.Len(t, c.Currencies(), 2)

	require.NoError(t, c.Refresh(markets, []model.Currency{{ID: "usdt", Code: "USDT"}}))
	_, ok = c.Currency("BTC")
	assert.False(t, ok, "提供币种列表时不推导")
}

func TestStrictSymbol(t *testing.T) {
	c := New("btcalpha", WithAliases(map[string]string{"CBC": "Cashbery"}))
	_, err := c.StrictSymbol("CBC_USDT", "_")
	var unknown *UnknownMarketError
	require.True(t, errors.As(err, &unknown), "未加载时不能凭拆分结果构造符号")

	markets := append(testMarkets("1"), model.Market{ID: "CBC_USDT", Symbol: "Cashbery/USDT", Base: "Cashbery", Quote: "USDT",
		BaseID: "CBC", QuoteID: "USDT", Type: model.MarketTypeSpot, Spot: true})
	require.NoError(t, c.Refresh(markets, nil))

	t.Run("原生ID", func(t *testing.T) {
		s, err := c.StrictSymbol("BTC-PERP", "-")
		require.NoError(t, err)
		assert.Equal(t, "BTC/USDT:USDT", s)
	})
	t.Run("统一符号", func(t *testing.T) {
		s, err := c.StrictSymbol("Cashbery/USDT", "/")
		require.NoError(t, err)
		assert.Equal(t, "Cashbery/USDT", s)
	})
	t.Run("拆分后命中已加载市场", func(t *testing.T) {
		s, err := c.StrictSymbol("cbc/usdt", "/")
		require.NoError(t, err)
		assert.Equal(t, "Cashbery/USDT", s)
	})
	t.Run("未知ID返回错误", func(t *testing.T) {
		for _, id := range []string{"weird", "DOGE_USDT", ""} {
			_, err := c.StrictSymbol(id, "_")
			require.True(t, errors.As(err, &unknown), "未知ID %q 应返回错误", id)
			assert.Equal(t, id, unknown.ID)
			assert.True(t, errors.Is(err, taxonomy.BadSymbol))
		}
	})
}

func TestCurrencyIDWithSharedAlias(t *testing.T) {
	aliases := map[string]string{"XBT": "BTC", "BCHSV": "BSV", "BSVX": "BSV", "BSV2": "BSV"}
	for i := 0; i < 20; i++ {
		c := New("ascendex", WithAliases(aliases))
		assert.Equal(t, "BCHSV", c.CurrencyID("BSV"), "多个原生代码映射到同一统一代码时结果应固定")
		assert.Equal(t, "XBT", c.CurrencyID("BTC"))
		assert.Equal(t, "ETH", c.CurrencyID("ETH"))
	}
}

func TestNetworks(t *testing.T) {
	c := New("ascendex", WithNetworks(map[string]string{"BSC": "BEP20 (BSC)", "TRC20": "TRC20", "SOL": "Solana"}))
	assert.Equal(t, "BEP20 (BSC)", c.NetworkCodeToID("BSC", "USDT"))
	assert.Equal(t, "BSC", c.NetworkIDToCode("BEP20 (BSC)", "USDT"))
	assert.Equal(t, "Solana", c.NetworkCodeToID("SOL", "USDC"))
	assert.Equal(t, "SOL", c.NetworkIDToCode("Solana", "USDC"))

	// 原生链使用币种代码
	assert.Equal(t, "TRX", c.NetworkIDToCode("TRC20", "TRX"))
	assert.Equal(t, "TRC20", c.NetworkCodeToID("TRX", "TRX"))
	assert.Equal(t, "TRC20", c.NetworkIDToCode("TRC20", "USDT"))

	// 默认表与未知值
	assert.Equal(t, "ERC20", c.NetworkCodeToID("ERC20", "USDT"))
	assert.Equal(t, "Unknown Chain", c.NetworkIDToCode("Unknown Chain", "USDT"))
}

type fakeSource struct {
	markets       []model.Market
	marketsErr    error
	currenciesErr error
	calls         int
	mu            sync.Mutex
}

func (f *fakeSource) FetchMarkets(ctx context.Context) ([]model.Market, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return f.markets, f.marketsErr
}

func (f *fakeSource) FetchCurrencies(ctx context.Context) ([]model.Currency, error) {
	return []model.Currency{{ID: "usdt", Code: "USDT"}}, f.currenciesErr
}

func TestReload(t *testing.T) {
	ctx := context.Background()
	c := New("ascendex", WithConfig(Config{RetryAttempts: 1}))

	src := &fakeSource{markets: testMarkets("1")}
	require.NoError(t, c.Reload(ctx, src))
	assert.True(t, c.Populated())

	t.Run("币种失败时整体失败并保留旧数据", func(t *testing.T) {
		failing := &fakeSource{markets: testMarkets("2"), currenciesErr: taxonomy.New(taxonomy.ExchangeError, "ascendex", "boom")}
		assert.Error(t, c.Reload(ctx, failing))
		m, err := c.ResolveSymbol("BTC/USDT")
		require.NoError(t, err)
		assert.Equal(t, "1", m.Info["generation"])
	})

	t.Run("不支持币种接口时仍然成功", func(t *testing.T) {
		noCurrencies := &fakeSource{markets: testMarkets("3"), currenciesErr: taxonomy.New(taxonomy.NotSupported, "ascendex", "")}
		require.NoError(t, c.Reload(ctx, noCurrencies))
		m, err := c.ResolveSymbol("BTC/USDT")
		require.NoError(t, err)
		assert.Equal(t, "3", m.Info["generation"])
	})

	t.Run("网络错误按次数重试", func(t *testing.T) {
		retrying := New("ascendex", WithConfig(Config{RetryAttempts: 3}))
		flaky := &fakeSource{marketsErr: taxonomy.Wrap(taxonomy.NetworkError, "ascendex", errors.New("reset"), "")}
		assert.Error(t, retrying.Reload(ctx, flaky))
		assert.Equal(t, 3, flaky.calls)
		assert.False(t, retrying.Populated())
	})
}

func TestAutoUpdateOutlivesStartContext(t *testing.T) {
	c := New("ascendex", WithConfig(Config{RetryAttempts: 1, AutoUpdate: true, UpdateInterval: 10 * time.Millisecond}))
	src := &fakeSource{markets: testMarkets("1")}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	require.NoError(t, c.Start(ctx, src))
	cancel()
	defer c.Stop()

	assert.Eventually(t, func() bool {
		src.mu.Lock()
		defer src.mu.Unlock()
		return src.calls >= 3
	}, 2*time.Second, 10*time.Millisecond, "启动用的ctx结束后自动刷新仍应继续")

	c.Stop()
	assert.False(t, c.Stats()["running"].(bool))
	src.mu.Lock()
	stopped := src.calls
	src.mu.Unlock()
	time.Sleep(50 * time.Millisecond)
	src.mu.Lock()
	defer src.mu.Unlock()
	assert.LessOrEqual(t, src.calls, stopped+1, "Stop 之后不再刷新")
}

func TestConcurrentReadersSeeWholeSnapshot(t *testing.T) {
	c := New("ascendex")
	require.NoError(t, c.Refresh(testMarkets("a"), nil))

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan string, 16)

	for r := 0; r < 8; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				markets := c.Markets()
				if len(markets) != 2 {
					errs <- "市场数量不正确"
					return
				}
				if markets[0].Info["generation"] != markets[1].Info["generation"] {
					errs <- "读到了新旧混合的快照"
					return
				}
			}
		}()
	}

	for i := 0; i < 200; i++ {
		gen := "a"
		if i%2 == 1 {
			gen = "b"
		}
		require.NoError(t, c.Refresh(testMarkets(gen), nil))
	}
	close(stop)
	wg.Wait()
	close(errs)
	for msg := range errs {
		t.Error(msg)
	}
}
