package ascendex

import (
	"context"
	"encoding/hex"

	"github.com/gofrs/uuid"

	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
	"github.com/mooyang-code/exchange-normalizer/internal/model"
)

// newClientOrderID 32位十六进制客户端订单ID
func newClientOrderID() (string, error) {
	u, err := uuid.NewV4()
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(u.Bytes()), nil
}

func withClientOrderID(opts adapter.Options) (adapter.Options, error) {
	if opts.ClientOrderID != "" {
		return opts, nil
	}
	id, err := newClientOrderID()
	if err != nil {
		return opts, err
	}
	opts.ClientOrderID = id
	return opts, nil
}

// orderFromResponse 下单与撤单的结果在 data.order 或 data.info 中
func orderFromResponse(resp interface{}) adapter.Raw {
	data := adapter.AsRaw(resp).Dict("data")
	if order := data.Dict("order"); order != nil {
		return order
	}
	return data.Dict("info")
}

// FetchBalance 按账户类型获取余额：现货、杠杆或合约
func (a *Ascendex) FetchBalance(ctx context.Context, opts adapter.Options) (*model.Balances, error) {
	if err := a.prepare(ctx, true); err != nil {
		return nil, err
	}
	typ, err := a.balanceType(opts)
	if err != nil {
		return nil, err
	}
	resp, err := a.Request(ctx, adapter.OpFetchBalance, adapter.Args{Options: opts})
	if err != nil {
		return nil, err
	}
	raw := adapter.AsRaw(resp)
	var balances *model.Balances
	switch typ {
	case model.MarketTypeSwap:
		balances, err = a.parseSwapBalance(raw.Dict("data"))
	default:
		balances, err = a.parseCashBalance(raw.List("data"), typ == model.MarketTypeMargin)
	}
	if err != nil {
		return nil, err
	}
	balances.Info = raw.Map()
	return balances, nil
}

// CreateOrder 下单，未指定客户端订单ID时自动生成
func (a *Ascendex) CreateOrder(ctx context.Context, symbol string, typ model.OrderType, side model.Side, amount, price string, opts adapter.Options) (*model.Order, error) {
	if err := a.prepare(ctx, true); err != nil {
		return nil, err
	}
	m, err := a.Market(symbol)
	if err != nil {
		return nil, err
	}
	if opts, err = withClientOrderID(opts); err != nil {
		return nil, err
	}
	resp, err := a.Request(ctx, adapter.OpCreateOrder, adapter.Args{
		Symbol: symbol, Type: typ, Side: side, Amount: amount, Price: price, Options: opts,
	})
	if err != nil {
		return nil, err
	}
	o, err := a.parseOrder(orderFromResponse(resp), &m)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CreateOrders 批量下单
func (a *Ascendex) CreateOrders(ctx context.Context, orders []adapter.OrderRequest, opts adapter.Options) ([]model.Order, error) {
	if err := a.prepare(ctx, true); err != nil {
		return nil, err
	}
	reqs := make([]adapter.OrderRequest, len(orders))
	for i, o := range orders {
		var err error
		if o.Options, err = withClientOrderID(o.Options); err != nil {
			return nil, err
		}
		reqs[i] = o
	}
	resp, err := a.Request(ctx, adapter.OpCreateOrders, adapter.Args{Orders: reqs, Options: opts})
	if err != nil {
		return nil, err
	}
	return a.parseOrders(adapter.AsRaw(resp).Dict("data").List("info"), nil)
}

// FetchOrder 查询订单
func (a *Ascendex) FetchOrder(ctx context.Context, id, symbol string, opts adapter.Options) (*model.Order, error) {
	if err := a.prepare(ctx, true); err != nil {
		return nil, err
	}
	m, err := a.optionalMarket(symbol)
	if err != nil {
		return nil, err
	}
	resp, err := a.Request(ctx, adapter.OpFetchOrder, adapter.Args{ID: id, Symbol: symbol, Options: opts})
	if err != nil {
		return nil, err
	}
	o, err := a.parseOrder(adapter.AsRaw(resp).Dict("data"), m)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// FetchOpenOrders 查询当前挂单
func (a *Ascendex) FetchOpenOrders(ctx context.Context, symbol string, since int64, limit int, opts adapter.Options) ([]model.Order, error) {
	if err := a.prepare(ctx, true); err != nil {
		return nil, err
	}
	m, err := a.optionalMarket(symbol)
	if err != nil {
		return nil, err
	}
	resp, err := a.Request(ctx, adapter.OpFetchOpenOrders, adapter.Args{Symbol: symbol, Options: opts})
	if err != nil {
		return nil, err
	}
	orders, err := a.parseOrders(adapter.AsRaw(resp).List("data"), m)
	if err != nil {
		return nil, err
	}
	return a.filterOrders(orders, symbol, since, limit), nil
}

// FetchClosedOrders 查询历史订单
func (a *Ascendex) FetchClosedOrders(ctx context.Context, symbol string, since int64, limit int, opts adapter.Options) ([]model.Order, error) {
	if err := a.prepare(ctx, true); err != nil {
		return nil, err
	}
	m, err := a.optionalMarket(symbol)
	if err != nil {
		return nil, err
	}
	resp, err := a.Request(ctx, adapter.OpFetchClosedOrders, adapter.Args{Symbol: symbol, Since: since, Limit: limit, Options: opts})
	if err != nil {
		return nil, err
	}
	raw := adapter.AsRaw(resp)
	list := raw.List("data")
	if list == nil {
		list = raw.Dict("data").List("data")
	}
	orders, err := a.parseOrders(list, m)
	if err != nil {
		return nil, err
	}
	return a.filterOrders(orders, symbol, since, limit), nil
}

// CancelOrder 撤单，必须指定交易对
func (a *Ascendex) CancelOrder(ctx context.Context, id, symbol string, opts adapter.Options) (*model.Order, error) {
	if err := a.prepare(ctx, true); err != nil {
		return nil, err
	}
	resp, err := a.Request(ctx, adapter.OpCancelOrder, adapter.Args{ID: id, Symbol: symbol, Options: opts})
	if err != nil {
		return nil, err
	}
	m, err := a.Market(symbol)
	if err != nil {
		return nil, err
	}
	o, err := a.parseOrder(orderFromResponse(resp), &m)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// CancelAllOrders 撤销全部挂单，交易所只返回确认信息
func (a *Ascendex) CancelAllOrders(ctx context.Context, symbol string, opts adapter.Options) ([]model.Order, error) {
	if err := a.prepare(ctx, true); err != nil {
		return nil, err
	}
	resp, err := a.Request(ctx, adapter.OpCancelAllOrders, adapter.Args{Symbol: symbol, Options: opts})
	if err != nil {
		return nil, err
	}
	return []model.Order{{Symbol: symbol, Info: adapter.AsRaw(resp).Map()}}, nil
}

func (a *Ascendex) optionalMarket(symbol string) (*model.Market, error) {
	if symbol == "" {
		return nil, nil
	}
	m, err := a.Market(symbol)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (a *Ascendex) parseOrders(list []interface{}, m *model.Market) ([]model.Order, error) {
	out := make([]model.Order, 0, len(list))
	for _, item := range list {
		o, err := a.parseOrder(adapter.AsRaw(item), m)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func (a *Ascendex) filterOrders(orders []model.Order, symbol string, since int64, limit int) []model.Order {
	if symbol != "" {
		orders = adapter.FilterBySymbols(orders, func(o model.Order) string { return o.Symbol }, []string{symbol})
	}
	return adapter.FilterBySinceLimit(orders, func(o model.Order) int64 { return o.Timestamp }, since, limit)
}
