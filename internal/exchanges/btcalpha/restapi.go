package btcalpha

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
	"github.com/mooyang-code/exchange-normalizer/internal/model"
	"github.com/mooyang-code/exchange-normalizer/internal/taxonomy"
)

// 订单状态查询参数
const (
	statusOpen   = "1"
	statusClosed = "3"
)

// endpoint 接口定义，path 中的 {name} 由同名参数填充
type endpoint struct {
	private bool
	method  string
	path    string
}

var (
	epPairs     = endpoint{method: http.MethodGet, path: "pairs/"}
	epTicker    = endpoint{method: http.MethodGet, path: "ticker/"}
	epOrderBook = endpoint{method: http.MethodGet, path: "orderbook/{pair_name}"}
	epExchanges = endpoint{method: http.MethodGet, path: "exchanges/"}
	epCharts    = endpoint{method: http.MethodGet, path: "charts/{pair}/{type}/chart/"}

	epWallets      = endpoint{private: true, method: http.MethodGet, path: "wallets/"}
	epOwnOrders    = endpoint{private: true, method: http.MethodGet, path: "orders/own/"}
	epOrder        = endpoint{private: true, method: http.MethodGet, path: "order/{id}/"}
	epOwnExchanges = endpoint{private: true, method: http.MethodGet, path: "exchanges/own/"}
	epDeposits     = endpoint{private: true, method: http.MethodGet, path: "deposits/"}
	epWithdraws    = endpoint{private: true, method: http.MethodGet, path: "withdraws/"}
	epPlaceOrder   = endpoint{private: true, method: http.MethodPost, path: "order/"}
	epCancelOrder  = endpoint{private: true, method: http.MethodPost, path: "order-cancel/"}
)

// BuildRequest 路由到具体接口并签名
func (b *BTCAlpha) BuildRequest(op adapter.Operation, args adapter.Args) (*adapter.SignedRequest, error) {
	ep, params, err := b.route(op, args)
	if err != nil {
		return nil, err
	}
	if len(args.Options.Extra) > 0 {
		params = params.Extend(args.Options.Extra)
	}
	return b.sign(ep, params)
}

func (b *BTCAlpha) route(op adapter.Operation, args adapter.Args) (endpoint, adapter.Params, error) {
	params := adapter.Params{}
	switch op {
	case adapter.OpFetchMarkets:
		return epPairs, params, nil
	case adapter.OpFetchTickers:
		return epTicker, params, nil
	case adapter.OpFetchTicker:
		m, err := b.Market(args.Symbol)
		if err != nil {
			return endpoint{}, nil, err
		}
		params["pair"] = m.ID
		return epTicker, params, nil

	case adapter.OpFetchOrderBook:
		m, err := b.Market(args.Symbol)
		if err != nil {
			return endpoint{}, nil, err
		}
		params["pair_name"] = m.ID
		if args.Limit > 0 {
			params["limit_sell"] = args.Limit
			params["limit_buy"] = args.Limit
		}
		return epOrderBook, params, nil

	case adapter.OpFetchTrades, adapter.OpFetchMyTrades, adapter.OpFetchOrders, adapter.OpFetchOpenOrders, adapter.OpFetchClosedOrders:
		if args.Symbol != "" {
			m, err := b.Market(args.Symbol)
			if err != nil {
				return endpoint{}, nil, err
			}
			params["pair"] = m.ID
		}
		if args.Limit > 0 {
			params["limit"] = args.Limit
		}
		switch op {
		case adapter.OpFetchTrades:
			return epExchanges, params, nil
		case adapter.OpFetchMyTrades:
			return epOwnExchanges, params, nil
		case adapter.OpFetchOpenOrders:
			params["status"] = statusOpen
		case adapter.OpFetchClosedOrders:
			params["status"] = statusClosed
		}
		return epOwnOrders, params, nil

	case adapter.OpFetchOHLCV:
		m, err := b.Market(args.Symbol)
		if err != nil {
			return endpoint{}, nil, err
		}
		tf := args.Timeframe
		if tf == "" {
			tf = "5m"
		}
		typ, ok := b.Descriptor().Timeframe(tf)
		if !ok {
			return endpoint{}, nil, taxonomy.Newf(taxonomy.BadRequest, ExchangeID, "unsupported timeframe %s", tf)
		}
		params["pair"] = m.ID
		params["type"] = typ
		if args.Limit > 0 {
			params["limit"] = args.Limit
		}
		if args.Since > 0 {
			params["since"] = args.Since / 1000
		}
		return epCharts, params, nil

	case adapter.OpFetchBalance:
		return epWallets, params, nil

	case adapter.OpCreateOrder:
		if args.Type != model.OrderTypeLimit {
			return endpoint{}, nil, taxonomy.New(taxonomy.InvalidOrder, ExchangeID, "only limit orders are supported")
		}
		m, err := b.Market(args.Symbol)
		if err != nil {
			return endpoint{}, nil, err
		}
		if args.Price == "" {
			return endpoint{}, nil, taxonomy.New(taxonomy.ArgumentsRequired, ExchangeID, "createOrder() requires a price argument")
		}
		price, err := b.PriceToPrecision(m, args.Price)
		if err != nil {
			return endpoint{}, nil, err
		}
		params["pair"] = m.ID
		params["type"] = string(args.Side)
		params["amount"] = args.Amount
		params["price"] = price
		return epPlaceOrder, params, nil

	case adapter.OpCancelOrder:
		params["order"] = args.ID
		return epCancelOrder, params, nil

	case adapter.OpFetchOrder:
		params["id"] = args.ID
		return epOrder, params, nil

	case adapter.OpFetchDeposits:
		return epDeposits, params, nil
	case adapter.OpFetchWithdrawals:
		if args.Code != "" {
			params["currency_id"] = b.Registry().CurrencyID(args.Code)
		}
		return epWithdraws, params, nil
	}
	return endpoint{}, nil, b.NotSupported(op)
}

// sign 查询串按键排序；私有接口签名为 hex(HMAC-SHA256(apiKey + body))
func (b *BTCAlpha) sign(ep endpoint, params adapter.Params) (*adapter.SignedRequest, error) {
	path, rest := implodePath(ep.path, params)
	url := b.URL("rest") + "/"
	if ep != epCharts {
		url += "v1/"
	}
	url += path
	query := rest.Encode()

	req := &adapter.SignedRequest{
		Method:  ep.method,
		Headers: map[string]string{"Accept": "application/json"},
		Cost:    1,
	}
	if !ep.private {
		if query != "" {
			url += "?" + query
		}
		req.URL = url
		return req, nil
	}

	if err := b.CheckCredentials(); err != nil {
		return nil, err
	}
	creds := b.Credentials()
	payload := creds.APIKey
	if ep.method == http.MethodPost {
		req.Headers["Content-Type"] = "application/x-www-form-urlencoded"
		req.Body = query
		payload += query
	} else if query != "" {
		url += "?" + query
	}
	req.URL = url
	req.Headers["X-KEY"] = creds.APIKey
	req.Headers["X-SIGN"] = adapter.HMAC(payload, creds.Secret, adapter.SHA256, adapter.Hex)
	req.Headers["X-NONCE"] = strconv.FormatInt(b.Nonce(), 10)
	return req, nil
}

// implodePath 填充路径参数，返回路径和剩余参数
func implodePath(path string, params adapter.Params) (string, adapter.Params) {
	var used []string
	for key, value := range params {
		placeholder := "{" + key + "}"
		if strings.Contains(path, placeholder) {
			path = strings.ReplaceAll(path, placeholder, adapter.Stringify(value))
			used = append(used, key)
		}
	}
	return path, params.Omit(used...)
}
