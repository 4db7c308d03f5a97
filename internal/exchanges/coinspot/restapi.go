package coinspot

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
	"github.com/mooyang-code/exchange-normalizer/internal/model"
	"github.com/mooyang-code/exchange-normalizer/internal/precise"
	"github.com/mooyang-code/exchange-normalizer/internal/taxonomy"
)

// endpoint 接口定义，私有接口一律为 POST
type endpoint struct {
	private bool
	method  string
	path    string
}

var (
	epLatest = endpoint{method: http.MethodGet, path: "latest"}

	epOrders         = endpoint{private: true, method: http.MethodPost, path: "orders"}
	epOrdersHistory  = endpoint{private: true, method: http.MethodPost, path: "orders/history"}
	epMyBalances     = endpoint{private: true, method: http.MethodPost, path: "my/balances"}
	epMyTransactions = endpoint{private: true, method: http.MethodPost, path: "ro/my/transactions"}
	epMyBuy          = endpoint{private: true, method: http.MethodPost, path: "my/buy"}
	epMySell         = endpoint{private: true, method: http.MethodPost, path: "my/sell"}
	epMyBuyCancel    = endpoint{private: true, method: http.MethodPost, path: "my/buy/cancel"}
	epMySellCancel   = endpoint{private: true, method: http.MethodPost, path: "my/sell/cancel"}
)

// BuildRequest 路由到具体接口并签名
func (c *CoinSpot) BuildRequest(op adapter.Operation, args adapter.Args) (*adapter.SignedRequest, error) {
	ep, params, err := c.route(op, args)
	if err != nil {
		return nil, err
	}
	if len(args.Options.Extra) > 0 {
		params = params.Extend(adapter.Params(args.Options.Extra).Omit("side"))
	}
	return c.sign(ep, params)
}

func (c *CoinSpot) route(op adapter.Operation, args adapter.Args) (endpoint, adapter.Params, error) {
	params := adapter.Params{}
	switch op {
	case adapter.OpFetchTicker, adapter.OpFetchTickers:
		return epLatest, params, nil

	case adapter.OpFetchOrderBook, adapter.OpFetchTrades:
		m, err := c.Market(args.Symbol)
		if err != nil {
			return endpoint{}, nil, err
		}
		params["cointype"] = m.ID
		if op == adapter.OpFetchTrades {
			return epOrdersHistory, params, nil
		}
		return epOrders, params, nil

	case adapter.OpFetchMyTrades:
		if args.Since > 0 {
			params["startdate"] = time.UnixMilli(args.Since).UTC().Format("2006-01-02")
		}
		return epMyTransactions, params, nil

	case adapter.OpFetchBalance:
		return epMyBalances, params, nil

	case adapter.OpCreateOrder:
		if args.Type != model.OrderTypeLimit {
			return endpoint{}, nil, taxonomy.New(taxonomy.InvalidOrder, ExchangeID, "createOrder() allows limit orders only")
		}
		m, err := c.Market(args.Symbol)
		if err != nil {
			return endpoint{}, nil, err
		}
		if args.Price == "" {
			return endpoint{}, nil, taxonomy.New(taxonomy.ArgumentsRequired, ExchangeID, "createOrder() requires a price argument")
		}
		amount, err := c.AmountToPrecision(m, args.Amount)
		if err != nil {
			return endpoint{}, nil, err
		}
		price, err := c.PriceToPrecision(m, args.Price)
		if err != nil {
			return endpoint{}, nil, err
		}
		if precise.Sign(amount) <= 0 || precise.Sign(price) <= 0 {
			return endpoint{}, nil, taxonomy.Newf(taxonomy.BadRequest, ExchangeID, "createOrder() amount and price must be positive, got %s @ %s", amount, price)
		}
		params["cointype"] = m.ID
		params["amount"] = json.Number(amount)
		params["rate"] = json.Number(price)
		switch args.Side {
		case model.SideBuy:
			return epMyBuy, params, nil
		case model.SideSell:
			return epMySell, params, nil
		}
		return endpoint{}, nil, taxonomy.Newf(taxonomy.InvalidOrder, ExchangeID, "invalid order side %q", args.Side)

	case adapter.OpCancelOrder:
		params["id"] = args.ID
		switch cancelSide(args.Options) {
		case model.SideBuy:
			return epMyBuyCancel, params, nil
		case model.SideSell:
			return epMySellCancel, params, nil
		}
		return endpoint{}, nil, taxonomy.New(taxonomy.ArgumentsRequired, ExchangeID, `cancelOrder() requires a side parameter, "buy" or "sell"`)
	}
	return endpoint{}, nil, c.NotSupported(op)
}

// cancelSide 撤单方向，可通过 Side 或 Extra["side"] 传入
func cancelSide(opts adapter.Options) model.Side {
	if opts.Side != "" {
		return opts.Side
	}
	if v, ok := opts.Extra["side"]; ok {
		return model.Side(adapter.Stringify(v))
	}
	return ""
}

// sign 私有接口请求体为带 nonce 的JSON，sign = hex(HMAC-SHA512(body))
func (c *CoinSpot) sign(ep endpoint, params adapter.Params) (*adapter.SignedRequest, error) {
	req := &adapter.SignedRequest{
		Method: ep.method,
		Cost:   1,
	}
	if !ep.private {
		req.URL = c.URL("public") + "/" + ep.path
		if query := params.Encode(); query != "" {
			req.URL += "?" + query
		}
		return req, nil
	}

	if err := c.CheckCredentials(); err != nil {
		return nil, err
	}
	body, err := params.Extend(map[string]interface{}{"nonce": c.Nonce()}).JSON()
	if err != nil {
		return nil, err
	}
	creds := c.Credentials()
	req.URL = c.URL("private") + "/" + ep.path
	req.Body = body
	req.Headers = map[string]string{
		"Content-Type": "application/json",
		"key":          creds.APIKey,
		"sign":         adapter.HMAC(body, creds.Secret, adapter.SHA512, adapter.Hex),
	}
	return req, nil
}
