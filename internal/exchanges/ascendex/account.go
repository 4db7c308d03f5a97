package ascendex

import (
	"context"
	"sort"
	"strings"

	"github.com/mooyang-code/exchange-normalizer/internal/adapter"
	"github.com/mooyang-code/exchange-normalizer/internal/model"
	"github.com/mooyang-code/exchange-normalizer/internal/taxonomy"
)

// FetchDepositAddress 获取充值地址。币种有多条链时必须指定链
func (a *Ascendex) FetchDepositAddress(ctx context.Context, code string, opts adapter.Options) (*model.DepositAddress, error) {
	if err := a.CheckCredentials(); err != nil {
		return nil, err
	}
	if err := a.prepare(ctx, false); err != nil {
		return nil, err
	}
	resp, err := a.Request(ctx, adapter.OpFetchDepositAddress, adapter.Args{Code: code, Options: opts})
	if err != nil {
		return nil, err
	}
	addresses := adapter.AsRaw(resp).Dict("data").List("address")
	if len(addresses) == 0 {
		return nil, taxonomy.Newf(taxonomy.ExchangeError, ExchangeID, "no deposit address for %s", code)
	}

	chosen := adapter.AsRaw(addresses[0])
	if len(addresses) > 1 {
		byChain := make(map[string]adapter.Raw, len(addresses))
		names := make([]string, 0, len(addresses))
		for _, item := range addresses {
			r := adapter.AsRaw(item)
			name := r.String("chainName")
			byChain[name] = r
			names = append(names, name)
		}
		if opts.Network == "" {
			sort.Strings(names)
			return nil, taxonomy.Newf(taxonomy.ArgumentsRequired, ExchangeID,
				"fetchDepositAddress() returned more than one address, a network parameter is required, one of %s", strings.Join(names, ", "))
		}
		networkID := a.Registry().NetworkCodeToID(opts.Network, code)
		r, ok := byChain[networkID]
		if !ok {
			return nil, taxonomy.Newf(taxonomy.BadRequest, ExchangeID, "no deposit address for %s on network %s", code, opts.Network)
		}
		chosen = r
	}

	addr := a.parseDepositAddress(chosen, code)
	if addr.Address == "" {
		return nil, taxonomy.Newf(taxonomy.ExchangeError, ExchangeID, "deposit address for %s is empty", code)
	}
	return &addr, nil
}

// FetchTradingFees 现货账户在各交易对的实际费率，无法识别的交易对跳过
func (a *Ascendex) FetchTradingFees(ctx context.Context) (map[string]model.TradingFee, error) {
	if err := a.prepare(ctx, true); err != nil {
		return nil, err
	}
	resp, err := a.Request(ctx, adapter.OpFetchTradingFees, adapter.Args{})
	if err != nil {
		return nil, err
	}
	fees, err := adapter.ParseList(a.Base, "trading fee", adapter.AsRaw(resp).Dict("data").List("fees"), a.parseTradingFee)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.TradingFee, len(fees))
	for _, f := range fees {
		out[f.Symbol] = f
	}
	return out, nil
}

// FetchDeposits 充值记录
func (a *Ascendex) FetchDeposits(ctx context.Context, code string, since int64, limit int, opts adapter.Options) ([]model.Transaction, error) {
	return a.fetchTransactions(ctx, adapter.OpFetchDeposits, code, since, limit, opts)
}

// FetchWithdrawals 提现记录
func (a *Ascendex) FetchWithdrawals(ctx context.Context, code string, since int64, limit int, opts adapter.Options) ([]model.Transaction, error) {
	return a.fetchTransactions(ctx, adapter.OpFetchWithdrawals, code, since, limit, opts)
}

// FetchDepositsWithdrawals 充提记录
func (a *Ascendex) FetchDepositsWithdrawals(ctx context.Context, code string, since int64, limit int, opts adapter.Options) ([]model.Transaction, error) {
	return a.fetchTransactions(ctx, adapter.OpFetchDepositsWithdrawals, code, since, limit, opts)
}

func (a *Ascendex) fetchTransactions(ctx context.Context, op adapter.Operation, code string, since int64, limit int, opts adapter.Options) ([]model.Transaction, error) {
	if err := a.CheckCredentials(); err != nil {
		return nil, err
	}
	if err := a.prepare(ctx, false); err != nil {
		return nil, err
	}
	resp, err := a.Request(ctx, op, adapter.Args{Code: code, Since: since, Limit: limit, Options: opts})
	if err != nil {
		return nil, err
	}
	list := adapter.AsRaw(resp).Dict("data").List("data")
	out := make([]model.Transaction, 0, len(list))
	for _, item := range list {
		tx, err := a.parseTransaction(adapter.AsRaw(item))
		if err != nil {
			return nil, err
		}
		if code != "" && tx.Currency != code {
			continue
		}
		out = append(out, tx)
	}
	return adapter.FilterBySinceLimit(out, func(t model.Transaction) int64 { return t.Timestamp }, since, limit), nil
}

// FetchDepositWithdrawFees 各币种各链的提现手续费，codes 为空时返回全部
func (a *Ascendex) FetchDepositWithdrawFees(ctx context.Context, codes []string) (map[string]model.DepositWithdrawFee, error) {
	if err := a.prepare(ctx, false); err != nil {
		return nil, err
	}
	resp, err := a.Request(ctx, adapter.OpFetchDepositWithdrawFees, adapter.Args{})
	if err != nil {
		return nil, err
	}
	want := make(map[string]bool, len(codes))
	for _, c := range codes {
		want[c] = true
	}
	out := make(map[string]model.DepositWithdrawFee)
	for _, item := range adapter.AsRaw(resp).List("data") {
		fee := a.parseDepositWithdrawFee(adapter.AsRaw(item))
		if fee.Currency == "" || (len(want) > 0 && !want[fee.Currency]) {
			continue
		}
		out[fee.Currency] = fee
	}
	return out, nil
}

// Transfer 账户间划转，from/to 为统一账户类型（spot、margin、swap）
func (a *Ascendex) Transfer(ctx context.Context, code, amount, from, to string) (*model.Transfer, error) {
	if err := a.prepare(ctx, true); err != nil {
		return nil, err
	}
	resp, err := a.Request(ctx, adapter.OpTransfer, adapter.Args{Code: code, Amount: amount, From: from, To: to})
	if err != nil {
		return nil, err
	}
	raw := adapter.AsRaw(resp)
	status := "failed"
	if raw.String("code") == "0" {
		status = "ok"
	}
	return &model.Transfer{
		Timestamp:   a.Milliseconds(),
		Currency:    code,
		Amount:      amount,
		FromAccount: from,
		ToAccount:   to,
		Status:      status,
		Info:        raw.Map(),
	}, nil
}
