package registry

// defaultNetworks 统一链代码 -> 交易所链ID 的默认表，适配器可覆盖
var defaultNetworks = map[string]string{
	"ERC20": "ERC20",
	"TRC20": "TRC20",
	"BEP20": "BSC",
	"BEP2":  "BNB",
	"SOL":   "SOL",
	"ARB":   "ARBITRUM",
	"MATIC": "POLYGON",
	"AVAXC": "AVAXC",
	"OMNI":  "OMNI",
	"BTC":   "BTC",
}

// networkReplacements 币种在其原生链上使用币种代码作为链代码，例如 ETH 的 ERC20 记为 ETH
var networkReplacements = map[string]map[string]string{
	"ETH": {"ERC20": "ETH"},
	"TRX": {"TRC20": "TRX"},
	"CRO": {"CRC20": "CRONOS"},
	"BTC": {"BRC20": "BTC"},
}

// networkTable 链代码与链ID双向表
type networkTable struct {
	byCode map[string]string
	byID   map[string]string
}

func newNetworkTable(overrides map[string]string) networkTable {
	t := networkTable{byCode: make(map[string]string), byID: make(map[string]string)}
	for code, id := range defaultNetworks {
		t.byCode[code] = id
	}
	for code, id := range overrides {
		t.byCode[code] = id
	}
	// 先写默认表的反向映射，再让覆盖表的反向映射覆盖它
	for code, id := range defaultNetworks {
		if t.byCode[code] == id {
			t.byID[id] = code
		}
	}
	for code, id := range overrides {
		t.byID[id] = code
	}
	return t
}

// codeToID 统一链代码转交易所链ID
func (t networkTable) codeToID(code, currency string) string {
	if code == "" {
		return ""
	}
	if repl, ok := networkReplacements[currency]; ok {
		for original, replaced := range repl {
			if replaced == code {
				code = original
				break
			}
		}
	}
	if id, ok := t.byCode[code]; ok {
		return id
	}
	return code
}

// idToCode 交易所链ID转统一链代码
func (t networkTable) idToCode(id, currency string) string {
	if id == "" {
		return ""
	}
	code, ok := t.byID[id]
	if !ok {
		code = id
	}
	if repl, ok := networkReplacements[currency]; ok {
		if replaced, ok := repl[code]; ok {
			return replaced
		}
	}
	return code
}
