package sandbox

// Error codes only the sandbox emits. Client-facing codes live in the rest package.
const (
	CodeInternalError = "EGeneral:Internal error"
	CodeInvalidArgs   = "EGeneral:Invalid arguments"
)

// response is the envelope every endpoint answers with
type response struct {
	Error  []string    `json:"error"`
	Result interface{} `json:"result,omitempty"`
}

func errorResponse(codes ...string) response {
	return response{Error: codes}
}

func resultResponse(result interface{}) response {
	return response{Error: []string{}, Result: result}
}

// Account is a credential pair the sandbox accepts, with its open orders
type Account struct {
	APIKey    string
	APISecret string // Base64
	Orders    map[string]Order
}

// Order is one open order, keyed by transaction id in the account
type Order struct {
	Status   string     `json:"status"`
	OpenTime float64    `json:"opentm"`
	Descr    OrderDescr `json:"descr"`
	Volume   string     `json:"vol"`
	VolExec  string     `json:"vol_exec"`
	Trades   []string   `json:"trades,omitempty"`
}

// OrderDescr describes the order the way the exchange summarizes it
type OrderDescr struct {
	Pair      string `json:"pair"`
	Type      string `json:"type"`
	OrderType string `json:"ordertype"`
	Price     string `json:"price"`
	Order     string `json:"order"`
}

// TickerInfo is the per-symbol ticker payload
type TickerInfo struct {
	Ask    []string `json:"a"`
	Bid    []string `json:"b"`
	Last   []string `json:"c"`
	Volume []string `json:"v"`
	VWAP   []string `json:"p"`
	Trades []int64  `json:"t"`
	Low    []string `json:"l"`
	High   []string `json:"h"`
	Open   string   `json:"o"`
}

// Market maps a requested pair to the symbol it resolves to
type Market struct {
	Symbol string
	Ticker TickerInfo
}

// DefaultMarkets returns the markets served when none are configured
func DefaultMarkets() map[string]Market {
	return map[string]Market{
		"XBTUSD": {
			Symbol: "XXBTZUSD",
			Ticker: TickerInfo{
				Ask:    []string{"37500.10000", "1", "1.000"},
				Bid:    []string{"37499.90000", "2", "2.000"},
				Last:   []string{"37500.00000", "0.01000000"},
				Volume: []string{"1204.48151287", "3526.31742149"},
				VWAP:   []string{"37311.78232", "37198.12905"},
				Trades: []int64{13279, 38511},
				Low:    []string{"36850.00000", "36625.00000"},
				High:   []string{"37822.80000", "37822.80000"},
				Open:   "37210.30000",
			},
		},
		"ETHUSD": {
			Symbol: "XETHZUSD",
			Ticker: TickerInfo{
				Ask:    []string{"2310.45000", "5", "5.000"},
				Bid:    []string{"2310.44000", "3", "3.000"},
				Last:   []string{"2310.44000", "0.25000000"},
				Volume: []string{"18433.20155961", "52871.83917113"},
				VWAP:   []string{"2298.51306", "2287.90412"},
				Trades: []int64{9914, 27802},
				Low:    []string{"2266.01000", "2248.55000"},
				High:   []string{"2334.99000", "2334.99000"},
				Open:   "2289.13000",
			},
		},
	}
}
