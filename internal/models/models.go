package models

import "time"

// Candle represents one OHLCV bar from a price feed
type Candle struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionWait Action = "WAIT"
)

type Polarity string

const (
	PolarityBuy  Polarity = "buy"
	PolaritySell Polarity = "sell"
)

// Reason is one contributing rule of a Signal
type Reason struct {
	Polarity Polarity `json:"type"`
	Text     string   `json:"text"`
}

// Signal is the scored outcome of one evaluation of the spot strategy
type Signal struct {
	Action     Action   `json:"signal"`
	Confidence int      `json:"confidence"` // 0-99
	Reasons    []Reason `json:"reasons"`
}

// Position represents the single open spot position
type Position struct {
	EntryPrice float64   `json:"entry_price"`
	Size       float64   `json:"size"`
	OpenedAt   time.Time `json:"opened_at"`
}

type TradeType string

const (
	TradeBuy  TradeType = "BUY"
	TradeSell TradeType = "SELL"
)

// TradeRecord is one fill of the spot strategy. PnL is set on exits only.
type TradeRecord struct {
	Type   TradeType `json:"type"`
	Price  float64   `json:"price"`
	Amount float64   `json:"amount"`
	PnL    *float64  `json:"pnl,omitempty"`
	Time   time.Time `json:"time"`
	Reason string    `json:"reason"`
}

// MarketQuote is an open prediction-market contract as listed by the exchange
type MarketQuote struct {
	Ticker    string    `json:"ticker"`
	Title     string    `json:"title"`
	YesAsk    int       `json:"yes_ask"` // cents
	NoAsk     int       `json:"no_ask"`  // cents
	Volume    int64     `json:"volume"`
	CloseTime time.Time `json:"close_time"`
}

// ScoredMarket is a quote ranked by the scanner
type ScoredMarket struct {
	MarketQuote
	Score     int     `json:"score"`
	HoursLeft float64 `json:"hours_left"`
}

type Side string

const (
	SideNone Side = ""
	SideYes  Side = "yes"
	SideNo   Side = "no"
)

// ParseKind tells how a Recommendation was extracted from estimator text
type ParseKind string

const (
	ParseStructured ParseKind = "structured"
	ParseHeuristic  ParseKind = "heuristic"
	ParseNone       ParseKind = "none"
)

// Recommendation is the structured decision extracted from estimator text
type Recommendation struct {
	Side       Side      `json:"side"`
	Confidence float64   `json:"confidence"` // 0-1
	EdgeCents  int       `json:"edge"`
	Strategy   string    `json:"strategy"`
	Reason     string    `json:"reason"`
	Parse      ParseKind `json:"parse"`
}

type OrderType string

const (
	OrderLimit  OrderType = "limit"
	OrderMarket OrderType = "market"
)

// Order is a buy order for prediction-market contracts
type Order struct {
	Ticker   string    `json:"ticker"`
	Side     Side      `json:"side"`
	Type     OrderType `json:"type"`
	Price    int       `json:"price"` // cents, limit orders only
	Count    int       `json:"count"`
	ClientID string    `json:"client_order_id"`
}

// PlacedTrade records an accepted scanner order
type PlacedTrade struct {
	Ticker     string    `json:"ticker"`
	Title      string    `json:"title"`
	Side       Side      `json:"side"`
	Contracts  int       `json:"contracts"`
	Price      int       `json:"price"`
	Cost       float64   `json:"cost"`
	EdgeCents  int       `json:"edge"`
	Confidence float64   `json:"confidence"`
	Strategy   string    `json:"strategy"`
	Reason     string    `json:"reason"`
	OrderType  OrderType `json:"order_type"`
	Time       time.Time `json:"time"`
}

type ActivityKind string

const (
	ActivityTrade ActivityKind = "trade"
	ActivitySkip  ActivityKind = "skip"
	ActivityScan  ActivityKind = "scan"
	ActivityError ActivityKind = "error"
	ActivityInfo  ActivityKind = "info"
)

// ActivityEntry is one line of the engine activity log
type ActivityEntry struct {
	Time    time.Time    `json:"time"`
	Kind    ActivityKind `json:"kind"`
	Message string       `json:"message"`
	Detail  string       `json:"detail,omitempty"`
}

// SpotStats represents spot strategy statistics
type SpotStats struct {
	Running        bool      `json:"running"`
	Status         string    `json:"status"`
	Price          float64   `json:"price"`
	Cash           float64   `json:"cash"`
	Position       *Position `json:"position,omitempty"`
	PortfolioValue float64   `json:"portfolio_value"`
	TotalReturn    float64   `json:"total_return"` // percent vs starting cash
	RealizedPL     float64   `json:"realized_pl"`
	UnrealizedPL   float64   `json:"unrealized_pl"`
	TotalTrades    int       `json:"total_trades"`
	WinningTrades  int       `json:"winning_trades"`
	LosingTrades   int       `json:"losing_trades"`
	WinRate        float64   `json:"win_rate"`
	AvgProfit      float64   `json:"avg_profit"`
	AvgLoss        float64   `json:"avg_loss"`
	MaxProfit      float64   `json:"max_profit"`
	MaxLoss        float64   `json:"max_loss"`
	LastSignal     Signal    `json:"last_signal"`
	LastUpdate     time.Time `json:"last_update"`
}

// ScannerStats represents prediction-market scanner statistics
type ScannerStats struct {
	Running      bool      `json:"running"`
	Scanning     bool      `json:"scanning"`
	Connected    bool      `json:"connected"`
	Status       string    `json:"status"`
	Balance      float64   `json:"balance"`
	StartBalance float64   `json:"start_balance"`
	PnL          float64   `json:"pnl"`
	TradesPlaced int       `json:"trades_placed"`
	TotalWagered float64   `json:"total_wagered"`
	LastScan     time.Time `json:"last_scan"`
}

// Stats represents combined engine statistics
type Stats struct {
	Spot    SpotStats    `json:"spot"`
	Scanner ScannerStats `json:"scanner"`
}
