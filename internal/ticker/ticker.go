package ticker

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Ticker is a typed view over a validated ticker entry. Array fields are
// read at index 0 (today / current value).
type Ticker struct {
	Symbol string
	Ask    decimal.Decimal // a[0]
	Bid    decimal.Decimal // b[0]
	Last   decimal.Decimal // c[0]
	Volume decimal.Decimal // v[0]
	VWAP   decimal.Decimal // p[0]
	Trades int64           // t[0]
	Low    decimal.Decimal // l[0]
	High   decimal.Decimal // h[0]
	Open   decimal.Decimal // o
}

// Parse converts a validated entry into decimals
func Parse(v *Validated) (*Ticker, error) {
	if v == nil {
		return nil, &ShapeError{Reason: "validated ticker is nil"}
	}

	t := &Ticker{Symbol: v.Symbol}

	fields := []struct {
		name string
		dst  *decimal.Decimal
	}{
		{"a", &t.Ask},
		{"b", &t.Bid},
		{"c", &t.Last},
		{"v", &t.Volume},
		{"p", &t.VWAP},
		{"l", &t.Low},
		{"h", &t.High},
	}

	for _, f := range fields {
		d, err := first(v.Fields, f.name)
		if err != nil {
			return nil, err
		}
		*f.dst = d
	}

	trades, err := first(v.Fields, "t")
	if err != nil {
		return nil, err
	}
	if !trades.IsInteger() {
		return nil, &ShapeError{Field: "t", Reason: "is not an integer count"}
	}
	t.Trades = trades.IntPart()

	var open string
	if err := json.Unmarshal(v.Fields["o"], &open); err != nil {
		return nil, &ShapeError{Field: "o", Reason: "is not a string"}
	}
	if t.Open, err = decimal.NewFromString(open); err != nil {
		return nil, &ShapeError{Field: "o", Reason: "is not a decimal"}
	}

	return t, nil
}

// first decodes element 0 of an array field. Elements may be quoted or bare numbers.
func first(fields map[string]json.RawMessage, name string) (decimal.Decimal, error) {
	var values []decimal.Decimal
	if err := json.Unmarshal(fields[name], &values); err != nil {
		return decimal.Zero, &ShapeError{Field: name, Reason: "does not hold decimals"}
	}
	if len(values) == 0 {
		return decimal.Zero, &ShapeError{Field: name, Reason: "is empty"}
	}
	return values[0], nil
}
