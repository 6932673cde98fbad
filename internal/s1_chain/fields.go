package s1_chain

import "github.com/wonny/optiondesk/internal/contracts"

// rawFields holds the dereferenced required numeric fields of one record
type rawFields struct {
	bid, ask, bidSize, askSize float64
	iv, openInterest, volume   float64
	delta, gamma, theta, rho   float64
	vega, theo, lastPrice      float64
	prevClose, percentChange   float64
	open, high, low            float64
}

// requireFields returns a SchemaError naming the first missing required field
func requireFields(r *contracts.RawContractRecord) (rawFields, error) {
	var f rawFields

	required := []struct {
		name string
		src  *float64
		dst  *float64
	}{
		{"bid", r.Bid, &f.bid},
		{"ask", r.Ask, &f.ask},
		{"bid_size", r.BidSize, &f.bidSize},
		{"ask_size", r.AskSize, &f.askSize},
		{"iv", r.IV, &f.iv},
		{"open_interest", r.OpenInterest, &f.openInterest},
		{"volume", r.Volume, &f.volume},
		{"delta", r.Delta, &f.delta},
		{"gamma", r.Gamma, &f.gamma},
		{"theta", r.Theta, &f.theta},
		{"rho", r.Rho, &f.rho},
		{"vega", r.Vega, &f.vega},
		{"theo", r.Theo, &f.theo},
		{"last_trade_price", r.LastTradePrice, &f.lastPrice},
		{"prev_day_close", r.PrevDayClose, &f.prevClose},
		{"percent_change", r.PercentChange, &f.percentChange},
		{"open", r.Open, &f.open},
		{"high", r.High, &f.high},
		{"low", r.Low, &f.low},
	}

	for _, field := range required {
		if field.src == nil {
			return rawFields{}, &contracts.SchemaError{Identifier: r.Option, Field: field.name}
		}
		*field.dst = *field.src
	}

	return f, nil
}
