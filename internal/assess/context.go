package assess

import (
	"fmt"
	"strings"
)

// Context type tags stored on assessment records.
const (
	ContextExchangeSelection = "exchange_selection"
	ContextCoinListing       = "coin_listing"
)

// Context is a typed input bundle rendered into one assessment prompt.
// Rendering is pure and deterministic.
type Context interface {
	// Type returns the context tag stored on the assessment record
	Type() string

	// Describe renders the human-readable audit description
	Describe() string

	// Prompt renders the model prompt
	Prompt() string
}

// ExchangeSelectionContext asks which supported exchange is the least risky
// venue to trade a newly listed coin against the supported stable coins.
type ExchangeSelectionContext struct {
	Coin        string
	StableCoins []string
	Exchanges   []string
}

func (c ExchangeSelectionContext) Type() string { return ContextExchangeSelection }

func (c ExchangeSelectionContext) Describe() string {
	return fmt.Sprintf("exchange selection for %s against [%s] across [%s]",
		c.Coin, strings.Join(c.StableCoins, ", "), strings.Join(c.Exchanges, ", "))
}

func (c ExchangeSelectionContext) Prompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are assessing trading risk for the newly listed coin %s.\n", c.Coin)
	fmt.Fprintf(&b, "Consider only these regulated exchanges: %s.\n", strings.Join(c.Exchanges, ", "))
	fmt.Fprintf(&b, "Consider only trading pairs against these stable coins: %s.\n", strings.Join(c.StableCoins, ", "))
	b.WriteString("Pick the single best exchange and rate the risk of trading there.\n")
	b.WriteString("Answer on one line in exactly this format:\n")
	fmt.Fprintf(&b, "Exchange: <name>, Coin Listing: <symbol>, Overall Risk Score: <0-10>, Liquidity: <Low|Medium|High>, Trading Volume: <Low|Medium|High>, Trading Fees: <Low|Medium|High>")
	return b.String()
}

// CoinListingContext asks for the risk of one concrete coin pair on one
// exchange.
type CoinListingContext struct {
	Exchange string
	Pair     string
}

func (c CoinListingContext) Type() string { return ContextCoinListing }

func (c CoinListingContext) Describe() string {
	return fmt.Sprintf("coin listing risk for %s on %s", c.Pair, c.Exchange)
}

func (c CoinListingContext) Prompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are assessing the trading risk of the pair %s on the exchange %s.\n", c.Pair, c.Exchange)
	b.WriteString("Answer on one line in exactly this format:\n")
	fmt.Fprintf(&b, "Coin Pair: <pair>, Overall Risk Score: <0-10>, Liquidity: <Low|Medium|High>, Trading Volume: <Low|Medium|High>, Trading Fees: <Low|Medium|High>")
	return b.String()
}
