package assess

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RichieLoco/coinsniper/internal/persistence"
)

func exchangeContext() Context {
	return ExchangeSelectionContext{
		Coin:        "XYZ",
		StableCoins: []string{"USDT", "USDC"},
		Exchanges:   []string{"Binance", "Coinbase"},
	}
}

func TestParse_FullyStructuredResponse(t *testing.T) {
	text := "Exchange: Binance, Coin Listing: XYZUSDT, Overall Risk Score: 3, Liquidity: Low, Trading Volume: Medium, Trading Fees: Low"

	record := Parse(text, exchangeContext())

	require.NotNil(t, record.Exchange)
	assert.Equal(t, "Binance", *record.Exchange)
	require.NotNil(t, record.CoinListing)
	assert.Equal(t, "XYZUSDT", *record.CoinListing)
	require.NotNil(t, record.OverallRiskScore)
	assert.Equal(t, 3.0, *record.OverallRiskScore)
	require.NotNil(t, record.Liquidity)
	assert.Equal(t, persistence.RiskLow, *record.Liquidity)
	require.NotNil(t, record.TradingVolume)
	assert.Equal(t, persistence.RiskMedium, *record.TradingVolume)
	require.NotNil(t, record.TradingFees)
	assert.Equal(t, persistence.RiskLow, *record.TradingFees)

	assert.Equal(t, ContextExchangeSelection, record.ContextType)
	assert.NotEmpty(t, record.ContextDesc)
	assert.False(t, record.AssessedAt.IsZero())
}

func TestParse_UnstructuredText(t *testing.T) {
	text := "I am sorry, as a language model I cannot assess trading risk."

	record := Parse(text, exchangeContext())

	assert.Nil(t, record.Exchange)
	assert.Nil(t, record.CoinListing)
	assert.Nil(t, record.CoinPair)
	assert.Nil(t, record.OverallRiskScore)
	assert.Nil(t, record.Liquidity)
	assert.Nil(t, record.TradingVolume)
	assert.Nil(t, record.TradingFees)
}

func TestParse_PartialFields(t *testing.T) {
	// A non-numeric score and an out-of-vocabulary level leave those fields
	// unset without aborting the rest of the parse.
	text := "Exchange: Kraken, Overall Risk Score: low-ish, Liquidity: Enormous, Trading Fees: High"

	record := Parse(text, exchangeContext())

	require.NotNil(t, record.Exchange)
	assert.Equal(t, "Kraken", *record.Exchange)
	assert.Nil(t, record.OverallRiskScore)
	assert.Nil(t, record.Liquidity)
	require.NotNil(t, record.TradingFees)
	assert.Equal(t, persistence.RiskHigh, *record.TradingFees)
}

func TestParse_UnrecognizedKeysIgnored(t *testing.T) {
	text := "Mood: Optimistic, Exchange: Binance, Weather: Sunny"

	record := Parse(text, exchangeContext())

	require.NotNil(t, record.Exchange)
	assert.Equal(t, "Binance", *record.Exchange)
}

func TestParse_KeysAreCaseSensitive(t *testing.T) {
	text := "exchange: Binance, OVERALL RISK SCORE: 3"

	record := Parse(text, exchangeContext())

	assert.Nil(t, record.Exchange)
	assert.Nil(t, record.OverallRiskScore)
}

func TestParse_FractionalScore(t *testing.T) {
	text := "Overall Risk Score: 4.5"

	record := Parse(text, exchangeContext())

	require.NotNil(t, record.OverallRiskScore)
	assert.Equal(t, 4.5, *record.OverallRiskScore)
}

func TestParse_CoinPairContext(t *testing.T) {
	text := "Coin Pair: XYZ/USDT, Overall Risk Score: 7, Liquidity: High"

	record := Parse(text, CoinListingContext{Exchange: "Binance", Pair: "XYZ/USDT"})

	assert.Equal(t, ContextCoinListing, record.ContextType)
	require.NotNil(t, record.CoinPair)
	assert.Equal(t, "XYZ/USDT", *record.CoinPair)
	require.NotNil(t, record.OverallRiskScore)
	assert.Equal(t, 7.0, *record.OverallRiskScore)
}
