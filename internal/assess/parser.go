package assess

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/RichieLoco/coinsniper/internal/persistence"
)

var segmentSplit = regexp.MustCompile(`,\s*`)
var keyValueSplit = regexp.MustCompile(`:\s*`)

// Parse turns free-form completion text into a structured assessment.
// The grammar is a flat sequence of comma-separated "Key: Value" fields.
// Keys are case-sensitive; unrecognized keys are ignored; a value that fails
// to parse leaves its field nil. Parse never fails: unstructured input
// yields a record with every subject field unset.
func Parse(text string, c Context) persistence.RiskAssessment {
	record := persistence.RiskAssessment{
		ContextType: c.Type(),
		ContextDesc: c.Describe(),
		AssessedAt:  time.Now().UTC(),
	}

	for _, segment := range segmentSplit.Split(text, -1) {
		parts := keyValueSplit.Split(segment, 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if value == "" {
			continue
		}

		switch key {
		case "Exchange":
			record.Exchange = &value
		case "Coin Listing":
			record.CoinListing = &value
		case "Coin Pair":
			record.CoinPair = &value
		case "Overall Risk Score":
			if score, err := strconv.ParseFloat(value, 64); err == nil {
				record.OverallRiskScore = &score
			}
		case "Liquidity":
			if level, ok := persistence.ParseRiskLevel(value); ok {
				record.Liquidity = &level
			}
		case "Trading Volume":
			if level, ok := persistence.ParseRiskLevel(value); ok {
				record.TradingVolume = &level
			}
		case "Trading Fees":
			if level, ok := persistence.ParseRiskLevel(value); ok {
				record.TradingFees = &level
			}
		}
	}

	return record
}
