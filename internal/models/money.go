package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Credits is an amount of platform currency held in cents. One credit is one
// dollar, so 150 Credits is "1.50" on the wire.
type Credits int64

const CentsPerCredit = 100

func CreditsFromFloat(v float64) Credits {
	return Credits(math.Round(v * CentsPerCredit))
}

func (c Credits) Float() float64 {
	return float64(c) / CentsPerCredit
}

func (c Credits) String() string {
	return strconv.FormatFloat(c.Float(), 'f', 2, 64)
}

func (c Credits) MarshalJSON() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Credits) UnmarshalJSON(data []byte) error {
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("credits must be a number: %w", err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("credits must be finite")
	}
	*c = CreditsFromFloat(v)
	return nil
}
