package domain

import "strings"

// marketBaseURL is the public market page prefix used in notifications.
const marketBaseURL = "https://polymarket.com/market/"

// BinaryMarket is a YES/NO market as seen by the detectors. It is built by the
// discovery layer and never mutated afterwards.
type BinaryMarket struct {
	ConditionID string
	YesTokenID  string
	NoTokenID   string
	Question    string
	EventSlug   string
}

// Valid reports whether both legs are known.
func (m BinaryMarket) Valid() bool {
	return m.YesTokenID != "" && m.NoTokenID != ""
}

// URL returns the public market page, or "" when the condition id is blank.
func (m BinaryMarket) URL() string {
	cid := strings.TrimSpace(m.ConditionID)
	if cid == "" {
		return ""
	}
	return marketBaseURL + cid
}

// AssetIDs returns the YES/NO token ids of the given markets in order,
// without duplicates or blanks.
func AssetIDs(markets []BinaryMarket) []string {
	seen := make(map[string]struct{}, len(markets)*2)
	out := make([]string, 0, len(markets)*2)
	for _, m := range markets {
		for _, id := range [2]string{m.YesTokenID, m.NoTokenID} {
			if id == "" {
				continue
			}
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
