package polymarket

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/polysportarb/internal/domain"
)

// flexBool unmarshals from JSON bool or string ("true"/"false") so Gamma API
// responses work whether "active" is sent as bool or string.
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}

// flexString accepts a JSON string or number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexString(strings.TrimSpace(s))
		return nil
	}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	*f = flexString(data)
	return nil
}

// flexStrings accepts a JSON array or a string holding a JSON-encoded array,
// e.g. clobTokenIds: "[\"123\",\"456\"]". Anything else decodes to nil.
type flexStrings []string

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return nil
		}
		data = []byte(inner)
	}

	var items []flexString
	if err := json.Unmarshal(data, &items); err != nil {
		*f = nil
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, string(it))
	}
	*f = out
	return nil
}

// flexTime accepts unix seconds (number or numeric string) or an RFC3339 /
// date-only string. Unparseable values leave the time zero.
type flexTime struct {
	time.Time
}

func (f *flexTime) UnmarshalJSON(data []byte) error {
	var raw flexString
	if err := raw.UnmarshalJSON(data); err != nil {
		return nil
	}
	s := string(raw)
	if s == "" {
		return nil
	}
	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		f.Time = time.Unix(int64(secs), 0).UTC()
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			f.Time = t
			return nil
		}
	}
	return nil
}

// marketList accepts either an array of markets or a single market object.
type marketList []APIMarket

func (l *marketList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '{' {
		var m APIMarket
		if err := json.Unmarshal(data, &m); err != nil {
			return err
		}
		*l = marketList{m}
		return nil
	}
	var ms []APIMarket
	if err := json.Unmarshal(data, &ms); err != nil {
		return nil
	}
	*l = ms
	return nil
}

// --------------------------------------------------------------------------
// Gamma API DTOs
// --------------------------------------------------------------------------

// APIEvent represents an event as returned by the Polymarket Gamma API.
// An event groups one or more related markets.
type APIEvent struct {
	ID         flexString `json:"id"`
	Slug       string     `json:"slug"`
	Title      string     `json:"title"`
	Active     flexBool   `json:"active"`
	Closed     flexBool   `json:"closed"`
	EndDate    flexTime   `json:"endDate"`
	EndDateAlt flexTime   `json:"end_date"`
	Markets    marketList `json:"markets"`
	Market     marketList `json:"market"`
}

// APIMarket represents a market nested in a Gamma event. Gamma has served
// both camelCase and snake_case names over time, so both are decoded.
type APIMarket struct {
	ID              flexString  `json:"id"`
	ConditionID     string      `json:"conditionId"`
	ConditionIDAlt  string      `json:"condition_id"`
	Question        string      `json:"question"`
	Title           string      `json:"title"`
	Slug            string      `json:"slug"`
	Closed          flexBool    `json:"closed"`
	EndDate         flexTime    `json:"endDate"`
	EndDateAlt      flexTime    `json:"end_date"`
	ClobTokenIDs    flexStrings `json:"clobTokenIds"`
	ClobTokenIDsAlt flexStrings `json:"clob_token_ids"`
	Tokens          []Token     `json:"tokens"`
}

// Token represents a token entry inside the Gamma API market response.
type Token struct {
	TokenID    flexString `json:"token_id"`
	TokenIDAlt flexString `json:"tokenId"`
	Outcome    string     `json:"outcome"`
	Side       string     `json:"side"`
}

func (e *APIEvent) markets() []APIMarket {
	if len(e.Markets) > 0 {
		return e.Markets
	}
	return e.Market
}

func (e *APIEvent) endDate() time.Time {
	if !e.EndDate.IsZero() {
		return e.EndDate.Time
	}
	return e.EndDateAlt.Time
}

func (e *APIEvent) slug() string {
	if e.Slug != "" {
		return e.Slug
	}
	return string(e.ID)
}

func (m *APIMarket) conditionID() string {
	if id := strings.TrimSpace(m.ConditionID); id != "" {
		return id
	}
	return strings.TrimSpace(m.ConditionIDAlt)
}

func (m *APIMarket) endDate() time.Time {
	if !m.EndDate.IsZero() {
		return m.EndDate.Time
	}
	return m.EndDateAlt.Time
}

func (m *APIMarket) question() string {
	if m.Question != "" {
		return m.Question
	}
	return m.Title
}

// tokenIDs returns the YES and NO token ids. clobTokenIds lists YES then
// NO; the tokens array is the fallback, matched on outcome or side.
func (m *APIMarket) tokenIDs() (yes, no string) {
	ids := m.ClobTokenIDs
	if len(ids) < 2 {
		ids = m.ClobTokenIDsAlt
	}
	if len(ids) >= 2 && ids[0] != "" && ids[1] != "" {
		return ids[0], ids[1]
	}

	for _, t := range m.Tokens {
		id := string(t.TokenID)
		if id == "" {
			id = string(t.TokenIDAlt)
		}
		if id == "" {
			continue
		}
		label := strings.ToUpper(t.Outcome)
		if label == "" {
			label = strings.ToUpper(t.Side)
		}
		switch {
		case strings.Contains(label, "YES") && yes == "":
			yes = id
		case strings.Contains(label, "NO") && no == "":
			no = id
		}
	}
	return yes, no
}

// EventsToBinaryMarkets flattens events into monitorable binary markets.
// Markets that have ended (market end date first, then the event's), that
// lack a condition id, or that do not resolve to two token ids are skipped.
func EventsToBinaryMarkets(events []APIEvent, now time.Time) []domain.BinaryMarket {
	var out []domain.BinaryMarket
	for i := range events {
		ev := &events[i]
		for _, m := range ev.markets() {
			end := m.endDate()
			if end.IsZero() {
				end = ev.endDate()
			}
			if !end.IsZero() && end.Before(now) {
				continue
			}

			cid := m.conditionID()
			if cid == "" {
				continue
			}
			yes, no := m.tokenIDs()
			bm := domain.BinaryMarket{
				ConditionID: cid,
				YesTokenID:  yes,
				NoTokenID:   no,
				Question:    m.question(),
				EventSlug:   ev.slug(),
			}
			if !bm.Valid() {
				continue
			}
			out = append(out, bm)
		}
	}
	return out
}

// checkHTTPStatus maps non-2xx status codes to appropriate domain errors.
func checkHTTPStatus(statusCode int, body []byte) error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	bodyStr := string(body)
	switch statusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, bodyStr)
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", domain.ErrUnauthorized, bodyStr)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, bodyStr)
	default:
		return fmt.Errorf("HTTP %d: %s", statusCode, bodyStr)
	}
}
