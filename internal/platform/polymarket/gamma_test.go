package polymarket_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/polysportarb/internal/domain"
	"github.com/alanyoungcy/polysportarb/internal/platform/polymarket"
)

const eventsFixture = `[
  {
    "id": 901,
    "slug": "nba-finals",
    "title": "NBA Finals",
    "markets": [
      {
        "conditionId": "0xaaa",
        "question": "Will the Celtics win?",
        "clobTokenIds": "[\"111\", \"222\"]",
        "endDate": "2099-06-30T00:00:00Z"
      },
      {
        "condition_id": "0xbbb",
        "title": "Will the Lakers win?",
        "clob_token_ids": ["333", "444"]
      },
      {
        "conditionId": "0xccc",
        "question": "Token fallback",
        "tokens": [
          {"token_id": "555", "outcome": "Yes"},
          {"tokenId": 666, "side": "NO"}
        ]
      },
      {
        "conditionId": "0xddd",
        "question": "Already over",
        "clobTokenIds": ["777", "888"],
        "endDate": 946684800
      },
      {
        "question": "No condition",
        "clobTokenIds": ["1", "2"]
      },
      {
        "conditionId": "0xeee",
        "question": "One leg only",
        "clobTokenIds": "[\"999\"]"
      }
    ]
  },
  {
    "id": "902",
    "endDate": "2000-01-01",
    "market": {"conditionId": "0xfff", "question": "Event ended", "clobTokenIds": ["a", "b"]}
  },
  {
    "id": "903",
    "market": {"conditionId": "0x123", "question": "Single market object", "clobTokenIds": ["c", "d"]}
  }
]`

func TestEventsToBinaryMarkets(t *testing.T) {
	var events []polymarket.APIEvent
	require.NoError(t, json.Unmarshal([]byte(eventsFixture), &events))

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	markets := polymarket.EventsToBinaryMarkets(events, now)

	assert.Equal(t, []domain.BinaryMarket{
		{ConditionID: "0xaaa", YesTokenID: "111", NoTokenID: "222", Question: "Will the Celtics win?", EventSlug: "nba-finals"},
		{ConditionID: "0xbbb", YesTokenID: "333", NoTokenID: "444", Question: "Will the Lakers win?", EventSlug: "nba-finals"},
		{ConditionID: "0xccc", YesTokenID: "555", NoTokenID: "666", Question: "Token fallback", EventSlug: "nba-finals"},
		{ConditionID: "0x123", YesTokenID: "c", NoTokenID: "d", Question: "Single market object", EventSlug: "903"},
	}, markets)
}

func TestGammaClient_GetEvents(t *testing.T) {
	requests := make(chan *url.URL, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests <- r.URL
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(eventsFixture))
	}))
	defer srv.Close()

	tag := 100639
	events, err := polymarket.NewGammaClient(srv.URL).GetEvents(context.Background(), polymarket.EventsQuery{
		TagID:  &tag,
		Limit:  50,
		Offset: 10,
	})
	require.NoError(t, err)
	assert.Len(t, events, 3)

	got := <-requests
	assert.Equal(t, "/events", got.Path)
	q := got.Query()
	assert.Equal(t, "false", q.Get("closed"))
	assert.Equal(t, "50", q.Get("limit"))
	assert.Equal(t, "10", q.Get("offset"))
	assert.Equal(t, "100639", q.Get("tag_id"))
}

func TestGammaClient_StatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusForbidden, domain.ErrUnauthorized},
		{http.StatusTooManyRequests, domain.ErrRateLimited},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "nope", tt.status)
			}))
			defer srv.Close()

			_, err := polymarket.NewGammaClient(srv.URL).GetEvents(context.Background(), polymarket.EventsQuery{})
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestGammaClient_DecodeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"not a list"}`))
	}))
	defer srv.Close()

	_, err := polymarket.NewGammaClient(srv.URL).GetEvents(context.Background(), polymarket.EventsQuery{})
	require.Error(t, err)
}
