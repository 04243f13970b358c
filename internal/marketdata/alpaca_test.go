package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rvenkat/swing-trader/internal/config"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc) *AlpacaProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewAlpacaProvider(config.MarketData{
		BaseURL:            srv.URL,
		APIKey:             "key",
		SecretKey:          "secret",
		TimeoutSeconds:     5,
		RateLimitPerMinute: 6000,
	})
	require.NoError(t, err)
	return p
}

func TestGetBars_FetchesAndPaginates(t *testing.T) {
	page := 0
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("APCA-API-KEY-ID"))
		assert.Equal(t, "secret", r.Header.Get("APCA-API-SECRET-KEY"))
		assert.Equal(t, "/v2/stocks/AAPL/bars", r.URL.Path)
		assert.Equal(t, "1Day", r.URL.Query().Get("timeframe"))

		page++
		switch page {
		case 1:
			assert.Empty(t, r.URL.Query().Get("page_token"))
			fmt.Fprint(w, `{"bars":[
				{"t":"2025-06-02T04:00:00Z","o":100,"h":102,"l":99,"c":101,"v":1000}
			],"next_page_token":"tok"}`)
		default:
			assert.Equal(t, "tok", r.URL.Query().Get("page_token"))
			fmt.Fprint(w, `{"bars":[
				{"t":"2025-06-03T04:00:00Z","o":101,"h":103,"l":100,"c":102,"v":1100}
			],"next_page_token":null}`)
		}
	})

	bars, err := p.GetBars(context.Background(), "aapl ", 120)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 2, page, "should follow the page token")
	assert.Equal(t, 101.0, bars[0].Close)
	assert.Equal(t, 102.0, bars[1].Close)
	assert.True(t, bars[0].Date.Before(bars[1].Date), "oldest first")
}

func TestGetBars_EmptyHistoryIsAnError(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"bars":[],"next_page_token":null}`)
	})
	_, err := p.GetBars(context.Background(), "AAPL", 120)
	assert.Error(t, err)
}

func TestGetBars_HTTPErrorSurfaces(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	})
	_, err := p.GetBars(context.Background(), "AAPL", 120)
	assert.ErrorContains(t, err, "403")
}

func TestValidateBars(t *testing.T) {
	good := SyntheticBars(10, 100)
	assert.NoError(t, ValidateBars(good))

	bad := SyntheticBars(10, 100)
	bad[3].Low = bad[3].High + 1
	assert.Error(t, ValidateBars(bad))

	unordered := SyntheticBars(10, 100)
	unordered[5].Date = unordered[4].Date
	assert.Error(t, ValidateBars(unordered))

	zero := SyntheticBars(10, 100)
	zero[0].Close = 0
	assert.Error(t, ValidateBars(zero))
}
