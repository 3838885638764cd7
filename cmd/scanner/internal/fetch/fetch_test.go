package fetch_test

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/seepananikhil/PennyWhales/cmd/scanner/internal/fetch"
	"github.com/seepananikhil/PennyWhales/pkg/config"
)

func sourcesConfig(baseURL string) config.SourcesConfig {
	return config.SourcesConfig{
		NasdaqBaseURL: baseURL,
		YahooBaseURL:  baseURL,
		Timeout:       2 * time.Second,
		UserAgent:     "test-agent",
	}
}

const nasdaqBody = `{
	"status": {"rCode": 200},
	"data": {
		"ownershipSummary": {"ShareoutstandingTotal": {"value": "37"}},
		"holdingsTransactions": {"table": {"rows": [
			{"ownerName": "BLACKROCK INC", "sharesHeld": "1,850,000", "date": "06/30/2025"},
			{"ownerName": "VANGUARD GROUP INC", "sharesHeld": "1,480,000", "date": "06/30/2025"}
		]}}
	}
}`

func TestNasdaqClient_Holdings(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/company/AAA/institutional-holdings" {
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("User agent not forwarded, got %q", r.Header.Get("User-Agent"))
		}
		if r.URL.Query().Get("type") != "TOTAL" {
			t.Errorf("Missing type=TOTAL query param")
		}
		w.Write([]byte(nasdaqBody))
	}))
	defer server.Close()

	client := fetch.NewNasdaqClient(sourcesConfig(server.URL))
	table, err := client.Holdings(context.Background(), "AAA")
	if err != nil {
		t.Fatalf("Holdings failed: %v", err)
	}

	if !table.SharesBased {
		t.Error("Nasdaq tables are share counts, expected SharesBased")
	}
	if table.TotalShares != "37" || table.TotalScale != 1e6 {
		t.Errorf("Total shares = %s x %v, want 37 x 1e6", table.TotalShares, table.TotalScale)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(table.Rows))
	}
	if table.Rows[0].Holder != "BLACKROCK INC" || table.Rows[0].Value != "1,850,000" {
		t.Errorf("Row not carried through: %+v", table.Rows[0])
	}
}

func TestNasdaqClient_ServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := fetch.NewNasdaqClient(sourcesConfig(server.URL))
	_, err := client.Holdings(context.Background(), "AAA")
	if !errors.Is(err, fetch.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}

const yahooPriceBody = `{"quoteSummary": {"result": [
	{"price": {"regularMarketPrice": {"raw": 0.75}}}
]}}`

const yahooHoldingsBody = `{"quoteSummary": {"result": [
	{"institutionOwnership": {"ownershipList": [
		{"organization": "Vanguard Group Inc", "pctHeld": {"raw": 0.071}, "reportDate": {"fmt": "2025-06-30"}},
		{"organization": "Blackrock Inc.", "pctHeld": {"raw": 0.045}, "reportDate": {"fmt": "2025-06-30"}}
	]}}
]}}`

func TestYahooClient_Price(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("modules") != "price" {
			t.Errorf("Expected price module, got %s", r.URL.Query().Get("modules"))
		}
		w.Write([]byte(yahooPriceBody))
	}))
	defer server.Close()

	client := fetch.NewYahooClient(sourcesConfig(server.URL))
	price, err := client.Price(context.Background(), "AAA")
	if err != nil {
		t.Fatalf("Price failed: %v", err)
	}
	if price != 0.75 {
		t.Errorf("Price = %v, want 0.75", price)
	}
}

func TestYahooClient_HoldingsConvertsScale(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(yahooHoldingsBody))
	}))
	defer server.Close()

	client := fetch.NewYahooClient(sourcesConfig(server.URL))
	table, err := client.Holdings(context.Background(), "AAA")
	if err != nil {
		t.Fatalf("Holdings failed: %v", err)
	}

	if table.SharesBased {
		t.Error("Yahoo tables are percentages, not share counts")
	}
	if len(table.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(table.Rows))
	}
	// 0.071 decimal fraction becomes 7.1 on the 0-100 scale
	pct, err := strconv.ParseFloat(table.Rows[0].Value, 64)
	if err != nil {
		t.Fatalf("Value %q is not numeric: %v", table.Rows[0].Value, err)
	}
	if math.Abs(pct-7.1) > 1e-9 {
		t.Errorf("Value = %v, want 7.1", pct)
	}
	if table.Rows[0].AsOf != "2025-06-30" {
		t.Errorf("Report date not carried through: %+v", table.Rows[0])
	}
}

func TestYahooClient_EmptyResultIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteSummary": {"result": []}}`))
	}))
	defer server.Close()

	client := fetch.NewYahooClient(sourcesConfig(server.URL))
	if _, err := client.Price(context.Background(), "AAA"); !errors.Is(err, fetch.ErrUnavailable) {
		t.Errorf("Expected ErrUnavailable, got %v", err)
	}
}
