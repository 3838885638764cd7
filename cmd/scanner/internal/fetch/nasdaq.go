// Package fetch implements the provider clients the engine consumes
// through the scan package's source interfaces. A provider failure is
// surfaced as an error and downgraded to "no records" by the caller; it
// is never fatal for a ticker.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/seepananikhil/PennyWhales/cmd/scanner/internal/normalize"
	"github.com/seepananikhil/PennyWhales/pkg/config"
)

// ErrUnavailable signals that a provider had no usable data for a ticker.
var ErrUnavailable = errors.New("source unavailable")

const nasdaqSourceID = "nasdaq"

// NasdaqClient fetches institutional holdings from the Nasdaq company
// API. Nasdaq reports absolute shares held plus total shares outstanding
// in millions; the normalizer derives percentages from those.
type NasdaqClient struct {
	http      *http.Client
	baseURL   string
	userAgent string
}

func NewNasdaqClient(cfg config.SourcesConfig) *NasdaqClient {
	return &NasdaqClient{
		http:      &http.Client{Timeout: cfg.Timeout},
		baseURL:   cfg.NasdaqBaseURL,
		userAgent: cfg.UserAgent,
	}
}

func (c *NasdaqClient) ID() string { return nasdaqSourceID }

type nasdaqResponse struct {
	Status struct {
		RCode int `json:"rCode"`
	} `json:"status"`
	Data struct {
		OwnershipSummary struct {
			ShareoutstandingTotal struct {
				Value string `json:"value"`
			} `json:"ShareoutstandingTotal"`
		} `json:"ownershipSummary"`
		HoldingsTransactions struct {
			Table struct {
				Rows []nasdaqHoldingRow `json:"rows"`
			} `json:"table"`
		} `json:"holdingsTransactions"`
	} `json:"data"`
}

type nasdaqHoldingRow struct {
	OwnerName  string `json:"ownerName"`
	SharesHeld string `json:"sharesHeld"`
	Date       string `json:"date"`
}

// Holdings returns the raw holder table for a ticker.
func (c *NasdaqClient) Holdings(ctx context.Context, ticker string) (normalize.RawTable, error) {
	endpoint := fmt.Sprintf("%s/api/company/%s/institutional-holdings", c.baseURL, url.PathEscape(ticker))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return normalize.RawTable{}, fmt.Errorf("building nasdaq request: %w", err)
	}
	q := req.URL.Query()
	q.Set("limit", "50")
	q.Set("type", "TOTAL")
	q.Set("sortColumn", "marketValue")
	req.URL.RawQuery = q.Encode()
	// Nasdaq rejects requests without a browser user agent
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return normalize.RawTable{}, fmt.Errorf("nasdaq request for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return normalize.RawTable{}, fmt.Errorf("nasdaq returned status %d for %s: %w", resp.StatusCode, ticker, ErrUnavailable)
	}

	var body nasdaqResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return normalize.RawTable{}, fmt.Errorf("decoding nasdaq response for %s: %w", ticker, err)
	}
	if body.Status.RCode != 0 && body.Status.RCode != http.StatusOK {
		return normalize.RawTable{}, fmt.Errorf("nasdaq rCode %d for %s: %w", body.Status.RCode, ticker, ErrUnavailable)
	}

	table := normalize.RawTable{
		SourceID:    nasdaqSourceID,
		SharesBased: true,
		TotalShares: body.Data.OwnershipSummary.ShareoutstandingTotal.Value,
		TotalScale:  1e6, // reported in millions
	}
	for _, row := range body.Data.HoldingsTransactions.Table.Rows {
		table.Rows = append(table.Rows, normalize.RawRow{
			Holder: row.OwnerName,
			Value:  row.SharesHeld,
			AsOf:   row.Date,
		})
	}
	return table, nil
}
