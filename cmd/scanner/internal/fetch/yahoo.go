package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/seepananikhil/PennyWhales/cmd/scanner/internal/normalize"
	"github.com/seepananikhil/PennyWhales/pkg/config"
)

const yahooSourceID = "yahoo"

// YahooClient serves both the price lookup and a second holder table from
// the Yahoo quoteSummary API. Yahoo reports ownership as decimal
// fractions (0-1); they are converted to the canonical 0-100 scale here,
// at ingestion, so the engine only ever sees one scale.
type YahooClient struct {
	http      *http.Client
	baseURL   string
	userAgent string
}

func NewYahooClient(cfg config.SourcesConfig) *YahooClient {
	return &YahooClient{
		http:      &http.Client{Timeout: cfg.Timeout},
		baseURL:   cfg.YahooBaseURL,
		userAgent: cfg.UserAgent,
	}
}

func (c *YahooClient) ID() string { return yahooSourceID }

type yahooResponse struct {
	QuoteSummary struct {
		Result []yahooResult `json:"result"`
	} `json:"quoteSummary"`
}

type yahooResult struct {
	Price *struct {
		RegularMarketPrice struct {
			Raw float64 `json:"raw"`
		} `json:"regularMarketPrice"`
	} `json:"price"`
	InstitutionOwnership *struct {
		OwnershipList []yahooOwnership `json:"ownershipList"`
	} `json:"institutionOwnership"`
}

type yahooOwnership struct {
	Organization string `json:"organization"`
	PctHeld      struct {
		Raw float64 `json:"raw"`
	} `json:"pctHeld"`
	ReportDate struct {
		Fmt string `json:"fmt"`
	} `json:"reportDate"`
}

func (c *YahooClient) quoteSummary(ctx context.Context, ticker, modules string) (*yahooResult, error) {
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s", c.baseURL, url.PathEscape(ticker))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building yahoo request: %w", err)
	}
	q := req.URL.Query()
	q.Set("modules", modules)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yahoo request for %s: %w", ticker, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo returned status %d for %s: %w", resp.StatusCode, ticker, ErrUnavailable)
	}

	var body yahooResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding yahoo response for %s: %w", ticker, err)
	}
	if len(body.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("yahoo had no result for %s: %w", ticker, ErrUnavailable)
	}
	return &body.QuoteSummary.Result[0], nil
}

// Price returns the last traded price, or ErrUnavailable when Yahoo has
// no positive quote for the ticker.
func (c *YahooClient) Price(ctx context.Context, ticker string) (float64, error) {
	result, err := c.quoteSummary(ctx, ticker, "price")
	if err != nil {
		return 0, err
	}
	if result.Price == nil || result.Price.RegularMarketPrice.Raw <= 0 {
		return 0, fmt.Errorf("no price for %s: %w", ticker, ErrUnavailable)
	}
	return result.Price.RegularMarketPrice.Raw, nil
}

// Holdings returns the institutional ownership table for a ticker.
func (c *YahooClient) Holdings(ctx context.Context, ticker string) (normalize.RawTable, error) {
	result, err := c.quoteSummary(ctx, ticker, "institutionOwnership")
	if err != nil {
		return normalize.RawTable{}, err
	}

	table := normalize.RawTable{SourceID: yahooSourceID}
	if result.InstitutionOwnership == nil {
		return table, nil
	}
	for _, own := range result.InstitutionOwnership.OwnershipList {
		table.Rows = append(table.Rows, normalize.RawRow{
			Holder: own.Organization,
			// decimal fraction -> 0-100 scale
			Value: strconv.FormatFloat(own.PctHeld.Raw*100, 'f', -1, 64),
			AsOf:  own.ReportDate.Fmt,
		})
	}
	return table, nil
}
