// Package ebay speaks the eBay Trading API: listing enumeration via
// GetMyeBaySelling and price revision via ReviseFixedPriceItem.
package ebay

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultTradingURL     = "https://api.ebay.com/ws/api.dll"
	defaultEntriesPerPage = 100

	compatibilityLevel = "967"
	siteID             = "0"
)

// Listing is one active fixed-price listing.
type Listing struct {
	ItemID       string
	Title        string
	CurrentPrice float64
	Quantity     int
}

// Client defines the Trading API operations used by the repricer.
type Client interface {
	ActiveListings(ctx context.Context) ([]Listing, error)
	UpdatePrice(ctx context.Context, itemID string, newPrice float64) error
}

// Option configures the client.
type Option func(*httpClient)

// WithTradingURL overrides the Trading API endpoint.
func WithTradingURL(url string) Option {
	return func(c *httpClient) {
		c.tradingURL = url
	}
}

// WithIdentityURL overrides the OAuth token endpoint.
func WithIdentityURL(url string) Option {
	return func(c *httpClient) {
		c.identityURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit overrides the default Trading API call rate.
func WithRateLimit(l *rate.Limiter) Option {
	return func(c *httpClient) {
		c.limiter = l
	}
}

// WithEntriesPerPage overrides the GetMyeBaySelling page size.
func WithEntriesPerPage(n int) Option {
	return func(c *httpClient) {
		c.perPage = n
	}
}

type httpClient struct {
	tradingURL  string
	identityURL string
	perPage     int
	http        *http.Client
	limiter     *rate.Limiter
	tokens      *tokenSource
}

// NewClient creates a Trading API client. Calls are throttled to stay
// inside eBay's per-application rate limits.
func NewClient(creds Credentials, opts ...Option) Client {
	c := &httpClient{
		tradingURL:  defaultTradingURL,
		identityURL: defaultIdentityURL,
		perPage:     defaultEntriesPerPage,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Every(500*time.Millisecond), 1),
	}
	for _, o := range opts {
		o(c)
	}
	c.tokens = newTokenSource(creds, c.identityURL, c.http)
	return c
}

type apiError struct {
	ShortMessage string `xml:"ShortMessage"`
	LongMessage  string `xml:"LongMessage"`
	SeverityCode string `xml:"SeverityCode"`
}

type sellingResponse struct {
	Ack    string     `xml:"Ack"`
	Errors []apiError `xml:"Errors"`
	Items  []struct {
		ItemID       string  `xml:"ItemID"`
		Title        string  `xml:"Title"`
		CurrentPrice float64 `xml:"SellingStatus>CurrentPrice"`
		Quantity     int     `xml:"Quantity"`
	} `xml:"ActiveList>ItemArray>Item"`
	TotalPages int `xml:"ActiveList>PaginationResult>TotalNumberOfPages"`
}

type reviseResponse struct {
	Ack    string     `xml:"Ack"`
	Errors []apiError `xml:"Errors"`
}

// ActiveListings pages through GetMyeBaySelling until the reported last
// page is reached.
func (c *httpClient) ActiveListings(ctx context.Context) ([]Listing, error) {
	var listings []Listing
	for page := 1; ; page++ {
		resp, err := c.sellingPage(ctx, page)
		if err != nil {
			return nil, err
		}
		for _, item := range resp.Items {
			if item.ItemID == "" {
				continue
			}
			title := item.Title
			if title == "" {
				title = "Unknown"
			}
			listings = append(listings, Listing{
				ItemID:       item.ItemID,
				Title:        title,
				CurrentPrice: item.CurrentPrice,
				Quantity:     item.Quantity,
			})
		}
		if page >= resp.TotalPages || len(resp.Items) == 0 {
			break
		}
	}
	zap.L().Debug("ebay: fetched active listings", zap.Int("count", len(listings)))
	return listings, nil
}

func (c *httpClient) sellingPage(ctx context.Context, page int) (*sellingResponse, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	body := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<GetMyeBaySellingRequest xmlns="urn:ebay:apis:eBLBaseComponents">
    <RequesterCredentials>
        <eBayAuthToken>%s</eBayAuthToken>
    </RequesterCredentials>
    <ActiveList>
        <Include>true</Include>
        <Pagination>
            <EntriesPerPage>%d</EntriesPerPage>
            <PageNumber>%d</PageNumber>
        </Pagination>
    </ActiveList>
    <DetailLevel>ReturnAll</DetailLevel>
</GetMyeBaySellingRequest>`, token, c.perPage, page)

	var resp sellingResponse
	if err := c.call(ctx, "GetMyeBaySelling", token, body, &resp); err != nil {
		return nil, err
	}
	if resp.Ack != "Success" && resp.Ack != "Warning" {
		return nil, eris.Errorf("ebay: GetMyeBaySelling failed: %s", joinErrors(resp.Errors))
	}
	if resp.Ack == "Warning" {
		zap.L().Warn("ebay: GetMyeBaySelling warning", zap.String("errors", joinErrors(resp.Errors)))
	}
	return &resp, nil
}

// UpdatePrice revises the fixed price of one listing. A Warning ack still
// means the revision took effect.
func (c *httpClient) UpdatePrice(ctx context.Context, itemID string, newPrice float64) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	body := fmt.Sprintf(`<?xml version="1.0" encoding="utf-8"?>
<ReviseFixedPriceItemRequest xmlns="urn:ebay:apis:eBLBaseComponents">
    <RequesterCredentials>
        <eBayAuthToken>%s</eBayAuthToken>
    </RequesterCredentials>
    <Item>
        <ItemID>%s</ItemID>
        <StartPrice>%.2f</StartPrice>
    </Item>
</ReviseFixedPriceItemRequest>`, token, itemID, newPrice)

	var resp reviseResponse
	if err := c.call(ctx, "ReviseFixedPriceItem", token, body, &resp); err != nil {
		return err
	}
	if resp.Ack != "Success" && resp.Ack != "Warning" {
		return eris.Errorf("ebay: revise item %s: %s", itemID, joinErrors(resp.Errors))
	}
	return nil
}

func (c *httpClient) call(ctx context.Context, callName, token, body string, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "ebay: rate limit wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tradingURL, strings.NewReader(body))
	if err != nil {
		return eris.Wrapf(err, "ebay: create %s request", callName)
	}
	req.Header.Set("X-EBAY-API-SITEID", siteID)
	req.Header.Set("X-EBAY-API-COMPATIBILITY-LEVEL", compatibilityLevel)
	req.Header.Set("X-EBAY-API-CALL-NAME", callName)
	req.Header.Set("X-EBAY-API-IAF-TOKEN", token)
	req.Header.Set("Content-Type", "text/xml")

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrapf(err, "ebay: %s request", callName)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrapf(err, "ebay: read %s response", callName)
	}
	if resp.StatusCode != http.StatusOK {
		return eris.Errorf("ebay: %s status %d: %s", callName, resp.StatusCode, string(respBody))
	}

	if err := xml.Unmarshal(respBody, out); err != nil {
		return eris.Wrapf(err, "ebay: parse %s response", callName)
	}
	return nil
}

func joinErrors(errs []apiError) string {
	if len(errs) == 0 {
		return "unknown error"
	}
	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.LongMessage != "" {
			msgs = append(msgs, e.LongMessage)
		} else if e.ShortMessage != "" {
			msgs = append(msgs, e.ShortMessage)
		}
	}
	if len(msgs) == 0 {
		return "unknown error"
	}
	return strings.Join(msgs, "; ")
}
