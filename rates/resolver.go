package rates

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"realestate-ledger/shared"
)

const (
	// DefaultBaseURL is the public exchangeratesapi.io endpoint.
	DefaultBaseURL = "https://api.exchangeratesapi.io"
	DefaultTimeout = 10 * time.Second

	dateLayout   = "2006-01-02"
	maxBodyBytes = 1 << 20
)

// Resolver converts amount from one currency to another. A nil asOf asks for
// the latest rate; otherwise the rate in effect on that day is used.
//
// Implementations return amount unchanged when from == to, and report every
// failure as a *ResolutionError.
type Resolver interface {
	Resolve(ctx context.Context, from, to shared.Currency, amount decimal.Decimal, asOf *time.Time) (decimal.Decimal, error)
}

// rateToken is the first decimal number in a response body. The payload is
// not decoded: any shape carrying the rate as its first dotted number works.
var rateToken = regexp.MustCompile(`\d+\.\d*`)

// Client resolves rates against an exchangeratesapi.io compatible HTTP
// service. It performs exactly one request per Resolve call.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Resolve(ctx context.Context, from, to shared.Currency, amount decimal.Decimal, asOf *time.Time) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}

	rate, err := c.fetchRate(ctx, from, to, asOf)
	if err != nil {
		return decimal.Zero, resolutionError(from, to, err)
	}
	return rate.Mul(amount), nil
}

// requestURL builds the "latest" query, or the "history" query for the
// one-day window ending at asOf.
func (c *Client) requestURL(from, to shared.Currency, asOf *time.Time) string {
	params := url.Values{}
	params.Set("base", string(from))
	params.Set("symbols", string(to))

	if asOf == nil {
		return fmt.Sprintf("%s/latest?%s", c.baseURL, params.Encode())
	}

	end := asOf.UTC()
	params.Set("start_at", end.AddDate(0, 0, -1).Format(dateLayout))
	params.Set("end_at", end.Format(dateLayout))
	return fmt.Sprintf("%s/history?%s", c.baseURL, params.Encode())
}

func (c *Client) fetchRate(ctx context.Context, from, to shared.Currency, asOf *time.Time) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(from, to, asOf), nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: create request: %v", ErrTransport, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decimal.Zero, fmt.Errorf("%w: status %d: %s", ErrTransport, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return ParseRate(body)
}

// ParseRate extracts the first decimal number from a rate source response.
func ParseRate(body []byte) (decimal.Decimal, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return decimal.Zero, ErrEmptyBody
	}

	token := rateToken.Find(body)
	if token == nil {
		return decimal.Zero, ErrNoRate
	}

	rate, err := decimal.NewFromString(strings.TrimSuffix(string(token), "."))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrNoRate, token, err)
	}
	return rate, nil
}
