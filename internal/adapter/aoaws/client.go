package aoaws

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/aoaws-etl/internal/domain"
	"golang.org/x/net/html/charset"
)

const (
	// DefaultURL is the AOAWS page template; %s is the language code.
	DefaultURL = "https://aoaws.anws.gov.tw/AWS/mainRight.php?lang=%s&voice_alarm=0&state=Taiwan"

	// DefaultTimeout bounds one fetch. The client never retries.
	DefaultTimeout = 10 * time.Second

	// UserAgent is sent with every request; the page rejects bare clients.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/90.0.4430.72 Safari/537.36 OPR/38.0.2220.41"

	maxPageBytes = 8 << 20
)

// TransportError reports a fetch that failed or returned a non-200 status.
// StatusCode is zero when no response was received.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("aoaws transport: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("aoaws transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client fetches the AOAWS station page.
type Client struct {
	urlTemplate string
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient creates an AOAWS client. urlTemplate must contain one %s for the
// language code; empty means DefaultURL.
func NewClient(urlTemplate string, timeout time.Duration, logger *slog.Logger) *Client {
	if urlTemplate == "" {
		urlTemplate = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		urlTemplate: urlTemplate,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// PageURL returns the page address for a language.
func (c *Client) PageURL(lang string) string {
	return fmt.Sprintf(c.urlTemplate, lang)
}

// FetchPage POSTs to the page and returns the body decoded to UTF-8.
func (c *Client) FetchPage(ctx context.Context, lang string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.PageURL(lang), http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TransportError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("unexpected response: %s", body)}
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxPageBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("decode charset: %w", err)}
	}
	page, err := io.ReadAll(body)
	if err != nil {
		return "", &TransportError{StatusCode: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	return string(page), nil
}

// FetchTable fetches the page and extracts its station table.
func (c *Client) FetchTable(ctx context.Context, lang string) ([]domain.RawRow, error) {
	page, err := c.FetchPage(ctx, lang)
	if err != nil {
		return nil, err
	}
	rows := ExtractTable(page)
	if len(rows) == 0 {
		c.logger.Warn("aoaws page has no station table", "lang", lang, "bytes", len(page))
	}
	return rows, nil
}
