
package crawler

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/olcayay/shopify-tracker-sub001/internal/parser"
)

var ErrNotHTML = errors.New("non-html content")

// Page is one fetched and decoded document.
type Page struct {
	URL         string
	FinalURL    string
	ContentType string
	Body        string
	Elapsed     time.Duration
}

type Options struct {
	Timeout   time.Duration
	SizeCap   int64
	UserAgent string
	Logger    *slog.Logger
}

type Client struct {
	http    *resty.Client
	sizeCap int64
	log     *slog.Logger
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.SizeCap <= 0 {
		opts.SizeCap = 5 << 20
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "shopify-tracker/1.0"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	client := resty.New()
	client.SetTimeout(opts.Timeout)
	client.SetHeader("User-Agent", opts.UserAgent)
	client.SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	client.SetHeader("Accept-Encoding", "gzip")
	client.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))

	return &Client{http: client, sizeCap: opts.SizeCap, log: opts.Logger}
}

// Fetch downloads rawURL, caps the body at the configured size and decodes
// it to UTF-8. Only HTML responses are accepted; a missing Content-Type is
// let through.
func (c *Client) Fetch(ctx context.Context, rawURL string) (Page, error) {
	start := time.Now()
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return Page{}, fmt.Errorf("invalid url %q", rawURL)
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(u.String())
	if err != nil {
		return Page{}, fmt.Errorf("fetching %s: %w", rawURL, err)
	}
	raw := res.RawBody()
	defer raw.Close()

	if res.StatusCode() < 200 || res.StatusCode() >= 400 {
		return Page{}, fmt.Errorf("fetching %s: http status %d", rawURL, res.StatusCode())
	}

	contentType := res.Header().Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	if mediaType != "" && !strings.Contains(mediaType, "text/html") && !strings.Contains(mediaType, "application/xhtml+xml") {
		return Page{}, fmt.Errorf("fetching %s: %w (%s)", rawURL, ErrNotHTML, mediaType)
	}

	var body io.Reader = raw
	if strings.EqualFold(res.Header().Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(raw)
		if err != nil {
			return Page{}, fmt.Errorf("fetching %s: %w", rawURL, err)
		}
		defer gz.Close()
		body = gz
	}

	text, err := parser.Decode(io.LimitReader(body, c.sizeCap), contentType)
	if err != nil {
		return Page{}, fmt.Errorf("decoding %s: %w", rawURL, err)
	}

	finalURL := u.String()
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		finalURL = res.RawResponse.Request.URL.String()
	}
	p := Page{
		URL:         rawURL,
		FinalURL:    finalURL,
		ContentType: contentType,
		Body:        text,
		Elapsed:     time.Since(start),
	}
	c.log.DebugContext(ctx, "fetched page", "url", finalURL, "bytes", len(text), "elapsed", p.Elapsed)
	return p, nil
}

// CrawlCategory fetches up to maxPages listing pages of a category. When
// the landing page has no listings of its own, or links to its full list,
// the /all variant is crawled instead. Pages are followed with ?page=N for
// as long as the current page links to a next one.
func (c *Client) CrawlCategory(ctx context.Context, categoryURL string, maxPages int) ([]Page, error) {
	if maxPages < 1 {
		maxPages = 1
	}
	first, err := c.Fetch(ctx, categoryURL)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(first.FinalURL)
	if err != nil {
		return nil, err
	}
	base.RawQuery = ""
	if parser.ShouldUseAllPage(first.Body) && !strings.HasSuffix(strings.TrimRight(base.Path, "/"), "/all") {
		base.Path = strings.TrimRight(base.Path, "/") + "/all"
		c.log.InfoContext(ctx, "switching to full listing", "url", base.String())
		first, err = c.Fetch(ctx, base.String())
		if err != nil {
			return nil, err
		}
	}

	pages := []Page{first}
	for n := 2; n <= maxPages && parser.HasNextPage(pages[len(pages)-1].Body); n++ {
		if err := ctx.Err(); err != nil {
			return pages, err
		}
		next := *base
		q := next.Query()
		q.Set("page", strconv.Itoa(n))
		next.RawQuery = q.Encode()
		p, err := c.Fetch(ctx, next.String())
		if err != nil {
			return pages, err
		}
		pages = append(pages, p)
	}
	return pages, nil
}
