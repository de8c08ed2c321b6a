
package parser

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/net/html/charset"

	"github.com/olcayay/shopify-tracker-sub001/internal/models"
)

const (
	DefaultBaseURL            = "https://apps.shopify.com"
	DefaultSubcategorySegment = 2
	DefaultMaxListings        = 24
)

// Parser turns listing page markup into structured records. It holds no
// mutable state, so one Parser may be shared by any number of goroutines.
type Parser struct {
	log         *slog.Logger
	base        *url.URL
	segment     int
	maxListings int
}

type Option func(*Parser)

func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.log = l
		}
	}
}

// WithBaseURL sets the URL relative links are resolved against.
func WithBaseURL(raw string) Option {
	return func(p *Parser) {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			p.base = u
		}
	}
}

// WithSubcategorySegment sets which zero-based dot segment of a feature
// handle names its subcategory bucket.
func WithSubcategorySegment(i int) Option {
	return func(p *Parser) {
		if i >= 0 {
			p.segment = i
		}
	}
}

func WithMaxListings(n int) Option {
	return func(p *Parser) {
		if n > 0 {
			p.maxListings = n
		}
	}
}

func New(opts ...Option) *Parser {
	base, _ := url.Parse(DefaultBaseURL)
	p := &Parser{
		log:         slog.Default(),
		base:        base,
		segment:     DefaultSubcategorySegment,
		maxListings: DefaultMaxListings,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Decode reads a fetched body and returns it as UTF-8 text, using the
// Content-Type header and <meta charset> sniffing to pick the encoding.
func Decode(r io.Reader, contentType string) (string, error) {
	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, r); err != nil {
		return "", err
	}
	data := buf.Bytes()

	enc, _, _ := charset.DetermineEncoding(data, contentType)
	utf8data, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		// fallback: if already utf-8, continue
		if !utf8.Valid(data) {
			return "", err
		}
		utf8data = data
	}
	return string(utf8data), nil
}

// diagnostics collects the field failures of one parse.
type diagnostics struct {
	slug string
	list []models.Diagnostic
}

func (p *Parser) fail(d *diagnostics, field string, err error) {
	p.log.Warn("field extraction failed", "field", field, "slug", d.slug, "err", err)
	d.list = append(d.list, models.Diagnostic{Field: field, Slug: d.slug, Err: err.Error()})
}

// extract runs fn inside its own failure boundary. A returned error or a
// panic is logged and recorded, and def is returned in place of the value.
func extract[T any](p *Parser, d *diagnostics, field string, def T, fn func() (T, error)) (out T) {
	defer func() {
		if r := recover(); r != nil {
			p.fail(d, field, fmt.Errorf("panic: %v", r))
			out = def
		}
	}()
	v, err := fn()
	if err != nil {
		p.fail(d, field, err)
		return def
	}
	return v
}

type implausibleError struct {
	what string
}

func (e implausibleError) Error() string { return "implausible " + e.what }

func newDocument(markup string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(markup))
}

func clean(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// textParts returns the non-empty text nodes under s in document order,
// whitespace collapsed. Script and style content is skipped.
func textParts(s *goquery.Selection) []string {
	var out []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := clean(n.Data); t != "" {
				out = append(out, t)
			}
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript:
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return out
}

// nodeText is the visible text of s with a space between adjacent text
// nodes, so "<h1>Support apps</h1><p>1,250 apps</p>" keeps its two phrases
// apart.
func nodeText(s *goquery.Selection) string {
	return strings.Join(textParts(s), " ")
}

// pageText is the collapsed visible text of the document body.
func pageText(doc *goquery.Document) string {
	return nodeText(doc.Find("body"))
}

func (p *Parser) absURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	u, err := url.Parse(href)
	if err != nil {
		return href
	}
	return p.base.ResolveReference(u).String()
}

func ptr[T any](v T) *T { return &v }
