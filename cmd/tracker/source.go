
package main

import (
	"context"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/olcayay/shopify-tracker-sub001/internal/parser"
)

func isURL(src string) bool {
	return strings.HasPrefix(src, "http://") || strings.HasPrefix(src, "https://")
}

// load returns the markup behind src, a URL or a saved file, and the URL
// the page should be attributed to.
func (e env) load(ctx context.Context, src string) (markup, pageURL string, err error) {
	if isURL(src) {
		p, err := e.crawler().Fetch(ctx, src)
		if err != nil {
			return "", "", err
		}
		return p.Body, p.FinalURL, nil
	}
	f, err := os.Open(src)
	if err != nil {
		return "", "", err
	}
	defer f.Close()
	markup, err = parser.Decode(f, "")
	return markup, "", err
}

// slugFor picks an app slug: the explicit one, else the last URL path
// segment, else the file name without extension.
func slugFor(src, explicit string) string {
	if explicit != "" {
		return explicit
	}
	if isURL(src) {
		if u, err := url.Parse(src); err == nil {
			return path.Base(strings.TrimRight(u.Path, "/"))
		}
	}
	base := filepath.Base(src)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
