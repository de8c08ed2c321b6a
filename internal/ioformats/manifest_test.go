
package ioformats

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestReadManifestCSV(t *testing.T) {
	path := write(t, "apps.csv", "slug,path,url\ntidio-chat,pages/tidio.html,\n,,https://apps.shopify.com/gorgias\n,,\n")
	entries, err := ReadManifest(path)
	require.NoError(t, err)
	require.Equal(t, []Entry{
		{Slug: "tidio-chat", Path: filepath.Join(filepath.Dir(path), "pages", "tidio.html")},
		{URL: "https://apps.shopify.com/gorgias"},
	}, entries)
}

func TestReadManifestCSVNeedsColumn(t *testing.T) {
	_, err := ReadManifest(write(t, "apps.csv", "slug\ntidio\n"))
	require.Error(t, err)
}

func TestReadManifestNDJSON(t *testing.T) {
	path := write(t, "apps.ndjson", `{"slug":"tidio-chat","path":"/abs/tidio.html"}

https://apps.shopify.com/gorgias
saved/pagefly.html
`)
	entries, err := ReadManifest(path)
	require.NoError(t, err)
	require.Equal(t, []Entry{
		{Slug: "tidio-chat", Path: "/abs/tidio.html"},
		{URL: "https://apps.shopify.com/gorgias"},
		{Path: filepath.Join(filepath.Dir(path), "saved", "pagefly.html")},
	}, entries)
}

func TestReadManifestUnknownExtension(t *testing.T) {
	entries, err := ReadManifest(write(t, "apps.txt", "https://apps.shopify.com/tidio-chat\n"))
	require.NoError(t, err)
	require.Equal(t, []Entry{{URL: "https://apps.shopify.com/tidio-chat"}}, entries)
}

func TestWriteNDJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteNDJSON(&buf, []Entry{{Slug: "a", URL: "https://x"}, {Path: "p"}}))
	require.Equal(t, "{\"slug\":\"a\",\"url\":\"https://x\"}\n{\"path\":\"p\"}\n", buf.String())
}
