
package ioformats

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Entry is one page to process: a saved HTML file or a URL to fetch.
// Slug may be empty, in which case it is derived from the URL or file name.
type Entry struct {
	Slug string `json:"slug,omitempty"`
	Path string `json:"path,omitempty"`
	URL  string `json:"url,omitempty"`
}

// Source returns the path or URL the entry points at.
func (e Entry) Source() string {
	if e.Path != "" {
		return e.Path
	}
	return e.URL
}

// ReadManifest reads entries from a CSV file (header with "path" or "url",
// optionally "slug") or an NDJSON file. Relative paths are resolved
// against the manifest's directory. If the extension is unknown, CSV is
// tried first, then NDJSON.
func ReadManifest(path string) ([]Entry, error) {
	var (
		entries []Entry
		err     error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		entries, err = readCSV(path)
	case ".ndjson", ".jsonl":
		entries, err = readNDJSON(path)
	default:
		entries, err = readCSV(path)
		if err != nil || len(entries) == 0 {
			entries, err = readNDJSON(path)
		}
	}
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	for i := range entries {
		if p := entries[i].Path; p != "" && !filepath.IsAbs(p) {
			entries[i].Path = filepath.Join(dir, p)
		}
	}
	return entries, nil
}

func readCSV(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New("empty csv")
	}
	cols := map[string]int{}
	for i, h := range rows[0] {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	_, hasPath := cols["path"]
	_, hasURL := cols["url"]
	if !hasPath && !hasURL {
		return nil, errors.New("csv must contain a 'path' or 'url' header column")
	}
	get := func(row []string, name string) string {
		if i, ok := cols[name]; ok && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}
	var out []Entry
	for _, row := range rows[1:] {
		e := Entry{Slug: get(row, "slug"), Path: get(row, "path"), URL: get(row, "url")}
		if e.Source() != "" {
			out = append(out, e)
		}
	}
	return out, nil
}

func readNDJSON(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var out []Entry
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "{") {
			var e Entry
			if err := json.Unmarshal([]byte(line), &e); err != nil {
				return nil, fmt.Errorf("line %d: %w", n, err)
			}
			if e.Source() != "" {
				out = append(out, e)
			}
			continue
		}
		// bare line: a URL or a file path
		if strings.HasPrefix(line, "http://") || strings.HasPrefix(line, "https://") {
			out = append(out, Entry{URL: line})
		} else {
			out = append(out, Entry{Path: line})
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, errors.New("no entries found in ndjson")
	}
	return out, nil
}

// WriteNDJSON writes JSON-marshalable items as NDJSON to w.
func WriteNDJSON[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, it := range items {
		if err := enc.Encode(it); err != nil {
			return err
		}
	}
	return nil
}
