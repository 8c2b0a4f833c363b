// Package fs writes scrape results as files in a directory.
package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/mcscrape"
	"gopkg.in/yaml.v3"
)

// maxBaseLen caps file base names below common filesystem limits, leaving
// room for the longest suffix.
const maxBaseLen = 200

// BaseName converts a URL into a flat file base name by replacing path and
// scheme separators with underscores. Characters unsafe on some filesystems
// are replaced too, and the name then gets a hash suffix so that URLs such
// as /x?y and /x/y stay distinct.
// Example: https://example.com/docs → https___example.com_docs
func BaseName(rawURL string) string {
	lossy := false
	name := strings.Map(func(r rune) rune {
		switch r {
		case '/', ':':
			return '_'
		case '\\', '?', '*', '"', '<', '>', '|':
			lossy = true
			return '_'
		}
		return r
	}, rawURL)
	suffix := ""
	if lossy || len(name) > maxBaseLen {
		suffix = fmt.Sprintf("_%016x", xxhash.Sum64String(rawURL))
	}
	if len(name)+len(suffix) > maxBaseLen {
		name = name[:maxBaseLen-len(suffix)]
	}
	return name + suffix
}

// frontmatter is the YAML header of the Markdown artifact.
type frontmatter struct {
	Source      string `yaml:"source"`
	FinalURL    string `yaml:"final_url,omitempty"`
	Title       string `yaml:"title,omitempty"`
	Fetched     string `yaml:"fetched,omitempty"`
	ContentHash string `yaml:"content_hash,omitempty"`
}

// FormatMarkdown formats a result's Markdown with YAML frontmatter.
func FormatMarkdown(result *mcscrape.ScrapeResult) (string, error) {
	fm := frontmatter{
		Source:      result.URL,
		ContentHash: result.ContentHash,
	}
	if result.FinalURL != result.URL {
		fm.FinalURL = result.FinalURL
	}
	if result.Metadata != nil && result.Metadata.Title != nil {
		fm.Title = *result.Metadata.Title
	}
	if !result.FetchedAt.IsZero() {
		fm.Fetched = result.FetchedAt.Format("2006-01-02")
	}

	header, err := yaml.Marshal(fm)
	if err != nil {
		return "", mcscrape.WrapError(mcscrape.EINTERNAL, err, "encoding frontmatter: %v", err)
	}

	var b strings.Builder
	b.WriteString("---\n")
	b.Write(header)
	b.WriteString("---\n\n")
	b.WriteString(result.MainContentMarkdown)
	return b.String(), nil
}

// Ensure Writer implements mcscrape.ResultWriter at compile time.
var _ mcscrape.ResultWriter = (*Writer)(nil)

// Writer writes each result as a set of files named after its URL:
// <base>.md, <base>_links.json, <base>_tree.json, <base>_metadata.json and,
// with a tree encoder, <base>_tree.xml. A failed URL gets <base>_error.json
// instead.
type Writer struct {
	baseDir string
	encoder mcscrape.TreeEncoder
}

// Option configures a Writer.
type Option func(*Writer)

// WithTreeEncoder also writes the node tree through enc as <base>_tree.xml.
func WithTreeEncoder(enc mcscrape.TreeEncoder) Option {
	return func(w *Writer) {
		w.encoder = enc
	}
}

// NewWriter creates a new Writer that writes to the given base directory.
func NewWriter(baseDir string, opts ...Option) *Writer {
	w := &Writer{baseDir: baseDir}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// WriteResult implements mcscrape.ResultWriter.
func (w *Writer) WriteResult(ctx context.Context, result *mcscrape.ScrapeResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.MkdirAll(w.baseDir, 0755); err != nil {
		return mcscrape.WrapError(mcscrape.EINTERNAL, err, "creating output directory: %v", err)
	}

	artifacts, err := Artifacts(result, w.encoder)
	if err != nil {
		return err
	}
	for _, a := range artifacts {
		if err := w.writeFile(a.Name, a.Data); err != nil {
			return err
		}
	}

	if !result.Failed() {
		// A previous run may have failed on this URL.
		stale := filepath.Join(w.baseDir, BaseName(result.URL)+"_error.json")
		if err := os.Remove(stale); err != nil && !os.IsNotExist(err) {
			return mcscrape.WrapError(mcscrape.EINTERNAL, err, "removing stale error file: %v", err)
		}
	}
	return nil
}

// Artifact is one named output file of a result.
type Artifact struct {
	Name        string
	ContentType string
	Data        []byte
}

// Artifacts builds the files written for a result. A failed result yields
// only <base>_error.json. The tree XML is included when enc is non-nil.
func Artifacts(result *mcscrape.ScrapeResult, enc mcscrape.TreeEncoder) ([]Artifact, error) {
	base := BaseName(result.URL)

	if result.Failed() {
		a, err := jsonArtifact(base+"_error.json", struct {
			URL   string              `json:"url"`
			Error *mcscrape.ErrorInfo `json:"error"`
		}{result.URL, result.Error})
		if err != nil {
			return nil, err
		}
		return []Artifact{a}, nil
	}

	md, err := FormatMarkdown(result)
	if err != nil {
		return nil, err
	}
	artifacts := []Artifact{{Name: base + ".md", ContentType: "text/markdown; charset=utf-8", Data: []byte(md)}}

	for _, f := range []struct {
		suffix string
		v      any
	}{
		{"_links.json", result.Links},
		{"_tree.json", result.NodeTree},
		{"_metadata.json", result.Metadata},
	} {
		a, err := jsonArtifact(base+f.suffix, f.v)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, a)
	}

	if enc != nil && result.NodeTree != nil {
		data, err := enc.EncodeTree(result.NodeTree)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, Artifact{Name: base + "_tree.xml", ContentType: "application/xml", Data: data})
	}
	return artifacts, nil
}

func jsonArtifact(name string, v any) (Artifact, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return Artifact{}, mcscrape.WrapError(mcscrape.EINTERNAL, err, "encoding %s: %v", name, err)
	}
	return Artifact{Name: name, ContentType: "application/json", Data: append(data, '\n')}, nil
}

// writeFile writes data to a temporary file and renames it into place so
// readers never see a partial artifact.
func (w *Writer) writeFile(name string, data []byte) error {
	path := filepath.Join(w.baseDir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return mcscrape.WrapError(mcscrape.EINTERNAL, err, "writing %s: %v", name, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return mcscrape.WrapError(mcscrape.EINTERNAL, err, "writing %s: %v", name, err)
	}
	return nil
}
