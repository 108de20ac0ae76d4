// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package crawl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/lineup/internal/extract"
	"github.com/tomtom215/lineup/internal/models"
)

// Document kinds.
const (
	KindHTML = "html"
	KindPDF  = "pdf"
	KindText = "text"
)

// Defaults for Loader.
const (
	DefaultMaxConcurrent = 4
	DefaultMaxDocChars   = 60_000
)

// Document is one source reduced to text for whole-document generation.
type Document struct {
	Source string `json:"source"`
	Kind   string `json:"kind"`
	Title  string `json:"title,omitempty"`
	Text   string `json:"text"`
}

// Loader fetches sources concurrently and reduces each one to text.
type Loader struct {
	fetcher       *extract.Fetcher
	logger        zerolog.Logger
	maxConcurrent int
	maxDocChars   int
}

// NewLoader creates a Loader. Non-positive limits fall back to the defaults.
func NewLoader(fetcher *extract.Fetcher, logger zerolog.Logger, maxConcurrent, maxDocChars int) *Loader {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxDocChars <= 0 {
		maxDocChars = DefaultMaxDocChars
	}
	return &Loader{
		fetcher:       fetcher,
		logger:        logger.With().Str("component", "document_loader").Logger(),
		maxConcurrent: maxConcurrent,
		maxDocChars:   maxDocChars,
	}
}

// Load returns one Document per loadable source, in source order. Sources
// that fail to load are logged and skipped. When none loads the first
// failure is returned.
func (l *Loader) Load(ctx context.Context, sources []string) ([]Document, error) {
	docs := make([]*Document, len(sources))
	errs := make([]error, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.maxConcurrent)

	for i, source := range sources {
		g.Go(func() error {
			doc, err := l.loadOne(gctx, source)
			if err != nil {
				l.logger.Warn().Err(err).Str("source", source).Msg("Skipping unloadable document")
				errs[i] = err
				return nil
			}
			docs[i] = doc
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if d != nil {
			out = append(out, *d)
		}
	}
	if len(out) == 0 {
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
		return nil, models.NewOpError(models.KindExtraction, "load", strings.Join(sources, ","), errors.New("no documents"))
	}
	return out, nil
}

func (l *Loader) loadOne(ctx context.Context, source string) (*Document, error) {
	fetched, err := l.fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}

	var doc *Document
	switch {
	case fetched.IsPDF():
		text, err := pdfText(fetched.Body)
		if err != nil {
			return nil, models.NewOpError(models.KindExtraction, "load", source, fmt.Errorf("read pdf: %w", err))
		}
		doc = &Document{Source: source, Kind: KindPDF, Text: text}
	case fetched.IsHTML():
		doc = htmlDocument(fetched)
	default:
		doc = &Document{Source: source, Kind: KindText, Text: string(fetched.Body)}
	}

	doc.Text = l.clip(normalizeWhitespace(doc.Text))
	if doc.Text == "" {
		return nil, models.NewOpError(models.KindExtraction, "load", source, errors.New("document has no text"))
	}
	return doc, nil
}

// htmlDocument keeps the readable article text. Lineup pages are often
// grids that readability scores poorly, so a short article falls back to the
// whole body text.
func htmlDocument(fetched *extract.Fetched) *Document {
	doc := &Document{Source: fetched.Source, Kind: KindHTML}

	article, err := readability.FromReader(bytes.NewReader(fetched.Body), fetched.URL)
	if err == nil {
		doc.Title = strings.TrimSpace(article.Title)
		doc.Text = article.TextContent
	}

	if len(strings.TrimSpace(doc.Text)) < minArticleChars {
		if q, err := goquery.NewDocumentFromReader(bytes.NewReader(fetched.Body)); err == nil {
			q.Find("script, style, noscript, template").Remove()
			doc.Text = q.Find("body").Text()
			if doc.Title == "" {
				doc.Title = strings.TrimSpace(q.Find("title").First().Text())
			}
		}
	}
	return doc
}

const minArticleChars = 200

// pdfText extracts plain text from a PDF held in memory.
func pdfText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty pdf")
	}

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	text, err := r.GetPlainText()
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, text); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func normalizeWhitespace(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}

func (l *Loader) clip(s string) string {
	if len(s) <= l.maxDocChars {
		return s
	}
	n := l.maxDocChars
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
