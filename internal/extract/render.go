// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package extract

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/PuerkitoBio/goquery"

	"github.com/tomtom215/lineup/internal/models"
)

// Page is one rendered source document. It must be closed when the caller
// is done with it.
type Page struct {
	Source string
	Doc    *goquery.Document
	Raw    []byte

	closeOnce sync.Once
	release   func()
}

// NewPage wraps a parsed document. release runs once on Close and may be nil.
func NewPage(source string, doc *goquery.Document, raw []byte, release func()) *Page {
	return &Page{Source: source, Doc: doc, Raw: raw, release: release}
}

// Close releases rendering resources. It is safe to call more than once.
func (p *Page) Close() error {
	if p == nil {
		return nil
	}
	p.closeOnce.Do(func() {
		if p.release != nil {
			p.release()
		}
		p.Doc = nil
		p.Raw = nil
	})
	return nil
}

// Renderer loads a source into a queryable DOM.
type Renderer interface {
	Render(ctx context.Context, source string) (*Page, error)
}

// HTTPRenderer renders HTML documents retrieved by a Fetcher. Documents are
// parsed as delivered; scripts are not executed.
type HTTPRenderer struct {
	fetcher *Fetcher
}

// NewHTTPRenderer creates a renderer over fetcher.
func NewHTTPRenderer(fetcher *Fetcher) *HTTPRenderer {
	return &HTTPRenderer{fetcher: fetcher}
}

// Render fetches and parses source. Non-HTML documents are rejected with an
// Extraction error so the caller can escalate to whole-document generation.
func (r *HTTPRenderer) Render(ctx context.Context, source string) (*Page, error) {
	fetched, err := r.fetcher.Fetch(ctx, source)
	if err != nil {
		return nil, err
	}
	if !fetched.IsHTML() {
		return nil, models.NewOpError(models.KindExtraction, "render", source,
			fmt.Errorf("unsupported document type %q", fetched.ContentType))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(fetched.Body))
	if err != nil {
		return nil, models.NewOpError(models.KindExtraction, "render", source, fmt.Errorf("parse HTML: %w", err))
	}
	doc.Url = fetched.URL

	return NewPage(source, doc, fetched.Body, nil), nil
}
