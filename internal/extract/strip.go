// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// noiseSelector lists elements that carry no lineup data.
const noiseSelector = "script, style, noscript, iframe, svg, canvas, video, audio, picture, img, source, " +
	"object, embed, form, input, button, select, textarea, nav, header, footer, aside, link, meta, template"

// keptAttributes survive stripping. data-* attributes are kept too.
var keptAttributes = map[string]struct{}{
	"id":       {},
	"class":    {},
	"href":     {},
	"datetime": {},
	"title":    {},
	"lang":     {},
	"colspan":  {},
	"rowspan":  {},
}

// StripNoise returns the body of raw with noise elements, comments and
// non-semantic attributes removed. The rendered Page is left untouched; the
// plan later runs against the full document.
func StripNoise(raw []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("parse HTML: %w", err)
	}

	doc.Find(noiseSelector).Remove()

	for _, root := range doc.Nodes {
		removeComments(root)
	}

	doc.Find("*").Each(func(_ int, s *goquery.Selection) {
		for _, n := range s.Nodes {
			n.Attr = filterAttrs(n.Attr)
		}
	})

	body := doc.Find("body")
	if body.Length() == 0 {
		out, err := doc.Html()
		if err != nil {
			return "", fmt.Errorf("render HTML: %w", err)
		}
		return collapseBlankLines(out), nil
	}

	out, err := body.Html()
	if err != nil {
		return "", fmt.Errorf("render HTML: %w", err)
	}
	return collapseBlankLines(out), nil
}

func removeComments(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			removeComments(c)
		}
		c = next
	}
}

func filterAttrs(attrs []html.Attribute) []html.Attribute {
	kept := attrs[:0]
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if _, ok := keptAttributes[key]; ok || strings.HasPrefix(key, "data-") {
			kept = append(kept, a)
		}
	}
	return kept
}

// collapseBlankLines drops whitespace-only lines left behind by removals.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, strings.TrimRight(l, " \t"))
	}
	return strings.Join(out, "\n")
}
