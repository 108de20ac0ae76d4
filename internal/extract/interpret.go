// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package extract

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/tomtom215/lineup/internal/models"
)

// ErrNoActs is returned when a plan matches no usable lineup items.
var ErrNoActs = errors.New("plan matched no acts")

// interpreter evaluates one Plan against one document. It is not safe for
// concurrent use; Interpret builds a fresh one per call.
type interpreter struct {
	plan    *Plan
	base    *url.URL
	regexes map[string]*regexp.Regexp
	title   cases.Caser
}

// Interpret evaluates plan against the page and returns the raw festival.
// The result is not validated. Unparseable dates and times evaluate to empty
// strings and are caught by validation when the field is required.
func Interpret(plan *Plan, page *Page) (*models.Festival, error) {
	if err := plan.Validate(); err != nil {
		return nil, err
	}
	if page == nil || page.Doc == nil {
		return nil, errors.New("interpret: page has no document")
	}

	in := &interpreter{
		plan:    plan,
		base:    page.Doc.Url,
		regexes: make(map[string]*regexp.Regexp),
		title:   cases.Title(language.Und),
	}
	root := page.Doc.Selection

	f := &models.Festival{
		Name:        in.eval(plan.Festival.Name, root),
		Description: in.eval(plan.Festival.Description, root),
		Location:    in.eval(plan.Festival.Location, root),
		StartDate:   in.eval(plan.Festival.StartDate, root),
		EndDate:     in.eval(plan.Festival.EndDate, root),
		Website:     in.eval(plan.Festival.Website, root),
		ImageURL:    in.eval(plan.Festival.ImageURL, root),
	}
	if f.Website == "" && in.base != nil && (in.base.Scheme == "http" || in.base.Scheme == "https") {
		f.Website = in.base.String()
	}

	seen := make(map[string]struct{})
	root.Find(plan.Lineup.Item).Each(func(_ int, item *goquery.Selection) {
		act := models.Act{
			ArtistName: in.eval(&plan.Lineup.ArtistName, item),
			Date:       in.eval(plan.Lineup.Date, item),
			Time:       in.eval(plan.Lineup.Time, item),
			Stage:      in.eval(plan.Lineup.Stage, item),
		}
		if act.ArtistName == "" {
			return
		}
		key := strings.ToLower(act.ArtistName) + "\x00" + act.Date + "\x00" + act.Time + "\x00" + strings.ToLower(act.Stage)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		act.FestivalName = f.Name
		f.Lineup = append(f.Lineup, act)
		f.AddStage(act.Stage)
	})

	if len(f.Lineup) == 0 {
		return nil, fmt.Errorf("%w (item selector %q)", ErrNoActs, plan.Lineup.Item)
	}

	fillDates(f)
	return f, nil
}

// fillDates derives missing festival dates from act dates, and dates
// single-day lineups.
func fillDates(f *models.Festival) {
	var first, last string
	for i := range f.Lineup {
		d := f.Lineup[i].Date
		if d == "" {
			continue
		}
		if first == "" || d < first {
			first = d
		}
		if last == "" || d > last {
			last = d
		}
	}
	if f.StartDate == "" {
		f.StartDate = first
	}
	if f.EndDate == "" {
		f.EndDate = last
	}
	if f.EndDate == "" {
		f.EndDate = f.StartDate
	}
	if f.StartDate != "" && f.StartDate == f.EndDate {
		for i := range f.Lineup {
			if f.Lineup[i].Date == "" {
				f.Lineup[i].Date = f.StartDate
			}
		}
	}
}

func (in *interpreter) eval(r *Rule, scope *goquery.Selection) string {
	if r == nil {
		return ""
	}

	var v string
	if r.Const != "" {
		v = r.Const
	} else {
		v = in.extract(r, scope)
	}

	for _, t := range r.Transforms {
		v = in.apply(t, v)
	}
	return strings.TrimSpace(v)
}

func (in *interpreter) extract(r *Rule, scope *goquery.Selection) string {
	s := scope
	if r.Closest != "" {
		s = s.Closest(r.Closest)
	}
	if r.Selector != "" {
		s = s.Find(r.Selector)
	}
	s = s.First()
	if s.Length() == 0 {
		return ""
	}
	if r.Attr != "" {
		v, _ := s.Attr(r.Attr)
		return v
	}
	return s.Text()
}

func (in *interpreter) apply(t Transform, v string) string {
	switch t.Op {
	case OpTrim:
		return strings.TrimSpace(v)
	case OpCollapseSpace:
		return strings.Join(strings.Fields(v), " ")
	case OpLower:
		return strings.ToLower(v)
	case OpUpper:
		return strings.ToUpper(v)
	case OpTitle:
		return in.title.String(v)
	case OpDate:
		return in.parseDate(t.Arg, v)
	case OpTime:
		return parseClock(t.Arg, v)
	case OpRegex:
		return in.regex(t.Arg, v)
	case OpSplit:
		return splitIndex(v, t.Arg, t.Index)
	case OpPrefix:
		if v == "" {
			return v
		}
		return t.Arg + v
	case OpDefault:
		if strings.TrimSpace(v) == "" {
			return t.Arg
		}
		return v
	case OpURL:
		return in.resolve(v)
	default:
		return v
	}
}

func (in *interpreter) parseDate(layouts, v string) string {
	v = strings.Join(strings.Fields(v), " ")
	if v == "" {
		return ""
	}
	for _, layout := range strings.Split(layouts, "|") {
		d, err := time.Parse(strings.TrimSpace(layout), v)
		if err != nil {
			continue
		}
		if d.Year() == 0 {
			if in.plan.Year == 0 {
				return ""
			}
			d = time.Date(in.plan.Year, d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
		}
		return d.Format(models.DateLayout)
	}
	return ""
}

func parseClock(layouts, v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	for _, layout := range strings.Split(layouts, "|") {
		t, err := time.Parse(strings.TrimSpace(layout), v)
		if err == nil {
			return t.Format(models.TimeLayout)
		}
	}
	return ""
}

func (in *interpreter) regex(pattern, v string) string {
	re, ok := in.regexes[pattern]
	if !ok {
		// Validate already compiled the pattern once.
		re = regexp.MustCompile(pattern)
		in.regexes[pattern] = re
	}
	m := re.FindStringSubmatch(v)
	switch {
	case m == nil:
		return ""
	case len(m) > 1:
		return m[1]
	default:
		return m[0]
	}
}

func splitIndex(v, sep string, idx int) string {
	parts := strings.Split(v, sep)
	if idx < 0 {
		idx += len(parts)
	}
	if idx < 0 || idx >= len(parts) {
		return ""
	}
	return parts[idx]
}

func (in *interpreter) resolve(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || in.base == nil {
		return v
	}
	ref, err := url.Parse(v)
	if err != nil {
		return ""
	}
	return in.base.ResolveReference(ref).String()
}
