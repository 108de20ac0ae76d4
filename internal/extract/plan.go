// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package extract

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Transform operations a Rule may apply, in order, to an extracted value.
const (
	OpTrim          = "trim"           // strip surrounding whitespace
	OpCollapseSpace = "collapse_space" // fold whitespace runs into one space
	OpLower         = "lower"
	OpUpper         = "upper"
	OpTitle         = "title"   // title case
	OpDate          = "date"    // parse with Arg layouts ("|" separated), emit YYYY-MM-DD
	OpTime          = "time"    // parse with Arg layouts, emit HH:MM
	OpRegex         = "regex"   // first capture group of Arg, or the whole match
	OpSplit         = "split"   // split on Arg and keep element Index (negative counts from the end)
	OpPrefix        = "prefix"  // prepend Arg to a non-empty value
	OpDefault       = "default" // use Arg when the value is empty
	OpURL           = "url"     // resolve a relative reference against the page URL
)

var knownOps = map[string]struct{}{
	OpTrim: {}, OpCollapseSpace: {}, OpLower: {}, OpUpper: {}, OpTitle: {},
	OpDate: {}, OpTime: {}, OpRegex: {}, OpSplit: {}, OpPrefix: {}, OpDefault: {}, OpURL: {},
}

// Transform is one step of a Rule's value pipeline.
type Transform struct {
	Op    string `json:"op"`
	Arg   string `json:"arg,omitempty"`
	Index int    `json:"index,omitempty"`
}

// Rule locates one value in the document.
//
// Evaluation starts at a scope: the document for festival fields, the item
// for lineup fields. When Closest is set the scope moves to the nearest
// ancestor matching it. Selector then picks the first match inside the scope
// (an empty Selector means the scope itself). The value is the attribute Attr,
// or the element text when Attr is empty. Const short-circuits everything and
// supplies a literal value.
type Rule struct {
	Const      string      `json:"const,omitempty"`
	Closest    string      `json:"closest,omitempty"`
	Selector   string      `json:"selector,omitempty"`
	Attr       string      `json:"attr,omitempty"`
	Transforms []Transform `json:"transforms,omitempty"`
}

// FestivalRules map festival fields to rules. Nil rules leave a field empty.
type FestivalRules struct {
	Name        *Rule `json:"name,omitempty"`
	Description *Rule `json:"description,omitempty"`
	Location    *Rule `json:"location,omitempty"`
	StartDate   *Rule `json:"start_date,omitempty"`
	EndDate     *Rule `json:"end_date,omitempty"`
	Website     *Rule `json:"website,omitempty"`
	ImageURL    *Rule `json:"image_url,omitempty"`
}

// LineupRules describe the repeating act block.
type LineupRules struct {
	// Item selects one element per act.
	Item       string `json:"item"`
	ArtistName Rule   `json:"artist_name"`
	Date       *Rule  `json:"date,omitempty"`
	Time       *Rule  `json:"time,omitempty"`
	Stage      *Rule  `json:"stage,omitempty"`
}

// Plan is a declarative extraction plan for one document layout. It is
// produced by the AI capability and evaluated by Interpret; it never
// contains executable code.
type Plan struct {
	// Year fills dates whose layout has no year component.
	Year     int           `json:"year,omitempty"`
	Festival FestivalRules `json:"festival"`
	Lineup   LineupRules   `json:"lineup"`
}

// ErrInvalidPlan is wrapped by every plan validation failure.
var ErrInvalidPlan = errors.New("invalid extraction plan")

// Validate checks the plan is complete enough to evaluate and that every
// transform is known and well-formed.
func (p *Plan) Validate() error {
	if p == nil {
		return fmt.Errorf("%w: nil plan", ErrInvalidPlan)
	}
	if strings.TrimSpace(p.Lineup.Item) == "" {
		return fmt.Errorf("%w: lineup.item selector is required", ErrInvalidPlan)
	}
	if p.Lineup.ArtistName.Const != "" {
		return fmt.Errorf("%w: lineup.artist_name cannot be constant", ErrInvalidPlan)
	}
	if p.Year < 0 || p.Year > 9999 {
		return fmt.Errorf("%w: year %d out of range", ErrInvalidPlan, p.Year)
	}

	for name, r := range p.rules() {
		if r == nil {
			continue
		}
		if err := r.validate(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidPlan, name, err)
		}
	}
	return nil
}

func (p *Plan) rules() map[string]*Rule {
	return map[string]*Rule{
		"festival.name":        p.Festival.Name,
		"festival.description": p.Festival.Description,
		"festival.location":    p.Festival.Location,
		"festival.start_date":  p.Festival.StartDate,
		"festival.end_date":    p.Festival.EndDate,
		"festival.website":     p.Festival.Website,
		"festival.image_url":   p.Festival.ImageURL,
		"lineup.artist_name":   &p.Lineup.ArtistName,
		"lineup.date":          p.Lineup.Date,
		"lineup.time":          p.Lineup.Time,
		"lineup.stage":         p.Lineup.Stage,
	}
}

func (r *Rule) validate() error {
	for i, t := range r.Transforms {
		if _, ok := knownOps[t.Op]; !ok {
			return fmt.Errorf("transform %d: unknown op %q", i, t.Op)
		}
		switch t.Op {
		case OpRegex:
			if _, err := regexp.Compile(t.Arg); err != nil {
				return fmt.Errorf("transform %d: %v", i, err)
			}
		case OpSplit:
			if t.Arg == "" {
				return fmt.Errorf("transform %d: split needs a separator", i)
			}
		case OpDate, OpTime:
			if strings.TrimSpace(t.Arg) == "" {
				return fmt.Errorf("transform %d: %s needs a layout", i, t.Op)
			}
		}
	}
	return nil
}
