// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lineup/internal/crawl"
	"github.com/tomtom215/lineup/internal/extract"
	"github.com/tomtom215/lineup/internal/models"
	"github.com/tomtom215/lineup/internal/recommend"
)

const planSystem = `You write extraction plans for festival lineup web pages.
Reply with a single JSON object and nothing else. The object has the shape:
{"year": <int, optional>,
 "festival": {"name": Rule, "description": Rule, "location": Rule, "start_date": Rule, "end_date": Rule, "website": Rule, "image_url": Rule},
 "lineup": {"item": "<CSS selector matching one element per act>", "artist_name": Rule, "date": Rule, "time": Rule, "stage": Rule}}
A Rule is {"const": "...", "closest": "<ancestor selector>", "selector": "<CSS selector>", "attr": "<attribute>", "transforms": [{"op": "...", "arg": "...", "index": 0}]}.
Allowed ops: trim, collapse_space, lower, upper, title, date, time, regex, split, prefix, default, url.
date and time take Go reference layouts separated by "|" and emit YYYY-MM-DD and HH:MM.
Omit rules for fields the page does not contain. Never invent values.`

const festivalSystem = `You extract festival schedules from documents.
Reply with a single JSON object and nothing else:
{"name": "", "description": "", "location": "", "start_date": "YYYY-MM-DD", "end_date": "YYYY-MM-DD", "website": "", "image_url": "",
 "lineup": [{"artist_name": "", "date": "YYYY-MM-DD", "time": "HH:MM", "stage": ""}]}
Use a 24h clock for times. Leave a field empty when the documents do not state it.`

const recommendSystem = `You recommend festival acts to an attendee.
Score every artist you recommend between 0 and 1 and give short reasons.
Reply with a JSON array and nothing else:
[{"artist_name": "", "artist_id": "", "score": 0.0, "reasons": [""]}]
Only use artists from the supplied lineup and copy artist_id exactly when present. Order by score, highest first.`

// GenerateExtractionPlan asks the model for a plan that extracts the festival
// from strippedHTML. The plan is validated before it is returned.
func (c *Client) GenerateExtractionPlan(ctx context.Context, strippedHTML, sourceID string) (*extract.Plan, error) {
	user := fmt.Sprintf("Source: %s\n\n%s", sourceID, strippedHTML)
	reply, err := c.complete(ctx, "plan", sourceID, planSystem, user)
	if err != nil {
		return nil, err
	}

	var plan extract.Plan
	if err := decodeJSON(reply, &plan); err != nil {
		return nil, models.NewOpError(models.KindExtraction, "plan", sourceID, err)
	}
	if err := plan.Validate(); err != nil {
		return nil, models.NewOpError(models.KindExtraction, "plan", sourceID, err)
	}
	return &plan, nil
}

// GenerateFestival asks the model to read a whole festival out of docs.
// Stages are derived from the lineup; IDs are left to the caller.
func (c *Client) GenerateFestival(ctx context.Context, docs []crawl.Document) (*models.Festival, error) {
	var sb strings.Builder
	sources := make([]string, 0, len(docs))
	for i := range docs {
		fmt.Fprintf(&sb, "--- Document %d (%s) ---\n", i+1, docs[i].Source)
		if docs[i].Title != "" {
			fmt.Fprintf(&sb, "Title: %s\n", docs[i].Title)
		}
		sb.WriteString(docs[i].Text)
		sb.WriteString("\n\n")
		sources = append(sources, docs[i].Source)
	}
	source := strings.Join(sources, ",")

	reply, err := c.complete(ctx, "generate_festival", source, festivalSystem, sb.String())
	if err != nil {
		return nil, err
	}

	var f models.Festival
	if err := decodeJSON(reply, &f); err != nil {
		return nil, models.NewOpError(models.KindExtraction, "generate_festival", source, err)
	}
	f.ID = ""
	for i := range f.Lineup {
		f.Lineup[i].ID = ""
		f.Lineup[i].ArtistID = ""
		f.AddStage(f.Lineup[i].Stage)
	}
	return &f, nil
}

type recommendInput struct {
	Preferences models.Preferences       `json:"preferences"`
	Lineup      []recommend.LineupArtist `json:"lineup"`
}

// GenerateRecommendations scores artists against prefs. Scores are clamped
// to [0,1]. Entries with neither a name nor an artist ID are dropped; an
// ID alone is enough for the postprocessor to find the act.
func (c *Client) GenerateRecommendations(ctx context.Context, prefs models.Preferences, artists []recommend.LineupArtist) ([]recommend.ScoredArtist, error) {
	input, err := json.Marshal(recommendInput{Preferences: prefs, Lineup: artists})
	if err != nil {
		return nil, models.NewOpError(models.KindExtraction, "recommend", "", fmt.Errorf("encode input: %w", err))
	}

	reply, err := c.complete(ctx, "recommend", "", recommendSystem, string(input))
	if err != nil {
		return nil, err
	}

	var scored []recommend.ScoredArtist
	if err := decodeJSON(reply, &scored); err != nil {
		return nil, models.NewOpError(models.KindExtraction, "recommend", "", err)
	}

	out := scored[:0]
	for _, s := range scored {
		if strings.TrimSpace(s.ArtistName) == "" && s.ArtistID == "" {
			continue
		}
		s.Score = min(max(s.Score, 0), 1)
		out = append(out, s)
	}
	return out, nil
}
