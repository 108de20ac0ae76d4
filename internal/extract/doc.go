// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

/*
Package extract implements the structured document parser: the fast path
that turns a single festival web page into a validated models.Festival.

# Pipeline

	FETCH_CACHE -> RENDER -> STRIP_NOISE -> REQUEST_EXTRACTION_PLAN -> EXECUTE_PLAN -> VALIDATE -> CACHE

  - Fetcher retrieves documents over HTTP(S) or from disk, retrying transient
    failures a bounded number of times with a fixed delay
  - HTTPRenderer parses HTML into a goquery document held by a Page
  - StripNoise removes scripts, media, forms, navigation, comments and
    non-semantic attributes before the document is shown to the planner
  - Planner (the AI capability) returns a Plan
  - Interpret evaluates the Plan against the full rendered document
  - validation.Festival checks the result against the canonical schema

# Extraction Plans

A Plan is data, not code. Each field maps to a Rule: an optional Closest
ancestor, a CSS Selector, an optional Attr, and a list of Transforms drawn
from a fixed vocabulary (trim, collapse_space, lower, upper, title, date,
time, regex, split, prefix, default, url). Example:

	{
	  "year": 2024,
	  "festival": {
	    "name":       {"selector": "h1.festival-title"},
	    "location":   {"const": "Chicago, IL"},
	    "start_date": {"selector": "time.start", "attr": "datetime", "transforms": [{"op": "date", "arg": "2006-01-02"}]}
	  },
	  "lineup": {
	    "item":        "section.day li.act",
	    "artist_name": {"selector": ".name", "transforms": [{"op": "collapse_space"}]},
	    "date":        {"closest": "section.day", "attr": "data-date", "transforms": [{"op": "date", "arg": "2006-01-02"}]},
	    "time":        {"selector": ".time", "transforms": [{"op": "time", "arg": "15:04|3:04pm|3pm"}]}
	  }
	}

# Errors

Parse returns *models.OpError values: TransientFetch when retries are
exhausted, Validation when the schema check fails, Extraction for every other
render, plan or execution failure, and Configuration when no planner exists.
*/
package extract
