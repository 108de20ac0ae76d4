// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package extract

import (
	"bytes"
	"net/url"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const lineupHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <title>Pitchfork Music Festival 2024</title>
  <meta name="description" content="Three days in Union Park">
  <link rel="stylesheet" href="/site.css">
  <script>window.tracking = true;</script>
  <style>.act { color: red; }</style>
</head>
<body>
  <nav class="menu"><a href="/tickets">Tickets</a></nav>
  <!-- build 2024.07 -->
  <main>
    <h1 class="festival-title" style="font-size:3em" onclick="boom()">  Pitchfork Music
      Festival  </h1>
    <p class="where">Union Park, Chicago</p>
    <p class="dates"><time class="start" datetime="2024-07-19">Jul 19</time> – <time class="end" datetime="2024-07-21">Jul 21</time></p>
    <img class="hero" src="/hero.jpg" alt="crowd">
    <a class="poster" href="/img/poster.jpg">Poster</a>
    <section class="day" data-date="2024-07-19">
      <h2>Friday</h2>
      <ul>
        <li class="act"><span class="name">Jamila  Woods</span><span class="time">8:30pm</span><span class="stage">Green</span></li>
        <li class="act"><span class="name">Black Pumas</span><span class="time">6:15pm</span><span class="stage">Red</span></li>
        <li class="act"><span class="name"> </span><span class="time">TBA</span></li>
      </ul>
    </section>
    <section class="day" data-date="2024-07-20">
      <h2>Saturday</h2>
      <ul>
        <li class="act"><span class="name">Jai Paul</span><span class="time">TBA</span><span class="stage">Green</span></li>
        <li class="act"><span class="name">Jamila Woods</span><span class="time">8:30pm</span><span class="stage">Green</span></li>
        <li class="act"><span class="name">Jamila Woods</span><span class="time">8:30pm</span><span class="stage">green</span></li>
      </ul>
    </section>
    <form action="/newsletter"><input name="email"><button>Join</button></form>
  </main>
  <footer>© 2024</footer>
</body>
</html>`

func lineupPlan() *Plan {
	return &Plan{
		Year: 2024,
		Festival: FestivalRules{
			Name:      &Rule{Selector: "h1.festival-title", Transforms: []Transform{{Op: OpCollapseSpace}}},
			Location:  &Rule{Selector: "p.where"},
			StartDate: &Rule{Selector: "time.start", Attr: "datetime", Transforms: []Transform{{Op: OpDate, Arg: "2006-01-02"}}},
			EndDate:   &Rule{Selector: "time.end", Attr: "datetime", Transforms: []Transform{{Op: OpDate, Arg: "2006-01-02"}}},
			ImageURL:  &Rule{Selector: "a.poster", Attr: "href", Transforms: []Transform{{Op: OpURL}}},
		},
		Lineup: LineupRules{
			Item:       "section.day li.act",
			ArtistName: Rule{Selector: ".name", Transforms: []Transform{{Op: OpCollapseSpace}}},
			Date:       &Rule{Closest: "section.day", Attr: "data-date", Transforms: []Transform{{Op: OpDate, Arg: "2006-01-02"}}},
			Time:       &Rule{Selector: ".time", Transforms: []Transform{{Op: OpTime, Arg: "15:04|3:04pm|3pm"}}},
			Stage:      &Rule{Selector: ".stage"},
		},
	}
}

func testPage(t *testing.T, source, raw string) *Page {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader([]byte(raw)))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	u, _ := url.Parse(source)
	doc.Url = u
	return NewPage(source, doc, []byte(raw), nil)
}
