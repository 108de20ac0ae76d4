// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

// Package main is the lineup command.
//
// # Commands
//
//	lineup crawl     <source>...                      crawl a festival and hold it for review
//	lineup save      [-file festival.json] [<source>...]  save a reviewed festival
//	lineup resolve   [-hint catalog-id] <artist name>  resolve one artist identity
//	lineup recommend -festival <id> [-prefs prefs.json] [-genres a,b] [-date YYYY-MM-DD] [-limit n]
//	lineup recrawl   -festival <id> [-force] <source>...
//	lineup worker                                      run the enrichment worker and /metrics
//
// Every command accepts -config <path>. Results are written to stdout as
// JSON; logs go to stderr.
//
// # Configuration
//
// Configuration is loaded with koanf from defaults, an optional YAML file
// and environment variables (see internal/config). AI and catalog access
// are opt-in:
//
//	export AI_ENABLED=true ANTHROPIC_API_KEY=...
//	export CATALOG_ENABLED=true SPOTIFY_CLIENT_ID=... SPOTIFY_CLIENT_SECRET=...
//
// A held crawl only survives between invocations with a shared cache
// backend (CACHE_BACKEND=nats); with the memory backend use
// "crawl > f.json" and "save -file f.json".
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the running command. The worker stops its
// supervisor tree and waits for in-flight enrichment jobs up to the
// configured close timeout.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/goccy/go-json"

	"github.com/tomtom215/lineup/internal/config"
	"github.com/tomtom215/lineup/internal/logging"
	"github.com/tomtom215/lineup/internal/models"
)

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

var errUsage = errors.New("usage")

const usage = `usage: lineup <command> [flags] [args]

commands:
  crawl      crawl sources into a festival held for review
  save       save a reviewed festival (from -file or the held crawl)
  resolve    resolve an artist name to a stored artist
  recommend  recommend acts of a stored festival
  recrawl    re-crawl a stored festival
  worker     run the enrichment worker

run "lineup <command> -h" for command flags
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// command is one subcommand. It registers flags on fs and runs with the
// parsed flag set.
type command struct {
	flags func(fs *flag.FlagSet) func(ctx context.Context, a *app, args []string, out io.Writer) error
	// worker commands own their lifecycle and receive no app.
	worker bool
}

var commands = map[string]command{
	"crawl":     {flags: crawlCmd},
	"save":      {flags: saveCmd},
	"resolve":   {flags: resolveCmd},
	"recommend": {flags: recommendCmd},
	"recrawl":   {flags: recrawlCmd},
	"worker":    {worker: true},
}

// run executes args and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		fmt.Fprint(stderr, usage)
		if len(args) == 0 {
			return exitUsage
		}
		return exitOK
	}

	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "lineup: unknown command %q\n\n%s", name, usage)
		return exitUsage
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML config file")
	var exec func(ctx context.Context, a *app, args []string, out io.Writer) error
	if !cmd.worker {
		exec = cmd.flags(fs)
	}
	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "lineup: %v\n", err)
		return exitError
	}
	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
		Output:    stderr,
	})
	logger := logging.WithComponent("cli").With().Str("command", name).Logger()
	ctx = logging.EnsureCorrelationID(ctx)

	if cmd.worker {
		if err := runWorker(ctx, cfg, logger); err != nil {
			logger.Error().Err(err).Msg("Worker failed")
			return exitError
		}
		return exitOK
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize")
		return exitError
	}
	defer a.Close()

	if err := exec(ctx, a, fs.Args(), stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprintf(stderr, "lineup %s: %v\n", name, err)
			fs.Usage()
			return exitUsage
		}
		logger.Error().Err(err).Str("kind", string(models.KindOf(err))).Msg("Command failed")
		return exitError
	}
	return exitOK
}

func crawlCmd(fs *flag.FlagSet) func(context.Context, *app, []string, io.Writer) error {
	return func(ctx context.Context, a *app, args []string, out io.Writer) error {
		if len(args) == 0 {
			return fmt.Errorf("%w: at least one source is required", errUsage)
		}
		f, err := a.service.CrawlFestival(ctx, args)
		if err != nil {
			return err
		}
		return writeJSON(out, f)
	}
}

func saveCmd(fs *flag.FlagSet) func(context.Context, *app, []string, io.Writer) error {
	file := fs.String("file", "", "festival JSON to save (\"-\" for stdin)")
	return func(ctx context.Context, a *app, args []string, out io.Writer) error {
		var (
			f   *models.Festival
			err error
		)
		switch {
		case *file != "":
			var in models.Festival
			if err := readJSON(*file, &in); err != nil {
				return err
			}
			f, err = a.service.SaveFestival(ctx, &in)
		case len(args) > 0:
			f, err = a.service.SaveCrawled(ctx, args)
		default:
			return fmt.Errorf("%w: -file or the crawled sources are required", errUsage)
		}
		if err != nil {
			return err
		}
		return writeJSON(out, f)
	}
}

func resolveCmd(fs *flag.FlagSet) func(context.Context, *app, []string, io.Writer) error {
	hint := fs.String("hint", "", "catalog ID of the artist")
	return func(ctx context.Context, a *app, args []string, out io.Writer) error {
		name := strings.Join(args, " ")
		if strings.TrimSpace(name) == "" && *hint == "" {
			return fmt.Errorf("%w: an artist name or -hint is required", errUsage)
		}
		artist, err := a.service.ResolveArtistIdentity(ctx, name, *hint)
		if err != nil {
			return err
		}
		return writeJSON(out, artist)
	}
}

func recommendCmd(fs *flag.FlagSet) func(context.Context, *app, []string, io.Writer) error {
	festivalID := fs.String("festival", "", "stored festival ID")
	prefsFile := fs.String("prefs", "", "preferences JSON file")
	genres := fs.String("genres", "", "comma separated genres")
	favorites := fs.String("favorites", "", "comma separated favorite artists")
	date := fs.String("date", "", "only acts on this day (YYYY-MM-DD)")
	limit := fs.Int("limit", 0, "maximum recommendations")
	return func(ctx context.Context, a *app, args []string, out io.Writer) error {
		if *festivalID == "" {
			return fmt.Errorf("%w: -festival is required", errUsage)
		}
		var prefs models.Preferences
		if *prefsFile != "" {
			if err := readJSON(*prefsFile, &prefs); err != nil {
				return err
			}
		}
		if *genres != "" {
			prefs.Genres = splitList(*genres)
		}
		if *favorites != "" {
			prefs.FavoriteArtists = splitList(*favorites)
		}
		if *date != "" {
			prefs.Date = *date
		}
		if *limit > 0 {
			prefs.Limit = *limit
		}
		if len(args) > 0 {
			prefs.Notes = strings.Join(args, " ")
		}

		recs, err := a.service.GenerateRecommendations(ctx, *festivalID, prefs)
		if err != nil {
			return err
		}
		if recs == nil {
			recs = []models.Recommendation{}
		}
		return writeJSON(out, recs)
	}
}

func recrawlCmd(fs *flag.FlagSet) func(context.Context, *app, []string, io.Writer) error {
	festivalID := fs.String("festival", "", "stored festival ID")
	force := fs.Bool("force", false, "drop cached parses and queue enrichment for new artists")
	return func(ctx context.Context, a *app, args []string, out io.Writer) error {
		if *festivalID == "" || len(args) == 0 {
			return fmt.Errorf("%w: -festival and at least one source are required", errUsage)
		}
		var f *models.Festival
		err := a.withQueue(ctx, func(ctx context.Context) error {
			var err error
			f, err = a.service.RecrawlFestival(ctx, *festivalID, args, *force)
			return err
		})
		if err != nil {
			return err
		}
		return writeJSON(out, f)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func readJSON(path string, v any) error {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return models.NewOpError(models.KindValidation, "read_input", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
