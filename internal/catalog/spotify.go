// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/lineup/internal/breaker"
	"github.com/tomtom215/lineup/internal/logging"
	"github.com/tomtom215/lineup/internal/metrics"
	"github.com/tomtom215/lineup/internal/models"
)

// Spotify defaults.
const (
	DefaultAccountsURL       = "https://accounts.spotify.com"
	DefaultAPIURL            = "https://api.spotify.com"
	DefaultRequestsPerSecond = 5.0
	DefaultBurst             = 5
	DefaultSearchLimit       = 10
	DefaultMaxRetries        = 3

	// tokens are refreshed this long before Spotify says they expire
	tokenSkew = time.Minute
)

// SpotifyConfig configures the Spotify Web API client.
type SpotifyConfig struct {
	ClientID          string
	ClientSecret      string
	AccountsURL       string
	APIURL            string
	RequestsPerSecond float64
	Burst             int
	SearchLimit       int
	MaxRetries        int
	Timeout           time.Duration
}

// Spotify is a Client for the Spotify Web API using the client-credentials
// flow. Calls are rate limited, retried on 429 and guarded by a breaker.
type Spotify struct {
	cfg        SpotifyConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *breaker.Breaker
	logger     zerolog.Logger
	retryBase  time.Duration

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

var _ Client = (*Spotify)(nil)

var errNotFound = errors.New("not found")

// NewSpotify creates a Spotify client. Missing credentials are a
// Configuration error.
func NewSpotify(cfg SpotifyConfig, httpClient *http.Client, logger zerolog.Logger) (*Spotify, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, models.NewOpError(models.KindConfiguration, "catalog", SourceSpotify, errors.New("client id and secret are required"))
	}
	if cfg.AccountsURL == "" {
		cfg.AccountsURL = DefaultAccountsURL
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	cfg.AccountsURL = strings.TrimRight(cfg.AccountsURL, "/")
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = DefaultBurst
	}
	if cfg.SearchLimit <= 0 || cfg.SearchLimit > 50 {
		cfg.SearchLimit = DefaultSearchLimit
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Spotify{
		cfg:        cfg,
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: breaker.New("catalog-spotify", breaker.Settings{
			IsSuccessful: func(err error) bool {
				return err == nil || models.KindOf(err) != models.KindTransientFetch
			},
		}),
		logger:    logger.With().Str("component", "catalog").Str("source", SourceSpotify).Logger(),
		retryBase: time.Second,
	}, nil
}

// Source implements Client.
func (s *Spotify) Source() string { return SourceSpotify }

type spotifyArtist struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Genres     []string `json:"genres"`
	Popularity int      `json:"popularity"`
	Followers  struct {
		Total int `json:"total"`
	} `json:"followers"`
	Images []struct {
		URL    string `json:"url"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
	} `json:"images"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

func (a *spotifyArtist) candidate() Candidate {
	c := Candidate{
		ID:         a.ID,
		Name:       a.Name,
		Genres:     a.Genres,
		Followers:  a.Followers.Total,
		Popularity: a.Popularity,
		URL:        a.ExternalURLs.Spotify,
	}
	// Spotify lists images widest first.
	if len(a.Images) > 0 {
		c.ImageURL = a.Images[0].URL
	}
	return c
}

type searchResponse struct {
	Artists struct {
		Items []spotifyArtist `json:"items"`
	} `json:"artists"`
}

// SearchArtists implements Client.
func (s *Spotify) SearchArtists(ctx context.Context, name string) ([]Candidate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	q := url.Values{}
	q.Set("q", name)
	q.Set("type", "artist")
	q.Set("limit", strconv.Itoa(s.cfg.SearchLimit))

	var resp searchResponse
	if err := s.get(ctx, "search", "/v1/search", q, &resp); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}

	out := make([]Candidate, 0, len(resp.Artists.Items))
	for i := range resp.Artists.Items {
		if resp.Artists.Items[i].ID == "" {
			continue
		}
		out = append(out, resp.Artists.Items[i].candidate())
	}
	return out, nil
}

// GetArtistByID implements Client.
func (s *Spotify) GetArtistByID(ctx context.Context, id string) (*Candidate, error) {
	if id == "" {
		return nil, nil
	}
	var a spotifyArtist
	if err := s.get(ctx, "get_artist", "/v1/artists/"+url.PathEscape(id), nil, &a); err != nil {
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		return nil, err
	}
	c := a.candidate()
	return &c, nil
}

// get performs one rate-limited, breaker-guarded API call and decodes the
// body into out.
func (s *Spotify) get(ctx context.Context, op, path string, query url.Values, out any) error {
	start := time.Now()
	logger := logging.Annotate(ctx, s.logger).With().Str("op", op).Logger()

	_, err := breaker.Do(s.breaker, func() (struct{}, error) {
		return struct{}{}, s.call(ctx, op, path, query, out)
	})
	metrics.RecordExternalRequest(SourceSpotify, time.Since(start), err)

	if err != nil {
		if errors.Is(err, errNotFound) {
			return err
		}
		if breaker.Rejected(err) {
			err = models.NewOpError(models.KindTransientFetch, op, SourceSpotify, fmt.Errorf("catalog unavailable: %w", err))
		}
		logger.Error().Err(err).Str("path", path).Msg("Catalog request failed")
		return err
	}
	return nil
}

func (s *Spotify) call(ctx context.Context, op, path string, query url.Values, out any) error {
	endpoint := s.cfg.APIURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	reauthed := false
	for {
		token, err := s.accessToken(ctx)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, http.NoBody)
		if err != nil {
			return models.NewOpError(models.KindConfiguration, op, SourceSpotify, fmt.Errorf("create request: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		resp, err := s.doWithRateLimit(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return models.NewOpError(models.KindTransientFetch, op, SourceSpotify, err)
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return models.NewOpError(models.KindTransientFetch, op, SourceSpotify, fmt.Errorf("read response: %w", err))
		}

		switch {
		case resp.StatusCode == http.StatusOK:
			if err := json.Unmarshal(body, out); err != nil {
				return models.NewOpError(models.KindExtraction, op, SourceSpotify, fmt.Errorf("decode response: %w", err))
			}
			return nil
		case resp.StatusCode == http.StatusUnauthorized && !reauthed:
			// Token revoked or expired early; fetch a fresh one once.
			s.invalidateToken()
			reauthed = true
			continue
		case resp.StatusCode == http.StatusNotFound:
			return errNotFound
		default:
			return models.NewOpError(statusKind(resp.StatusCode), op, SourceSpotify, fmt.Errorf("status %d: %s", resp.StatusCode, snippet(body)))
		}
	}
}

// doWithRateLimit waits for the limiter, then sends req, retrying 429s with
// exponential backoff or the server's Retry-After.
func (s *Spotify) doWithRateLimit(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	for attempt := 0; ; attempt++ {
		if err := s.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("execute request: %w", err)
		}
		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}
		_ = resp.Body.Close()

		if attempt >= s.cfg.MaxRetries {
			return nil, fmt.Errorf("rate limit exceeded after %d retries", attempt)
		}

		retryDelay := s.retryBase * (1 << attempt)
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := strconv.Atoi(retryAfter); err == nil && seconds >= 0 {
				retryDelay = time.Duration(seconds) * time.Second
			}
		}

		s.logger.Warn().Dur("retry_delay", retryDelay).Int("attempt", attempt+1).Int("max_retries", s.cfg.MaxRetries).Msg("Spotify API rate limited (HTTP 429), retrying")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryDelay):
		}
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// accessToken returns a cached client-credentials token, fetching a new one
// when it is missing or about to expire.
func (s *Spotify) accessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.tokenExpiry) {
		return s.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.AccountsURL+"/api/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", models.NewOpError(models.KindConfiguration, "token", SourceSpotify, fmt.Errorf("create request: %w", err))
	}
	req.SetBasicAuth(s.cfg.ClientID, s.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", models.NewOpError(models.KindTransientFetch, "token", SourceSpotify, fmt.Errorf("execute request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", models.NewOpError(models.KindTransientFetch, "token", SourceSpotify, fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		kind := statusKind(resp.StatusCode)
		if resp.StatusCode == http.StatusBadRequest {
			// invalid_client
			kind = models.KindConfiguration
		}
		return "", models.NewOpError(kind, "token", SourceSpotify, fmt.Errorf("status %d: %s", resp.StatusCode, snippet(body)))
	}

	var tok tokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", models.NewOpError(models.KindExtraction, "token", SourceSpotify, fmt.Errorf("decode token: %w", err))
	}
	if tok.AccessToken == "" {
		return "", models.NewOpError(models.KindExtraction, "token", SourceSpotify, errors.New("empty access token"))
	}

	s.token = tok.AccessToken
	s.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenSkew)
	s.logger.Debug().Int("expires_in", tok.ExpiresIn).Msg("Obtained Spotify access token")
	return s.token, nil
}

func (s *Spotify) invalidateToken() {
	s.mu.Lock()
	s.token = ""
	s.mu.Unlock()
}

func statusKind(status int) models.ErrorKind {
	switch {
	case status == http.StatusTooManyRequests, status >= 500:
		return models.KindTransientFetch
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return models.KindConfiguration
	default:
		return models.KindExtraction
	}
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
