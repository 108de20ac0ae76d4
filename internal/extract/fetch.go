// Lineup - Festival Lineup Ingestion and Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/lineup

package extract

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/lineup/internal/metrics"
	"github.com/tomtom215/lineup/internal/models"
)

// FetchConfig controls document retrieval.
type FetchConfig struct {
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	UserAgent     string
	MaxBodyBytes  int64
}

// DefaultFetchConfig returns production defaults.
func DefaultFetchConfig() FetchConfig {
	return FetchConfig{
		Timeout:       30 * time.Second,
		RetryAttempts: 3,
		RetryDelay:    2 * time.Second,
		UserAgent:     "Mozilla/5.0 (compatible; LineupBot/1.0; +https://github.com/tomtom215/lineup)",
		MaxBodyBytes:  20 << 20,
	}
}

// Fetched is a retrieved source document.
type Fetched struct {
	Source      string
	URL         *url.URL
	ContentType string
	Body        []byte
}

// IsHTML reports whether the document is an HTML page.
func (f *Fetched) IsHTML() bool {
	return f.ContentType == "text/html" || f.ContentType == "application/xhtml+xml"
}

// IsPDF reports whether the document is a PDF.
func (f *Fetched) IsPDF() bool {
	return f.ContentType == "application/pdf"
}

// Fetcher retrieves source documents over HTTP(S) or from the local
// filesystem. Transient failures are retried a bounded number of times with a
// fixed delay between attempts.
type Fetcher struct {
	client *http.Client
	cfg    FetchConfig
	logger zerolog.Logger
}

// NewFetcher creates a Fetcher. A nil client gets one with cfg.Timeout.
func NewFetcher(cfg FetchConfig, client *http.Client, logger zerolog.Logger) *Fetcher {
	def := DefaultFetchConfig()
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 1
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = def.UserAgent
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = def.MaxBodyBytes
	}
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = def.Timeout
		}
		client = &http.Client{
			Timeout: timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return http.ErrUseLastResponse
				}
				return nil
			},
		}
	}
	return &Fetcher{
		client: client,
		cfg:    cfg,
		logger: logger.With().Str("component", "fetcher").Logger(),
	}
}

// errPermanent marks failures that retrying cannot fix.
type errPermanent struct{ err error }

func (e *errPermanent) Error() string { return e.err.Error() }
func (e *errPermanent) Unwrap() error { return e.err }

// Fetch retrieves source. Exhausted transient failures are returned as a
// TransientFetch OpError; permanent failures (bad source, 4xx) as Extraction.
func (f *Fetcher) Fetch(ctx context.Context, source string) (*Fetched, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, models.NewOpError(models.KindValidation, "fetch", source, errors.New("empty source"))
	}

	u, err := url.Parse(source)
	if err != nil {
		return nil, models.NewOpError(models.KindValidation, "fetch", source, err)
	}
	if u.Scheme == "" || u.Scheme == "file" {
		return f.readFile(source, u)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, models.NewOpError(models.KindValidation, "fetch", source, fmt.Errorf("unsupported scheme %q", u.Scheme))
	}

	var lastErr error
	for attempt := 1; attempt <= f.cfg.RetryAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, models.NewOpError(models.KindTransientFetch, "fetch", source, ctx.Err())
		}

		doc, err := f.fetchOnce(ctx, source)
		if err == nil {
			metrics.RecordFetchAttempt("success")
			return doc, nil
		}

		var perm *errPermanent
		if errors.As(err, &perm) {
			metrics.RecordFetchAttempt("permanent")
			return nil, models.NewOpError(models.KindExtraction, "fetch", source, perm.err)
		}

		lastErr = err
		if attempt < f.cfg.RetryAttempts {
			metrics.RecordFetchAttempt("retry")
			f.logger.Warn().Err(err).
				Str("source", source).
				Int("attempt", attempt).
				Int("max_attempts", f.cfg.RetryAttempts).
				Dur("delay", f.cfg.RetryDelay).
				Msg("Fetch failed, retrying")

			select {
			case <-time.After(f.cfg.RetryDelay):
			case <-ctx.Done():
				return nil, models.NewOpError(models.KindTransientFetch, "fetch", source, ctx.Err())
			}
		}
	}

	metrics.RecordFetchAttempt("exhausted")
	return nil, models.NewOpError(models.KindTransientFetch, "fetch", source,
		fmt.Errorf("giving up after %d attempts: %w", f.cfg.RetryAttempts, lastErr))
}

func (f *Fetcher) fetchOnce(ctx context.Context, source string) (*Fetched, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, http.NoBody)
	if err != nil {
		return nil, &errPermanent{fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		if isTransientNetErr(err) {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}
		return nil, &errPermanent{fmt.Errorf("HTTP request failed: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, &errPermanent{fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.cfg.MaxBodyBytes {
		return nil, &errPermanent{fmt.Errorf("document exceeds %d bytes", f.cfg.MaxBodyBytes)}
	}

	return &Fetched{
		Source:      source,
		URL:         resp.Request.URL,
		ContentType: sniffContentType(resp.Header.Get("Content-Type"), source, body),
		Body:        body,
	}, nil
}

func (f *Fetcher) readFile(source string, u *url.URL) (*Fetched, error) {
	path := source
	if u.Scheme == "file" {
		path = u.Path
	}
	body, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, models.NewOpError(models.KindExtraction, "fetch", source, err)
	}
	if int64(len(body)) > f.cfg.MaxBodyBytes {
		return nil, models.NewOpError(models.KindExtraction, "fetch", source,
			fmt.Errorf("document exceeds %d bytes", f.cfg.MaxBodyBytes))
	}
	abs, _ := filepath.Abs(path)
	return &Fetched{
		Source:      source,
		URL:         &url.URL{Scheme: "file", Path: abs},
		ContentType: sniffContentType("", path, body),
		Body:        body,
	}, nil
}

// sniffContentType prefers the declared media type, then the extension, then
// the body signature.
func sniffContentType(header, name string, body []byte) string {
	if header != "" {
		if mt, _, err := mime.ParseMediaType(header); err == nil && mt != "application/octet-stream" {
			return mt
		}
	}
	switch strings.ToLower(filepath.Ext(strings.SplitN(name, "?", 2)[0])) {
	case ".pdf":
		return "application/pdf"
	case ".html", ".htm":
		return "text/html"
	case ".txt":
		return "text/plain"
	}
	mt, _, _ := mime.ParseMediaType(http.DetectContentType(body))
	return mt
}

// isTransientNetErr reports whether a transport failure may succeed on a
// later attempt. *url.Error satisfies net.Error, so net.Error alone says
// nothing; TLS and certificate failures are permanent.
func isTransientNetErr(err error) bool {
	var (
		certErr   *tls.CertificateVerificationError
		recordErr tls.RecordHeaderError
		authErr   x509.UnknownAuthorityError
		hostErr   x509.HostnameError
		invalid   x509.CertificateInvalidError
	)
	if errors.As(err, &certErr) || errors.As(err, &recordErr) || errors.As(err, &authErr) ||
		errors.As(err, &hostErr) || errors.As(err, &invalid) {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTimeout || dnsErr.IsTemporary
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
