package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	"biedronka/scraper/internal/config"
	"biedronka/scraper/internal/proxy"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// FetchError reports a transport or HTTP failure for a single URL.
// StatusCode is zero when the request never produced a response.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher retrieves raw pages and binary assets. Relative paths are resolved
// against the configured base origin. There is no retry here: a failed fetch
// is reported to the caller, and rerunning with a resume marker is how failed
// work gets retried.
type Fetcher interface {
	Fetch(ctx context.Context, subpage string) (string, error)
	FetchBytes(ctx context.Context, subpage string) ([]byte, error)
	Resolve(subpage string) string
}

type fetcher struct {
	rl         ratelimit.Limiter
	baseURL    string
	timeout    time.Duration
	httpClient *resty.Client
	proxies    proxy.Pool
}

// NewFetcher builds a Fetcher from scraper configuration. When a proxy pool
// is supplied, the first working proxy is installed on the client.
func NewFetcher(cfg config.ScraperConfig, proxies proxy.Pool) Fetcher {
	timeout := time.Duration(cfg.Timeout) * time.Second

	httpClient := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "pl,en-US;q=0.7,en;q=0.3")

	if proxies != nil {
		if proxyURL := proxies.Next(); proxyURL != "" {
			httpClient.SetProxy(proxyURL)
			log.Infof("Using proxy: %s", proxyURL)
		}
	}

	rps := cfg.MaxRequestsPerSecond
	if rps <= 0 {
		rps = 1
	}

	return &fetcher{
		rl:         ratelimit.New(rps),
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		timeout:    timeout,
		httpClient: httpClient,
		proxies:    proxies,
	}
}

// Resolve turns a site-relative path into an absolute URL. Absolute URLs
// pass through unchanged.
func (f *fetcher) Resolve(subpage string) string {
	if strings.HasPrefix(subpage, "http") {
		return subpage
	}
	return f.baseURL + "/" + strings.TrimLeft(subpage, "/")
}

func (f *fetcher) Fetch(ctx context.Context, subpage string) (string, error) {
	body, err := f.get(ctx, f.Resolve(subpage))
	if err != nil {
		return "", err
	}
	return string(body), nil
}

func (f *fetcher) FetchBytes(ctx context.Context, subpage string) ([]byte, error) {
	return f.get(ctx, f.Resolve(subpage))
}

func (f *fetcher) get(ctx context.Context, url string) ([]byte, error) {
	f.rl.Take()

	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	resp, err := f.httpClient.R().
		SetContext(reqCtx).
		Get(url)

	if err != nil {
		if ctx.Err() != nil {
			return nil, &FetchError{URL: url, Err: ctx.Err()}
		}
		return nil, &FetchError{URL: url, Err: err}
	}

	if resp.IsError() {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode()}
	}

	log.Debugf("Fetched %s (%d bytes)", url, len(resp.Bytes()))
	return resp.Bytes(), nil
}
