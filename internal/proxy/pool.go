package proxy

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	"resty.dev/v3"
)

// Pool hands out proxy URLs round-robin. An empty pool hands out empty
// strings, which callers treat as "connect directly".
type Pool interface {
	Next() string
}

type pool struct {
	proxies []string
	current int
	mutex   sync.Mutex
}

// NewPool validates the configured proxies against probeURL in parallel and
// keeps only the working ones. A nil or empty proxy list yields a pool that
// always returns the direct connection.
func NewPool(ctx context.Context, proxies []string, probeURL string) Pool {
	if len(proxies) == 0 {
		return &pool{}
	}

	log.Infof("Validating %d proxies", len(proxies))

	working := make(chan string, len(proxies))
	sem := make(chan struct{}, 16)

	var wg sync.WaitGroup
	for _, proxyURL := range proxies {
		wg.Add(1)
		go func(proxyURL string) {
			defer wg.Done()

			sem <- struct{}{}
			defer func() { <-sem }()

			if probe(ctx, proxyURL, probeURL) {
				working <- proxyURL
			} else {
				log.Warnf("Dropping unreachable proxy %s", proxyURL)
			}
		}(proxyURL)
	}
	wg.Wait()
	close(working)

	p := &pool{}
	for proxyURL := range working {
		p.proxies = append(p.proxies, proxyURL)
	}
	log.Infof("Proxy pool ready: %d of %d proxies usable", len(p.proxies), len(proxies))
	return p
}

func (p *pool) Next() string {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	if len(p.proxies) == 0 {
		return ""
	}

	proxyURL := p.proxies[p.current]
	p.current = (p.current + 1) % len(p.proxies)
	return proxyURL
}

func probe(ctx context.Context, proxyURL, probeURL string) bool {
	client := resty.New().
		SetTimeout(5 * time.Second).
		SetRetryCount(0).
		SetProxy(proxyURL)
	defer client.Close()

	resp, err := client.R().
		SetContext(ctx).
		Get(probeURL)
	if err != nil {
		return false
	}
	return !resp.IsError()
}
