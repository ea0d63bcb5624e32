package payment

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/noah-isme/paypal-orders/internal/common"
	"github.com/noah-isme/paypal-orders/internal/lock"
	"github.com/noah-isme/paypal-orders/internal/obs"
	"github.com/noah-isme/paypal-orders/internal/resilience"
)

const maxCertBytes = 64 << 10

// Fetcher performs the GET for a certificate URL.
type Fetcher interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// CertCache fetches signing certificates and caches the PEM in Redis.
// Concurrent misses for the same URL are collapsed behind a Redis lock.
type CertCache struct {
	Redis   *redis.Client
	Locker  lock.Locker
	Fetcher Fetcher
	TTL     time.Duration
	Prefix  string
}

// NewCertCache builds a cache whose fetches go through the circuit breaker.
func NewCertCache(client *redis.Client, ttl, timeout time.Duration, breaker *resilience.Breaker) *CertCache {
	return &CertCache{
		Redis:   client,
		Locker:  lock.Locker{R: client},
		Fetcher: resilience.NewHTTPClient(timeout, breaker),
		TTL:     ttl,
		Prefix:  "paypal:cert:",
	}
}

// Certificates implements CertSource.
func (c *CertCache) Certificates(ctx context.Context, certURL string) ([]*x509.Certificate, error) {
	if c.Redis == nil {
		chain, _, err := c.fetch(ctx, certURL)
		return chain, err
	}
	key := c.key(certURL)
	if chain, ok := c.cached(ctx, key); ok {
		return chain, nil
	}
	var chain []*x509.Certificate
	err := c.Locker.WithLock(ctx, key+":lock", 10*time.Second, func(ctx context.Context) error {
		if cached, ok := c.cached(ctx, key); ok {
			chain = cached
			return nil
		}
		fetched, raw, err := c.fetch(ctx, certURL)
		if err != nil {
			return err
		}
		chain = fetched
		if err := c.Redis.Set(ctx, key, raw, c.ttl()).Err(); err != nil {
			obs.IncCertFetch("cache", "write_error")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chain, nil
}

func (c *CertCache) cached(ctx context.Context, key string) ([]*x509.Certificate, bool) {
	raw, err := c.Redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			obs.IncCertFetch("cache", "error")
		}
		return nil, false
	}
	chain, err := ParseCertificateChain(raw)
	if err != nil {
		_ = c.Redis.Del(ctx, key).Err()
		obs.IncCertFetch("cache", "corrupt")
		return nil, false
	}
	obs.IncCertFetch("cache", "hit")
	return chain, true
}

func (c *CertCache) fetch(ctx context.Context, certURL string) ([]*x509.Certificate, []byte, error) {
	if c.Fetcher == nil {
		return nil, nil, errors.New("payment: certificate fetcher not configured")
	}
	resp, err := c.Fetcher.Get(ctx, certURL)
	if err != nil {
		obs.IncCertFetch("remote", "error")
		return nil, nil, fmt.Errorf("fetch certificate: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		obs.IncCertFetch("remote", "error")
		return nil, nil, fmt.Errorf("fetch certificate: unexpected status %s", resp.Status)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxCertBytes))
	if err != nil {
		obs.IncCertFetch("remote", "error")
		return nil, nil, fmt.Errorf("read certificate: %w", err)
	}
	chain, err := ParseCertificateChain(raw)
	if err != nil {
		obs.IncCertFetch("remote", "invalid")
		return nil, nil, err
	}
	obs.IncCertFetch("remote", "ok")
	return chain, raw, nil
}

func (c *CertCache) key(certURL string) string {
	prefix := c.Prefix
	if prefix == "" {
		prefix = "paypal:cert:"
	}
	return prefix + common.Fingerprint(certURL)
}

func (c *CertCache) ttl() time.Duration {
	if c.TTL <= 0 {
		return time.Hour
	}
	return c.TTL
}

// ParseCertificateChain decodes every CERTIFICATE block in a PEM bundle.
func ParseCertificateChain(raw []byte) ([]*x509.Certificate, error) {
	var chain []*x509.Certificate
	rest := raw
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse certificate: %w", err)
		}
		chain = append(chain, cert)
	}
	if len(chain) == 0 {
		return nil, errors.New("parse certificate: no PEM certificate found")
	}
	return chain, nil
}
