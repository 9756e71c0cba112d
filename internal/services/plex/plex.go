// Package plex notifies a Plex server that library sections need rescanning
// after files land in the library tree.
package plex

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelsort/internal/config"
)

const userAgent = "Reelsort-Go/0.1.0"

// Service is the refresh surface exposed to the pipeline. Refresh failures
// are reported but never fail a file: the library contents are already in
// place and Plex will pick them up on its own schedule.
type Service interface {
	Refresh(ctx context.Context) error
}

// NewService builds a refresh service from config. When no Plex host or
// sections are configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	urls := cfg.RefreshURLs()
	if len(urls) == 0 {
		return noopService{}
	}
	timeout := time.Duration(cfg.Plex.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &httpService{
		urls:   urls,
		client: &http.Client{Timeout: timeout},
	}
}

type httpService struct {
	urls   []string
	client *http.Client
}

// Refresh hits every configured section endpoint. The first failure is
// returned after all sections have been attempted.
func (s *httpService) Refresh(ctx context.Context) error {
	var firstErr error
	for _, url := range s.urls {
		if err := s.refreshSection(ctx, url); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *httpService) refreshSection(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build plex refresh request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("send plex refresh: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("plex returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Refresh(context.Context) error { return nil }
