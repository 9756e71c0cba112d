// Package anilist looks up canonical anime titles through the AniList
// GraphQL API.
package anilist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"reelsort/internal/services"
)

const defaultEndpoint = "https://graphql.anilist.co"

const mediaQuery = `query ($search: String) {
  Media(search: $search, type: ANIME) {
    title { romaji english }
    startDate { year }
  }
}`

// Client queries AniList. The zero value uses the public endpoint with a
// ten second timeout.
type Client struct {
	Endpoint   string
	HTTPClient *http.Client
}

type requestBody struct {
	Query     string            `json:"query"`
	Variables map[string]string `json:"variables"`
}

type responseBody struct {
	Data struct {
		Media *struct {
			Title struct {
				Romaji  string `json:"romaji"`
				English string `json:"english"`
			} `json:"title"`
			StartDate struct {
				Year int `json:"year"`
			} `json:"startDate"`
		} `json:"Media"`
	} `json:"data"`
}

// Lookup resolves guess to a canonical title and first-air year. A clean
// miss returns services.ErrNotFound.
func (c *Client) Lookup(ctx context.Context, guess string) (string, int, error) {
	guess = strings.TrimSpace(guess)
	if guess == "" {
		return "", 0, services.ErrNotFound
	}

	payload, err := json.Marshal(requestBody{
		Query:     mediaQuery,
		Variables: map[string]string{"search": guess},
	})
	if err != nil {
		return "", 0, fmt.Errorf("encode anilist query: %w", err)
	}

	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", 0, fmt.Errorf("build anilist request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", 0, services.Wrap(services.ErrTransient, "metadata", "anilist", "request failed", err)
	}
	defer resp.Body.Close()

	// AniList reports an unknown title as a GraphQL error with status 404.
	if resp.StatusCode == http.StatusNotFound {
		return "", 0, services.ErrNotFound
	}
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", 0, services.Wrap(services.ErrTransient, "metadata", "anilist",
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var decoded responseBody
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", 0, services.Wrap(services.ErrTransient, "metadata", "anilist", "decode response", err)
	}
	media := decoded.Data.Media
	if media == nil {
		return "", 0, services.ErrNotFound
	}
	title := strings.TrimSpace(media.Title.English)
	if title == "" {
		title = strings.TrimSpace(media.Title.Romaji)
	}
	if title == "" {
		return "", 0, services.ErrNotFound
	}
	return title, media.StartDate.Year, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}
