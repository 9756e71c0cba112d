// Package jikan looks up anime titles through the Jikan (MyAnimeList) REST
// API as a fallback when AniList has no match.
package jikan

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"reelsort/internal/services"
)

const defaultEndpoint = "https://api.jikan.moe/v4/anime"

// Client queries Jikan. The zero value uses the public endpoint with a
// ten second timeout.
type Client struct {
	Endpoint   string
	HTTPClient *http.Client
}

type responseBody struct {
	Data []struct {
		Title        string `json:"title"`
		TitleEnglish string `json:"title_english"`
		Aired        struct {
			From string `json:"from"`
		} `json:"aired"`
	} `json:"data"`
}

// Lookup resolves guess to a canonical title and first-air year. Results are
// ordered by community size so the best-known match comes first. A clean
// miss returns services.ErrNotFound.
func (c *Client) Lookup(ctx context.Context, guess string) (string, int, error) {
	guess = strings.TrimSpace(guess)
	if guess == "" {
		return "", 0, services.ErrNotFound
	}

	endpoint := c.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	query := url.Values{}
	query.Set("q", guess)
	query.Set("limit", "5")
	query.Set("sfw", "true")
	query.Set("order_by", "members")
	query.Set("sort", "desc")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", 0, fmt.Errorf("build jikan request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return "", 0, services.Wrap(services.ErrTransient, "metadata", "jikan", "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", 0, services.Wrap(services.ErrTransient, "metadata", "jikan",
			fmt.Sprintf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var decoded responseBody
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", 0, services.Wrap(services.ErrTransient, "metadata", "jikan", "decode response", err)
	}
	if len(decoded.Data) == 0 {
		return "", 0, services.ErrNotFound
	}

	best := decoded.Data[0]
	title := strings.TrimSpace(best.TitleEnglish)
	if title == "" {
		title = strings.TrimSpace(best.Title)
	}
	if title == "" {
		return "", 0, services.ErrNotFound
	}
	return title, airedYear(best.Aired.From), nil
}

// airedYear parses the year prefix of an ISO aired-from timestamp.
func airedYear(from string) int {
	if len(from) < 4 {
		return 0
	}
	year, err := strconv.Atoi(from[:4])
	if err != nil {
		return 0
	}
	return year
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return &http.Client{Timeout: 10 * time.Second}
}
