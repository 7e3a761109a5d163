package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.themoviedb.org"
const defaultCacheTTL = 24 * time.Hour

var (
	// ErrNotFound is returned when the requested show, season or episode doesn't exist.
	ErrNotFound = errors.New("not found in TMDB")

	// ErrNoAPIKey is returned when the client has no API key configured.
	ErrNoAPIKey = errors.New("TMDB API key not configured")

	// ErrAPI wraps any other non-success response.
	ErrAPI = errors.New("TMDB API error")
)

// Client is a TMDB API client.
type Client struct {
	apiKey     string
	apiKeyFunc func() string
	baseURL    string
	httpClient *http.Client
	limiter    *RateLimiter
	seasons    *cache[[]Season]
	episodes   *cache[*Episode]
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithCacheTTL sets the cache TTL for season and episode lookups.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) {
		c.seasons = newCache[[]Season](ttl)
		c.episodes = newCache[*Episode](ttl)
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithAPIKeyFunc makes the client read its key on every request, so a key
// changed at runtime takes effect without rebuilding the client.
func WithAPIKeyFunc(fn func() string) Option {
	return func(c *Client) {
		c.apiKeyFunc = fn
	}
}

// WithRateLimiter replaces the process-wide limiter.
func WithRateLimiter(l *RateLimiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// NewClient creates a new TMDB client.
func NewClient(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		limiter:  sharedLimiter,
		seasons:  newCache[[]Season](defaultCacheTTL),
		episodes: newCache[*Episode](defaultCacheTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SearchMovies searches movies by title, optionally narrowed by release year.
// Every result is tagged with media type "movie".
func (c *Client) SearchMovies(ctx context.Context, query string, year *int) ([]SearchResult, error) {
	params := searchParams(query)
	if year != nil {
		params.Set("year", strconv.Itoa(*year))
	}
	results, err := c.search(ctx, "/3/search/movie", params)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].MediaType = "movie"
	}
	return results, nil
}

// SearchTV searches shows by name, optionally narrowed by first air year.
// Every result is tagged with media type "tv".
func (c *Client) SearchTV(ctx context.Context, query string, year *int) ([]SearchResult, error) {
	params := searchParams(query)
	if year != nil {
		params.Set("first_air_date_year", strconv.Itoa(*year))
	}
	results, err := c.search(ctx, "/3/search/tv", params)
	if err != nil {
		return nil, err
	}
	for i := range results {
		results[i].MediaType = "tv"
	}
	return results, nil
}

// SearchMulti searches movies and shows together. People and other result
// kinds are dropped.
func (c *Client) SearchMulti(ctx context.Context, query string, year *int) ([]SearchResult, error) {
	params := searchParams(query)
	if year != nil {
		params.Set("year", strconv.Itoa(*year))
	}
	results, err := c.search(ctx, "/3/search/multi", params)
	if err != nil {
		return nil, err
	}
	filtered := results[:0]
	for _, r := range results {
		if r.MediaType == "movie" || r.MediaType == "tv" {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// GetSeasons lists the seasons of a show.
func (c *Client) GetSeasons(ctx context.Context, tvID int64) ([]Season, error) {
	path := fmt.Sprintf("/3/tv/%d", tvID)
	if seasons, ok := c.seasons.get(path); ok {
		return seasons, nil
	}

	var detail tvDetail
	if err := c.get(ctx, path, url.Values{}, &detail); err != nil {
		return nil, err
	}

	c.seasons.set(path, detail.Seasons)
	return detail.Seasons, nil
}

// GetSeason fetches one season with its episodes.
func (c *Client) GetSeason(ctx context.Context, tvID int64, season int) (*SeasonDetail, error) {
	path := fmt.Sprintf("/3/tv/%d/season/%d", tvID, season)
	var detail SeasonDetail
	if err := c.get(ctx, path, url.Values{}, &detail); err != nil {
		return nil, err
	}
	return &detail, nil
}

// GetEpisode fetches a single episode. Any non-success response is reported
// as ErrNotFound.
func (c *Client) GetEpisode(ctx context.Context, tvID int64, season, episode int) (*Episode, error) {
	path := fmt.Sprintf("/3/tv/%d/season/%d/episode/%d", tvID, season, episode)
	if ep, ok := c.episodes.get(path); ok {
		return ep, nil
	}

	var ep Episode
	if err := c.get(ctx, path, url.Values{}, &ep); err != nil {
		if errors.Is(err, ErrAPI) {
			return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
		}
		return nil, err
	}

	c.episodes.set(path, &ep)
	return &ep, nil
}

func searchParams(query string) url.Values {
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	return params
}

func (c *Client) search(ctx context.Context, path string, params url.Values) ([]SearchResult, error) {
	var resp searchResponse
	if err := c.get(ctx, path, params, &resp); err != nil {
		return nil, err
	}
	return resp.Results, nil
}

// HasAPIKey reports whether a key is currently configured.
func (c *Client) HasAPIKey() bool {
	return c.key() != ""
}

func (c *Client) key() string {
	if c.apiKeyFunc != nil {
		return strings.TrimSpace(c.apiKeyFunc())
	}
	return c.apiKey
}

// get performs a rate limited GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	apiKey := c.key()
	if apiKey == "" {
		return ErrNoAPIKey
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	params.Set("api_key", apiKey)
	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: %s", ErrAPI, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
