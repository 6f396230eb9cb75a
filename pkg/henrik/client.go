package henrik

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/valyala/fasthttp"
)

const (
	DefaultBaseURL = "https://api.henrikdev.xyz/valorant"
	DefaultRegion  = "na"
	platform       = "pc"
)

var ErrNoMatches = errors.New("no recent matches returned")

type Client struct {
	apiKey  string
	baseURL string
	client  *fasthttp.Client

	rateLimitMu sync.RWMutex
	rateLimit   RateLimitInfo
}

type RateLimitInfo struct {
	Bucket    string `json:"bucket"`
	Limit     int    `json:"limit"`
	Remaining int    `json:"remaining"`

	// seconds until reset
	Reset int `json:"reset"`

	UpdatedAt time.Time `json:"updated_at"`
}

func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         30 * time.Second,
			WriteTimeout:        10 * time.Second,
			MaxIdleConnDuration: time.Minute,
		},
		rateLimit: RateLimitInfo{
			Limit:     30,
			Remaining: 30,
			Reset:     60,
			UpdatedAt: time.Now(),
		},
	}
}

func (c *Client) RateLimit() RateLimitInfo {
	c.rateLimitMu.RLock()
	defer c.rateLimitMu.RUnlock()
	return c.rateLimit
}

func (c *Client) updateRateLimit(resp *fasthttp.Response) {
	c.rateLimitMu.Lock()
	defer c.rateLimitMu.Unlock()

	if bucket := string(resp.Header.Peek("X-Ratelimit-Bucket")); bucket != "" {
		c.rateLimit.Bucket = bucket
	}
	if limit := string(resp.Header.Peek("X-Ratelimit-Limit")); limit != "" {
		if val, err := strconv.Atoi(limit); err == nil {
			c.rateLimit.Limit = val
		}
	}
	if remaining := string(resp.Header.Peek("X-Ratelimit-Remaining")); remaining != "" {
		if val, err := strconv.Atoi(remaining); err == nil {
			c.rateLimit.Remaining = val
		}
	}
	if reset := string(resp.Header.Peek("X-Ratelimit-Reset")); reset != "" {
		if val, err := strconv.Atoi(reset); err == nil {
			c.rateLimit.Reset = val
		}
	}
	c.rateLimit.UpdatedAt = time.Now()
}

func segment(s string) string {
	return url.PathEscape(strings.TrimSpace(s))
}

func (c *Client) Account(ctx context.Context, name, tag string) (*Account, error) {
	u := fmt.Sprintf("%s/v2/account/%s/%s", c.baseURL, segment(name), segment(tag))
	resp, err := doRequest[AccountResponse](ctx, c, u)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

func (c *Client) AccountByPUUID(ctx context.Context, puuid string) (*Account, error) {
	u := fmt.Sprintf("%s/v2/by-puuid/account/%s", c.baseURL, segment(puuid))
	resp, err := doRequest[AccountResponse](ctx, c, u)
	if err != nil {
		return nil, err
	}
	return &resp.Data, nil
}

// LatestMatch returns the most recent match played by name#tag together with its raw JSON.
func (c *Client) LatestMatch(ctx context.Context, region, name, tag string) (*Match, []byte, error) {
	if region == "" {
		region = DefaultRegion
	}
	u := fmt.Sprintf("%s/v4/matches/%s/%s/%s/%s", c.baseURL, segment(region), platform, segment(name), segment(tag))
	resp, err := doRequest[MatchesResponse](ctx, c, u)
	if err != nil {
		return nil, nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil, ErrNoMatches
	}
	var m Match
	if err := json.Unmarshal(resp.Data[0], &m); err != nil {
		return nil, nil, fmt.Errorf("decoding match: %w", err)
	}
	return &m, resp.Data[0], nil
}

func doRequest[T any](ctx context.Context, client *Client, url string) (*T, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodGet)
	if client.apiKey != "" {
		req.Header.Set("Authorization", client.apiKey)
	}

	deadline, ok := ctx.Deadline()
	if ok {
		if err := client.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, err
		}
	} else {
		if err := client.client.Do(req, resp); err != nil {
			return nil, err
		}
	}

	client.updateRateLimit(resp)

	if resp.StatusCode() != fasthttp.StatusOK {
		log.Debug().Int("status", resp.StatusCode()).Str("url", url).Msg("henrik request failed")
		return nil, &StatusError{Code: resp.StatusCode()}
	}

	var result T
	if err := json.Unmarshal(resp.Body(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}
