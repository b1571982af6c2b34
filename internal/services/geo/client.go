package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/maxjeon97/friender/internal/domain/model"
)

var (
	ErrValidation = errors.New("invalid radius lookup payload")
	// ErrUpstream covers every failure mode of the ZIP radius provider:
	// network errors, non-2xx statuses, and bodies that do not parse.
	ErrUpstream = errors.New("zip radius provider unavailable")
)

var zipCodeRe = regexp.MustCompile(`^\d{5}$`)

// Cache is an optional read-through layer in front of the provider. A nil
// cache or a cache error never fails the lookup.
type Cache interface {
	GetAreas(ctx context.Context, originZip string, radius int) ([]model.Area, bool, error)
	SetAreas(ctx context.Context, originZip string, radius int, areas []model.Area, ttl time.Duration) error
}

type Config struct {
	BaseURL      string
	APIKey       string
	RetryMax     int
	RetryBackoff time.Duration
	CacheTTL     time.Duration
}

type Client struct {
	httpClient *http.Client
	cache      Cache
	cfg        Config
	logger     *zap.Logger
}

func NewClient(httpClient *http.Client, cache Cache, cfg Config, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 200 * time.Millisecond
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		httpClient: httpClient,
		cache:      cache,
		cfg:        cfg,
		logger:     logger,
	}
}

type radiusResponse struct {
	ZipCodes []struct {
		ZipCode  string  `json:"zip_code"`
		Distance float64 `json:"distance"`
		City     string  `json:"city"`
		State    string  `json:"state"`
	} `json:"zip_codes"`
}

// ZipCodesInRadius returns every ZIP code area within radius miles of
// originZip, the origin itself included when the provider reports it.
func (c *Client) ZipCodesInRadius(ctx context.Context, originZip string, radius int) ([]model.Area, error) {
	if !zipCodeRe.MatchString(originZip) {
		return nil, fmt.Errorf("%w: origin must be a 5-digit ZIP code", ErrValidation)
	}
	if radius <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive", ErrValidation)
	}

	if c.cache != nil {
		areas, hit, err := c.cache.GetAreas(ctx, originZip, radius)
		if err != nil {
			c.logger.Warn("geo cache read failed", zap.Error(err))
		} else if hit {
			return areas, nil
		}
	}

	areas, err := c.fetch(ctx, originZip, radius)
	if err != nil {
		return nil, err
	}

	if c.cache != nil && c.cfg.CacheTTL > 0 {
		if err := c.cache.SetAreas(ctx, originZip, radius, areas, c.cfg.CacheTTL); err != nil {
			c.logger.Warn("geo cache write failed", zap.Error(err))
		}
	}

	return areas, nil
}

func (c *Client) fetch(ctx context.Context, originZip string, radius int) ([]model.Area, error) {
	endpoint := fmt.Sprintf("%s/%s/radius.json/%s/%s/mile",
		c.cfg.BaseURL,
		url.PathEscape(c.cfg.APIKey),
		url.PathEscape(originZip),
		strconv.Itoa(radius),
	)

	var lastErr error
	for attempt := 0; attempt <= c.cfg.RetryMax; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.cfg.RetryBackoff * time.Duration(attempt)):
			}
		}

		areas, retryable, err := c.doRequest(ctx, endpoint)
		if err == nil {
			return areas, nil
		}
		lastErr = err
		if !retryable {
			break
		}
		c.logger.Warn("zip radius request failed",
			zap.String("origin", originZip),
			zap.Int("radius", radius),
			zap.Int("attempt", attempt+1),
			zap.Error(err))
	}

	return nil, fmt.Errorf("%w: %v", ErrUpstream, lastErr)
}

func (c *Client) doRequest(ctx context.Context, endpoint string) ([]model.Area, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, false, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, true, err
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, fmt.Errorf("provider returned status %d", resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, false, fmt.Errorf("provider returned status %d", resp.StatusCode)
	}

	var parsed radiusResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, false, fmt.Errorf("decode provider response: %v", err)
	}

	areas := make([]model.Area, 0, len(parsed.ZipCodes))
	for _, zc := range parsed.ZipCodes {
		areas = append(areas, model.Area{
			ZipCode:  zc.ZipCode,
			Distance: zc.Distance,
			City:     zc.City,
			State:    zc.State,
		})
	}

	return areas, false, nil
}
