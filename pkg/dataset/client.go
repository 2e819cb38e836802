package dataset

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"path"
	"time"
)

// Client downloads a dataset from an HTTP URL.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(url string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        2,
				MaxIdleConnsPerHost: 2,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		logger: logger.With("component", "dataset_client"),
	}
}

// Fetch downloads and decodes the dataset. The format comes from the
// response content type, falling back to the URL extension, then JSON.
func (c *Client) Fetch(ctx context.Context) (*Dataset, error) {
	start := time.Now()
	c.logger.Info("starting dataset download", "url", c.url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", "trajview/1.0")
	req.Header.Set("Accept", "application/json, application/yaml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("failed to download dataset",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return nil, fmt.Errorf("download dataset: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("received HTTP response",
		"status_code", resp.StatusCode,
		"content_length", resp.ContentLength,
		"content_type", resp.Header.Get("Content-Type"),
	)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	ds, err := Parse(c.url, data, formatFor(resp.Header.Get("Content-Type"), c.url))
	if err != nil {
		return nil, err
	}

	c.logger.Info("dataset download completed",
		"size_bytes", len(data),
		"routes", len(ds.Routes),
		"fingerprint", ds.Fingerprint,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return ds, nil
}

func formatFor(contentType, rawURL string) Format {
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		switch mt {
		case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
			return FormatYAML
		case "application/json":
			return FormatJSON
		}
	}
	if u, err := url.Parse(rawURL); err == nil {
		if f, err := ParseFormat(path.Ext(u.Path)); err == nil {
			return f
		}
	}
	return FormatJSON
}
