package gotenberg

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client converts HTML documents to PDF through a Gotenberg instance.
type Client interface {
	Ping(ctx context.Context) error
	ConvertHTML(ctx context.Context, html string) ([]byte, error)
}

// APIClient is a resty-backed implementation of Client.
type APIClient struct {
	httpClient *resty.Client
}

// NewClient builds a Gotenberg client rooted at baseURL.
func NewClient(baseURL string) *APIClient {
	restyClient := resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(30 * time.Second)

	return &APIClient{httpClient: restyClient}
}

// Ping checks if the remote Gotenberg service is available.
func (c *APIClient) Ping(ctx context.Context) error {
	resp, err := c.httpClient.R().SetContext(ctx).Get("/health")
	if err != nil {
		return fmt.Errorf("gotenberg health: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return fmt.Errorf("gotenberg returned status %d", resp.StatusCode())
	}
	return nil
}

// ConvertHTML renders the given HTML document with Chromium and returns the PDF bytes.
func (c *APIClient) ConvertHTML(ctx context.Context, html string) ([]byte, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetFileReader("files", "index.html", bytes.NewBufferString(html)).
		Post("/forms/chromium/convert/html")
	if err != nil {
		return nil, fmt.Errorf("gotenberg convert: %w", err)
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return nil, fmt.Errorf("render failed with status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	return resp.Body(), nil
}
