// Package sourceclient talks to the external document store over HTTP. It
// implements the importer's DocumentSource capability: list new documents,
// fetch one document body, acknowledge one document as processed.
package sourceclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/fieldstudies/import-backend/pkg/documents"
	"github.com/fieldstudies/import-backend/pkg/importer"
)

type ClientConfig struct {
	RootURL string `json:"root_url" yaml:"root_url"`
	APIKey  string `json:"api_key" yaml:"api_key"`
	Timeout int    `json:"timeout" yaml:"timeout"` // seconds
}

type Client struct {
	config     ClientConfig
	httpClient *http.Client
}

func NewClient(config ClientConfig) *Client {
	if config.Timeout < 1 {
		config.Timeout = 30
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.Timeout) * time.Second,
		},
	}
}

type listNewResponse struct {
	Documents []importer.DocumentRef `json:"documents"`
}

func (c *Client) ListNew(ctx context.Context, collection string) ([]importer.DocumentRef, error) {
	pathname := fmt.Sprintf("/collections/%s/new", url.PathEscape(collection))

	var resp listNewResponse
	if err := c.runRequest(ctx, http.MethodGet, pathname, &resp); err != nil {
		return nil, err
	}
	return resp.Documents, nil
}

func (c *Client) Fetch(ctx context.Context, ref importer.DocumentRef) (documents.RawDocument, error) {
	pathname := fmt.Sprintf("/collections/%s/documents/%s", url.PathEscape(ref.Collection), url.PathEscape(ref.ID))

	var doc documents.RawDocument
	if err := c.runRequest(ctx, http.MethodGet, pathname, &doc); err != nil {
		return doc, err
	}
	return doc, nil
}

func (c *Client) MarkProcessed(ctx context.Context, ref importer.DocumentRef) error {
	pathname := fmt.Sprintf("/collections/%s/documents/%s/processed", url.PathEscape(ref.Collection), url.PathEscape(ref.ID))
	return c.runRequest(ctx, http.MethodPost, pathname, nil)
}

func (c *Client) runRequest(ctx context.Context, method string, pathname string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.config.RootURL+pathname, nil)
	if err != nil {
		return err
	}
	if c.config.APIKey != "" {
		req.Header.Set("Api-Key", c.config.APIKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("document store returned status %d for %s", resp.StatusCode, pathname)
	}

	if target == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(target)
}
