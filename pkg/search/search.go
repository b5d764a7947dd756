// Package search uploads documents to an Azure AI Search index over REST.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dtnitsch/site-indexer/models"
)

const DefaultAPIVersion = "2023-11-01"

// MaxBatchSize is the service limit of actions per indexing request.
const MaxBatchSize = 1000

type Client struct {
	endpoint   string
	index      string
	key        string
	apiVersion string
	httpClient *http.Client
}

func New(endpoint, index, key string) *Client {
	return &Client{
		endpoint:   strings.TrimRight(endpoint, "/"),
		index:      index,
		key:        key,
		apiVersion: DefaultAPIVersion,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// Result is the per-document outcome of an indexing request.
type Result struct {
	Key          string `json:"key"`
	Status       bool   `json:"status"`
	ErrorMessage string `json:"errorMessage"`
	StatusCode   int    `json:"statusCode"`
}

// BatchError reports the documents the service refused.
type BatchError struct {
	Failed []Result
}

func (e *BatchError) Error() string {
	keys := make([]string, len(e.Failed))
	for i, r := range e.Failed {
		keys[i] = fmt.Sprintf("%s (%d: %s)", r.Key, r.StatusCode, r.ErrorMessage)
	}
	return "search indexing failed for " + strings.Join(keys, ", ")
}

type batch struct {
	Value []models.SearchDocument `json:"value"`
}

type batchResponse struct {
	Value []Result `json:"value"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Upload sends the documents in batches. Each document carries its own
// action (mergeOrUpload or delete). A *BatchError lists refused documents.
func (c *Client) Upload(ctx context.Context, docs []models.SearchDocument) ([]Result, error) {
	var all []Result
	var failed []Result
	for start := 0; start < len(docs); start += MaxBatchSize {
		end := min(start+MaxBatchSize, len(docs))
		results, err := c.indexBatch(ctx, docs[start:end])
		if err != nil {
			return all, err
		}
		for _, r := range results {
			if !r.Status {
				failed = append(failed, r)
			}
		}
		all = append(all, results...)
	}
	if len(failed) > 0 {
		return all, &BatchError{Failed: failed}
	}
	return all, nil
}

// Delete removes documents by ArticleId.
func (c *Client) Delete(ctx context.Context, ids ...string) ([]Result, error) {
	docs := make([]models.SearchDocument, len(ids))
	for i, id := range ids {
		docs[i] = models.DeletionOf(id)
	}
	return c.Upload(ctx, docs)
}

func (c *Client) indexBatch(ctx context.Context, docs []models.SearchDocument) ([]Result, error) {
	payload, err := json.Marshal(batch{Value: docs})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch: %w", err)
	}

	url := fmt.Sprintf("%s/indexes/%s/docs/index?api-version=%s", c.endpoint, c.index, c.apiVersion)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", c.key)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var br batchResponse
	_ = json.Unmarshal(body, &br)

	// 207 means some documents failed; their results say which.
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusMultiStatus {
		msg := http.StatusText(resp.StatusCode)
		if br.Error != nil && br.Error.Message != "" {
			msg = br.Error.Message
		}
		return nil, fmt.Errorf("search index %s: %s (status: %d)", c.index, msg, resp.StatusCode)
	}
	return br.Value, nil
}
