// Package firestore provides a client for the Firestore REST API
// (documents + runQuery). It is the real data backend for user profiles,
// client records, advertisements and blog posts.
package firestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/colespa/colespa-api/internal/domain"
	"github.com/colespa/colespa-api/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/jwt"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("firestore")

const (
	baseURL  = "https://firestore.googleapis.com/v1"
	scope    = "https://www.googleapis.com/auth/datastore"
	tokenURL = "https://oauth2.googleapis.com/token"
)

// Client wraps HTTP calls to the Firestore REST API using a service-account
// token source.
type Client struct {
	httpClient  *http.Client
	baseURL     string
	projectID   string
	tokenSource oauth2.TokenSource
	cb          *gobreaker.CircuitBreaker
	cfg         resilience.Config
	bulkhead    *resilience.Bulkhead
	logger      *zap.Logger
}

// NewClient creates a Firestore client authenticated as the given service
// account.
func NewClient(httpClient *http.Client, projectID, clientEmail, privateKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	conf := &jwt.Config{
		Email:      clientEmail,
		PrivateKey: []byte(privateKey),
		Scopes:     []string{scope},
		TokenURL:   tokenURL,
	}
	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = 50
	}
	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		projectID:   projectID,
		tokenSource: conf.TokenSource(context.Background()),
		cb:          cb,
		cfg:         cfg,
		bulkhead:    resilience.NewBulkhead(maxConcurrency),
		logger:      logger,
	}
}

// documentsURL builds the URL for a document path under this project's
// default database. path may carry query parameters already escaped.
func (c *Client) documentsURL(path string) string {
	return fmt.Sprintf("%s/projects/%s/databases/(default)/documents%s", c.baseURL, c.projectID, path)
}

// firestoreDoc is the wire shape of a Firestore document.
type firestoreDoc struct {
	Name       string                     `json:"name,omitempty"`
	Fields     map[string]json.RawMessage `json:"fields,omitempty"`
	CreateTime string                     `json:"createTime,omitempty"`
	UpdateTime string                     `json:"updateTime,omitempty"`
}

// doRequest executes an authenticated request against the Firestore REST API
// and returns the raw response body. 404 maps to (nil, nil) so callers can
// build their own ErrNotFound with context.
func (c *Client) doRequest(ctx context.Context, method, rawURL string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reqBody)
	if err != nil {
		c.logger.Error("firestore: failed to create request",
			zap.String("method", method),
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return nil, err
	}

	token, err := c.tokenSource.Token()
	if err != nil {
		c.logger.Error("firestore: token source failed", zap.Error(err))
		return nil, fmt.Errorf("service account token: %w", err)
	}
	token.SetAuthHeader(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("firestore: request failed",
			zap.String("method", method),
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error("firestore: failed to read response body",
			zap.String("method", method),
			zap.String("url", rawURL),
			zap.Error(err),
		)
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil // no data
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("firestore: non-2xx response",
			zap.String("method", method),
			zap.String("url", rawURL),
			zap.Int("status", resp.StatusCode),
			zap.String("body", string(body)),
		)
		return nil, fmt.Errorf("firestore returned status %d: %s", resp.StatusCode, string(body))
	}

	c.logger.Debug("firestore: request OK",
		zap.String("method", method),
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode),
	)

	return body, nil
}

// createDoc creates a document with a caller-chosen id. v is any struct with
// JSON tags; its fields become typed Firestore values.
func (c *Client) createDoc(ctx context.Context, collection, docID string, v any) error {
	fields, err := encodeStruct(v)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	u := c.documentsURL("/"+collection) + "?documentId=" + url.QueryEscape(docID)
	return c.execute(ctx, func() error {
		_, err := c.doRequest(ctx, http.MethodPost, u, map[string]any{"fields": fields})
		return err
	})
}

// getDoc fetches a document into out. Returns (false, nil) when the document
// does not exist.
func (c *Client) getDoc(ctx context.Context, collection, docID string, out any) (bool, error) {
	u := c.documentsURL(fmt.Sprintf("/%s/%s", collection, url.PathEscape(docID)))

	var found bool
	err := c.execute(ctx, func() error {
		body, err := c.doRequest(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		if body == nil {
			found = false
			return nil
		}
		var doc firestoreDoc
		if err := json.Unmarshal(body, &doc); err != nil {
			return fmt.Errorf("decode document: %w", err)
		}
		if err := decodeStruct(doc.Fields, out); err != nil {
			return fmt.Errorf("decode fields: %w", err)
		}
		found = true
		return nil
	})
	return found, err
}

// patchDoc updates the named fields of a document. updates maps field paths
// to plain Go values.
func (c *Client) patchDoc(ctx context.Context, collection, docID string, updates map[string]any) error {
	fields, err := encodeMap(updates)
	if err != nil {
		return fmt.Errorf("encode updates: %w", err)
	}

	q := url.Values{}
	for path := range updates {
		q.Add("updateMask.fieldPaths", path)
	}
	u := c.documentsURL(fmt.Sprintf("/%s/%s", collection, url.PathEscape(docID))) + "?" + q.Encode()

	return c.execute(ctx, func() error {
		_, err := c.doRequest(ctx, http.MethodPatch, u, map[string]any{"fields": fields})
		return err
	})
}

// deleteDoc removes a document. Deleting a missing document is not an error.
func (c *Client) deleteDoc(ctx context.Context, collection, docID string) error {
	u := c.documentsURL(fmt.Sprintf("/%s/%s", collection, url.PathEscape(docID)))
	return c.execute(ctx, func() error {
		_, err := c.doRequest(ctx, http.MethodDelete, u, nil)
		return err
	})
}

// queryFilter is one fieldFilter clause of a structured query.
type queryFilter struct {
	Field string
	Op    string // EQUAL, GREATER_THAN_OR_EQUAL, LESS_THAN, ...
	Value any
}

// runQuery executes a structured query over one collection and decodes every
// returned document into a slice element via decode.
func (c *Client) runQuery(ctx context.Context, collection string, filters []queryFilter, orderBy, direction string, limit int, decode func(fields map[string]json.RawMessage) error) error {
	where, err := buildWhere(filters)
	if err != nil {
		return err
	}

	structured := map[string]any{
		"from": []map[string]any{{"collectionId": collection}},
	}
	if where != nil {
		structured["where"] = where
	}
	if orderBy != "" {
		if direction == "" {
			direction = "ASCENDING"
		}
		structured["orderBy"] = []map[string]any{
			{"field": map[string]any{"fieldPath": orderBy}, "direction": direction},
		}
	}
	if limit > 0 {
		structured["limit"] = limit
	}

	u := c.documentsURL(":runQuery")
	return c.execute(ctx, func() error {
		body, err := c.doRequest(ctx, http.MethodPost, u, map[string]any{"structuredQuery": structured})
		if err != nil {
			return err
		}
		if body == nil {
			return nil
		}

		// runQuery returns a JSON array of result envelopes; entries without
		// a document are progress markers and are skipped.
		var results []struct {
			Document *firestoreDoc `json:"document"`
		}
		if err := json.Unmarshal(body, &results); err != nil {
			return fmt.Errorf("decode query results: %w", err)
		}
		for _, r := range results {
			if r.Document == nil {
				continue
			}
			if err := decode(r.Document.Fields); err != nil {
				return err
			}
		}
		return nil
	})
}

// buildWhere assembles the where clause for a set of filters: a single
// fieldFilter, or a compositeFilter AND over several.
func buildWhere(filters []queryFilter) (map[string]any, error) {
	if len(filters) == 0 {
		return nil, nil
	}

	clauses := make([]map[string]any, 0, len(filters))
	for _, f := range filters {
		val, err := encodeValue(f.Value)
		if err != nil {
			return nil, fmt.Errorf("encode filter value for %s: %w", f.Field, err)
		}
		clauses = append(clauses, map[string]any{
			"fieldFilter": map[string]any{
				"field": map[string]any{"fieldPath": f.Field},
				"op":    f.Op,
				"value": val,
			},
		})
	}

	if len(clauses) == 1 {
		return clauses[0], nil
	}
	return map[string]any{
		"compositeFilter": map[string]any{
			"op":      "AND",
			"filters": clauses,
		},
	}, nil
}

// execute wraps an operation in the bulkhead, the shared circuit breaker and
// the retry policy.
func (c *Client) execute(ctx context.Context, fn func() error) error {
	if err := c.bulkhead.Acquire(ctx); err != nil {
		return err
	}
	defer c.bulkhead.Release()

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, fn)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return &domain.ErrCircuitOpen{Service: "firestore"}
	}
	return err
}
