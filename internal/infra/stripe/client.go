// Package stripe provides a client for the payment processor's REST API,
// reduced to the payment-intent surface this service uses.
package stripe

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

	"github.com/colespa/colespa-api/internal/domain"
	"github.com/colespa/colespa-api/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("stripe")

const baseURL = "https://api.stripe.com/v1"

// Client wraps form-encoded HTTP calls to the processor's API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	logger     *zap.Logger
}

func NewClient(httpClient *http.Client, secretKey string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		secretKey:  secretKey,
		cb:         cb,
		cfg:        cfg,
		logger:     logger,
	}
}

// intentWire is the processor's intent object, reduced to what we read.
type intentWire struct {
	ID               string            `json:"id"`
	ClientSecret     string            `json:"client_secret"`
	Amount           int64             `json:"amount"`
	Currency         string            `json:"currency"`
	Status           string            `json:"status"`
	ReceiptEmail     string            `json:"receipt_email"`
	Customer         string            `json:"customer"`
	Created          int64             `json:"created"`
	Metadata         map[string]string `json:"metadata"`
	LastPaymentError *struct {
		Message string `json:"message"`
	} `json:"last_payment_error"`
}

func (w *intentWire) toDomain() *domain.PaymentIntent {
	pi := &domain.PaymentIntent{
		ID:           w.ID,
		ClientSecret: w.ClientSecret,
		Amount:       w.Amount,
		Currency:     w.Currency,
		Status:       w.Status,
		CustomerID:   w.Customer,
		ReceiptEmail: w.ReceiptEmail,
		CatalogID:    w.Metadata["catalog_id"],
		CreatedAt:    time.Unix(w.Created, 0).UTC(),
	}
	if w.LastPaymentError != nil {
		pi.FailureReason = w.LastPaymentError.Message
	}
	return pi
}

// CreateIntent opens a payment intent. amount is in whole euros; the wire
// format wants minor units, so it is multiplied by 100 here and nowhere else.
func (c *Client) CreateIntent(ctx context.Context, amount int64, currency, receiptEmail, catalogID string) (*domain.PaymentIntent, error) {
	ctx, span := tracer.Start(ctx, "Stripe.CreateIntent")
	defer span.End()
	span.SetAttributes(attribute.Int64("amount", amount), attribute.String("catalog_id", catalogID))

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount*100, 10))
	form.Set("currency", currency)
	form.Set("automatic_payment_methods[enabled]", "true")
	if receiptEmail != "" {
		form.Set("receipt_email", receiptEmail)
	}
	if catalogID != "" {
		form.Set("metadata[catalog_id]", catalogID)
	}

	var wire intentWire
	if err := c.doForm(ctx, http.MethodPost, "/payment_intents", form, &wire); err != nil {
		return nil, &domain.ErrExternalService{Service: "stripe", Err: err}
	}
	c.logger.Info("payment intent created",
		zap.String("intent_id", wire.ID),
		zap.Int64("amount_cents", wire.Amount),
	)
	return wire.toDomain(), nil
}

// GetIntent reads an intent back, including its terminal status and failure
// reason.
func (c *Client) GetIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	ctx, span := tracer.Start(ctx, "Stripe.GetIntent")
	defer span.End()
	span.SetAttributes(attribute.String("intent_id", id))

	if id == "" {
		return nil, &domain.ErrValidation{Field: "payment_intent_id", Message: "el identificador de pago es obligatorio"}
	}
	var wire intentWire
	if err := c.doForm(ctx, http.MethodGet, "/payment_intents/"+url.PathEscape(id), nil, &wire); err != nil {
		return nil, &domain.ErrExternalService{Service: "stripe", Err: err}
	}
	if wire.ID == "" {
		return nil, &domain.ErrNotFound{Resource: "payment_intent", ID: id}
	}
	return wire.toDomain(), nil
}

// ListRecentIntents pages through intents created after since, newest first.
// Used only by the reconciliation scan.
func (c *Client) ListRecentIntents(ctx context.Context, since time.Time, limit int) ([]domain.PaymentIntent, error) {
	ctx, span := tracer.Start(ctx, "Stripe.ListRecentIntents")
	defer span.End()

	if limit <= 0 || limit > 100 {
		limit = 100
	}
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("created[gte]", strconv.FormatInt(since.Unix(), 10))

	var page struct {
		Data []intentWire `json:"data"`
	}
	if err := c.doForm(ctx, http.MethodGet, "/payment_intents?"+q.Encode(), nil, &page); err != nil {
		return nil, &domain.ErrExternalService{Service: "stripe", Err: err}
	}

	intents := make([]domain.PaymentIntent, 0, len(page.Data))
	for _, w := range page.Data {
		intents = append(intents, *w.toDomain())
	}
	return intents, nil
}

// apiError is the processor's error envelope.
type apiError struct {
	Error struct {
		Type    string `json:"type"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// doForm executes one authenticated call with the shared breaker and retry
// policy. form is sent url-encoded in the body for POST and ignored for GET.
func (c *Client) doForm(ctx context.Context, method, path string, form url.Values, out any) error {
	operation := func() error {
		var body io.Reader
		if method == http.MethodPost {
			body = strings.NewReader(form.Encode())
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
		if err != nil {
			return fmt.Errorf("building request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.secretKey)
		if method == http.MethodPost {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("executing request: %w", err)
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}
		if resp.StatusCode >= 400 {
			var envelope apiError
			if json.Unmarshal(raw, &envelope) == nil && envelope.Error.Message != "" {
				return fmt.Errorf("stripe returned %d: %s (%s)", resp.StatusCode, envelope.Error.Message, envelope.Error.Code)
			}
			return fmt.Errorf("stripe returned status %d", resp.StatusCode)
		}
		if out != nil {
			if err := json.Unmarshal(raw, out); err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}
		}
		return nil
	}

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, operation)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return &domain.ErrCircuitOpen{Service: "stripe"}
	}
	return err
}
