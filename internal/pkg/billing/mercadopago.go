package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/flowdeskhq/flowdesk/internal/pkg/env"
)

const defaultMercadoPagoAPIBaseURL = "https://api.mercadopago.com"

// MercadoPagoClient talks to the Mercado Pago preapproval API. There is no
// official Go SDK, so this is a thin net/http client.
type MercadoPagoClient struct {
	AccessToken string
	APIBaseURL  string
	BackURL     string

	HTTPClient *http.Client
}

// Preapproval is the provider's recurring-billing agreement object, reduced
// to the fields the reconciliation logic reads.
type Preapproval struct {
	ID                string     `json:"id"`
	PreapprovalPlanID string     `json:"preapproval_plan_id"`
	Status            string     `json:"status"`
	ExternalReference string     `json:"external_reference"`
	PayerID           int64      `json:"payer_id"`
	PayerEmail        string     `json:"payer_email"`
	Reason            string     `json:"reason"`
	InitPoint         string     `json:"init_point"`
	DateCreated       *time.Time `json:"date_created"`
	LastModified      *time.Time `json:"last_modified"`
	NextPaymentDate   *time.Time `json:"next_payment_date"`
}

func NewMercadoPagoClientFromEnv() *MercadoPagoClient {
	return &MercadoPagoClient{
		AccessToken: strings.TrimSpace(env.GetEnv("MERCADOPAGO_ACCESS_TOKEN", "")),
		APIBaseURL:  strings.TrimRight(env.GetEnv("MERCADOPAGO_API_BASE_URL", defaultMercadoPagoAPIBaseURL), "/"),
		BackURL:     strings.TrimSpace(env.GetEnv("MERCADOPAGO_BACK_URL", "")),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

func (c *MercadoPagoClient) Name() string { return "mercadopago" }

func (c *MercadoPagoClient) TranslateStatus(providerStatus string) string {
	return MercadoPagoStatusToBillingStatus(providerStatus)
}

// CreateCheckout opens a preapproval for the given plan. The checkout URL is
// the preapproval's init_point.
func (c *MercadoPagoClient) CreateCheckout(ctx context.Context, in CheckoutInput) (*CheckoutSession, error) {
	backURL := strings.TrimSpace(in.SuccessURL)
	if backURL == "" {
		backURL = c.BackURL
	}
	payload := map[string]interface{}{
		"preapproval_plan_id": in.PlanID,
		"external_reference":  in.ExternalReference,
		"payer_email":         in.PayerEmail,
		"back_url":            backURL,
	}

	var pre Preapproval
	if err := c.doJSON(ctx, http.MethodPost, "/preapproval", payload, &pre); err != nil {
		return nil, err
	}
	if strings.TrimSpace(pre.InitPoint) == "" {
		return nil, errors.New("mercadopago preapproval returned no init_point")
	}
	return &CheckoutSession{SessionID: pre.ID, URL: pre.InitPoint}, nil
}

// GetSubscription fetches a preapproval by ID. This is the authoritative
// read the webhook and sync paths rely on; webhook body fields are never
// trusted for financial state.
func (c *MercadoPagoClient) GetSubscription(ctx context.Context, externalID string) (*ProviderSubscription, error) {
	id := strings.TrimSpace(externalID)
	if id == "" {
		return nil, errors.New("preapproval id is required")
	}

	body, err := c.doRaw(ctx, http.MethodGet, "/preapproval/"+id, nil)
	if err != nil {
		return nil, err
	}

	var pre Preapproval
	if err := json.Unmarshal(body, &pre); err != nil {
		return nil, fmt.Errorf("mercadopago preapproval decode failed: %w", err)
	}

	return &ProviderSubscription{
		ExternalID:        pre.ID,
		PlanID:            pre.PreapprovalPlanID,
		Status:            pre.Status,
		ExternalReference: strings.TrimSpace(pre.ExternalReference),
		ExternalAccountID: fmt.Sprintf("%d", pre.PayerID),
		// Mercado Pago reports no explicit period bounds; the last
		// modification opens the cycle and the next charge closes it.
		CurrentPeriodStart: pre.LastModified,
		CurrentPeriodEnd:   pre.NextPaymentDate,
		CancelAtPeriodEnd:  false,
		RawJSON:            string(body),
	}, nil
}

// CancelSubscription asks Mercado Pago to move the preapproval to cancelled.
func (c *MercadoPagoClient) CancelSubscription(ctx context.Context, externalID string) error {
	id := strings.TrimSpace(externalID)
	if id == "" {
		return errors.New("preapproval id is required")
	}
	return c.doJSON(ctx, http.MethodPut, "/preapproval/"+id, map[string]interface{}{"status": "cancelled"}, nil)
}

func (c *MercadoPagoClient) doJSON(ctx context.Context, method, path string, payload, out interface{}) error {
	body, err := c.doRaw(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(body, out)
}

func (c *MercadoPagoClient) doRaw(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	if strings.TrimSpace(c.AccessToken) == "" {
		return nil, errors.New("MERCADOPAGO_ACCESS_TOKEN is not configured")
	}

	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIBaseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("mercadopago %s %s failed: status=%d body=%s", method, path, resp.StatusCode, string(body))
	}
	return body, nil
}

// MercadoPagoNotification is what could be extracted from an incoming
// webhook request, across the several shapes the provider sends.
type MercadoPagoNotification struct {
	Topic      string
	ResourceID string
}

// ExtractMercadoPagoNotification pulls topic and resource ID out of a
// webhook request. The provider delivers several shapes over time: query
// parameters (?topic=..&id=..), a JSON body with type/data.id, or a legacy
// body with topic/resource. An empty or non-JSON body is tolerated; callers
// must treat a missing resource ID as "acknowledge and ignore".
func ExtractMercadoPagoNotification(queryTopic, queryType, queryID, queryDataID string, body []byte) MercadoPagoNotification {
	n := MercadoPagoNotification{}

	n.Topic = strings.TrimSpace(queryTopic)
	if n.Topic == "" {
		n.Topic = strings.TrimSpace(queryType)
	}
	n.ResourceID = strings.TrimSpace(queryDataID)
	if n.ResourceID == "" {
		n.ResourceID = strings.TrimSpace(queryID)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		return n
	}

	var payload struct {
		Type   string `json:"type"`
		Topic  string `json:"topic"`
		Action string `json:"action"`
		ID     string `json:"id"`
		Data   struct {
			ID string `json:"id"`
		} `json:"data"`
		Resource string `json:"resource"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		// Non-JSON bodies are acknowledged, not rejected: the provider
		// retries on errors and there is nothing here to process.
		return n
	}

	if n.Topic == "" {
		n.Topic = strings.TrimSpace(payload.Type)
	}
	if n.Topic == "" {
		n.Topic = strings.TrimSpace(payload.Topic)
	}
	if n.Topic == "" && payload.Action != "" {
		// action comes as "subscription_preapproval.updated" and similar
		n.Topic = strings.SplitN(strings.TrimSpace(payload.Action), ".", 2)[0]
	}

	if n.ResourceID == "" {
		n.ResourceID = strings.TrimSpace(payload.Data.ID)
	}
	if n.ResourceID == "" {
		n.ResourceID = strings.TrimSpace(payload.ID)
	}
	if n.ResourceID == "" && payload.Resource != "" {
		// legacy shape: resource is a URL ending in the ID
		parts := strings.Split(strings.TrimRight(strings.TrimSpace(payload.Resource), "/"), "/")
		n.ResourceID = parts[len(parts)-1]
	}
	return n
}
