package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flowdeskhq/flowdesk/app/models"
)

func TestExtractMercadoPagoNotification(t *testing.T) {
	tests := []struct {
		name      string
		topic     string
		typ       string
		id        string
		dataID    string
		body      string
		wantTopic string
		wantResID string
	}{
		{
			name:      "query params only",
			topic:     "preapproval",
			id:        "2c938084",
			wantTopic: "preapproval",
			wantResID: "2c938084",
		},
		{
			name:      "data.id query param wins over id",
			typ:       "subscription_preapproval",
			id:        "ignored",
			dataID:    "res-1",
			wantTopic: "subscription_preapproval",
			wantResID: "res-1",
		},
		{
			name:      "json body type and data.id",
			body:      `{"type":"subscription_preapproval","data":{"id":"res-2"}}`,
			wantTopic: "subscription_preapproval",
			wantResID: "res-2",
		},
		{
			name:      "legacy topic and id body",
			body:      `{"topic":"preapproval","id":"res-3"}`,
			wantTopic: "preapproval",
			wantResID: "res-3",
		},
		{
			name:      "action shape",
			body:      `{"action":"subscription_preapproval.updated","data":{"id":"res-4"}}`,
			wantTopic: "subscription_preapproval",
			wantResID: "res-4",
		},
		{
			name:      "legacy resource URL",
			body:      `{"topic":"preapproval","resource":"https://api.mercadopago.com/preapproval/res-5"}`,
			wantTopic: "preapproval",
			wantResID: "res-5",
		},
		{
			name:      "empty body and no params",
			wantTopic: "",
			wantResID: "",
		},
		{
			name:      "non-json body is tolerated",
			body:      "not json at all",
			wantTopic: "",
			wantResID: "",
		},
		{
			name:      "query params beat body",
			topic:     "preapproval",
			dataID:    "from-query",
			body:      `{"type":"payment","data":{"id":"from-body"}}`,
			wantTopic: "preapproval",
			wantResID: "from-query",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := ExtractMercadoPagoNotification(tt.topic, tt.typ, tt.id, tt.dataID, []byte(tt.body))
			if n.Topic != tt.wantTopic {
				t.Fatalf("topic = %q, want %q", n.Topic, tt.wantTopic)
			}
			if n.ResourceID != tt.wantResID {
				t.Fatalf("resource id = %q, want %q", n.ResourceID, tt.wantResID)
			}
		})
	}
}

func TestMercadoPagoClient_GetSubscription(t *testing.T) {
	next := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/preapproval/pre-1" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer token-1" {
			t.Fatalf("missing bearer auth, got %q", r.Header.Get("Authorization"))
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":                  "pre-1",
			"preapproval_plan_id": "price_pro_m",
			"status":              "authorized",
			"external_reference":  "user-uuid-1234",
			"payer_id":            987,
			"next_payment_date":   next.Format(time.RFC3339),
		})
	}))
	defer server.Close()

	client := &MercadoPagoClient{
		AccessToken: "token-1",
		APIBaseURL:  server.URL,
		HTTPClient:  server.Client(),
	}

	sub, err := client.GetSubscription(context.Background(), "pre-1")
	if err != nil {
		t.Fatalf("GetSubscription returned error: %v", err)
	}
	if sub.ExternalID != "pre-1" {
		t.Fatalf("external id = %q", sub.ExternalID)
	}
	if sub.PlanID != "price_pro_m" {
		t.Fatalf("plan id = %q", sub.PlanID)
	}
	if sub.Status != "authorized" {
		t.Fatalf("status = %q", sub.Status)
	}
	if sub.ExternalReference != "user-uuid-1234" {
		t.Fatalf("external reference = %q", sub.ExternalReference)
	}
	if sub.CurrentPeriodEnd == nil || !sub.CurrentPeriodEnd.Equal(next) {
		t.Fatalf("current period end = %v, want %v", sub.CurrentPeriodEnd, next)
	}
}

func TestMercadoPagoClient_GetSubscriptionErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := &MercadoPagoClient{
		AccessToken: "token-1",
		APIBaseURL:  server.URL,
		HTTPClient:  server.Client(),
	}

	if _, err := client.GetSubscription(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for non-2xx response")
	}
}

func TestMercadoPagoClient_CancelSubscription(t *testing.T) {
	var gotStatus string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Fatalf("method = %s, want PUT", r.Method)
		}
		var payload map[string]string
		_ = json.NewDecoder(r.Body).Decode(&payload)
		gotStatus = payload["status"]
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "pre-1", "status": "cancelled"})
	}))
	defer server.Close()

	client := &MercadoPagoClient{
		AccessToken: "token-1",
		APIBaseURL:  server.URL,
		HTTPClient:  server.Client(),
	}

	if err := client.CancelSubscription(context.Background(), "pre-1"); err != nil {
		t.Fatalf("CancelSubscription returned error: %v", err)
	}
	if gotStatus != "cancelled" {
		t.Fatalf("sent status = %q, want cancelled", gotStatus)
	}
}

func TestMercadoPagoTranslateStatusMatchesTable(t *testing.T) {
	client := &MercadoPagoClient{}
	if client.TranslateStatus("authorized") != models.BillingStatusActive {
		t.Fatal("authorized must map to active")
	}
	if client.TranslateStatus("pending") != models.BillingStatusIncomplete {
		t.Fatal("pending must map to incomplete")
	}
}
