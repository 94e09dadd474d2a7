package paystack

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/herdpool/herdpool/internal/domain"
)

func TestInitialize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/transaction/initialize" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk_test_x" {
			t.Errorf("missing authorization header")
		}

		var req initializeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Amount != 250000 {
			t.Errorf("expected 250000 kobo, got %d", req.Amount)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"authorization_url": "https://checkout.paystack.com/abc",
				"reference":         "ps_ref_1",
			},
		})
	}))
	defer srv.Close()

	client := NewClient("sk_test_x", WithBaseURL(srv.URL))

	checkout, err := client.Initialize(context.Background(), "buyer@farm.ng", decimal.NewFromInt(2500), "https://herdpool.ng/callback")
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	if checkout.Reference != "ps_ref_1" {
		t.Errorf("expected reference ps_ref_1, got %s", checkout.Reference)
	}
	if checkout.RedirectURL != "https://checkout.paystack.com/abc" {
		t.Errorf("unexpected redirect url %s", checkout.RedirectURL)
	}
}

func TestVerify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transaction/verify/ps_ref_1" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data": map[string]any{
				"status": "success",
				"amount": 250000,
				"customer": map[string]any{
					"email": "buyer@farm.ng",
				},
			},
		})
	}))
	defer srv.Close()

	client := NewClient("sk_test_x", WithBaseURL(srv.URL))

	verification, err := client.Verify(context.Background(), "ps_ref_1")
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}

	if verification.Status != "success" {
		t.Errorf("expected success, got %s", verification.Status)
	}
	if !verification.Amount.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("expected 2500 naira, got %s", verification.Amount)
	}
	if verification.PayerEmail != "buyer@farm.ng" {
		t.Errorf("unexpected payer email %s", verification.PayerEmail)
	}
}

func TestVerifyRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": true,
			"data":   map[string]any{"status": "success", "amount": 100},
		})
	}))
	defer srv.Close()

	client := NewClient("sk_test_x", WithBaseURL(srv.URL))

	if _, err := client.Verify(context.Background(), "ref"); err != nil {
		t.Fatalf("expected retry to recover, got %v", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestVerifyClientErrorIsPermanent(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient("sk_test_x", WithBaseURL(srv.URL))

	_, err := client.Verify(context.Background(), "no-such-ref")
	if !errors.Is(err, domain.ErrVerificationFailed) {
		t.Fatalf("expected verification failure, got %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected no retries on 404, got %d attempts", calls.Load())
	}
}

func TestInitializeGatewayDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	srv.Close()

	client := NewClient("sk_test_x", WithBaseURL(srv.URL))
	client.httpClient.Timeout = 0

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Initialize(ctx, "buyer@farm.ng", decimal.NewFromInt(1), "")
	if err == nil {
		t.Fatalf("expected error against closed gateway")
	}
}
