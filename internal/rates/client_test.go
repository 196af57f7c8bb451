package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const ratesPayload = `{
	"result": "success",
	"time_last_update_unix": 1717200000,
	"rates": {
		"EUR": 1,
		"USD": 1.08,
		"GBP": 0.85,
		"JPY": 169.5
	}
}`

func testServer(t *testing.T, hits *int64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(ratesPayload))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestConvert_RebasesThroughEUR(t *testing.T) {
	var hits int64
	srv := testServer(t, &hits)
	client := NewClient(srv.URL, time.Second)

	tests := []struct {
		name   string
		amount string
		from   string
		to     string
		want   string
	}{
		{"eur to usd", "100", "EUR", "USD", "108"},
		{"usd to eur", "108", "USD", "EUR", "100"},
		{"cross rate gbp to jpy", "0.85", "GBP", "JPY", "169.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := client.Convert(context.Background(),
				decimal.RequireFromString(tt.amount), tt.from, tt.to, time.Now())
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Convert() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestConvert_CachesTable(t *testing.T) {
	var hits int64
	srv := testServer(t, &hits)
	client := NewClient(srv.URL, time.Second)

	for i := 0; i < 5; i++ {
		if _, err := client.Convert(context.Background(), decimal.New(1, 0), "EUR", "USD", time.Now()); err != nil {
			t.Fatalf("Convert() error = %v", err)
		}
	}
	if hits != 1 {
		t.Errorf("API hit %d times, want 1", hits)
	}
}

func TestConvert_SameCurrencySkipsFetch(t *testing.T) {
	var hits int64
	srv := testServer(t, &hits)
	client := NewClient(srv.URL, time.Second)

	got, err := client.Convert(context.Background(), decimal.New(42, 0), "EUR", "EUR", time.Now())
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if got.String() != "42" || hits != 0 {
		t.Errorf("Convert() = %s with %d fetches, want 42 with 0", got, hits)
	}
}

func TestConvert_UnknownCurrency(t *testing.T) {
	var hits int64
	srv := testServer(t, &hits)
	client := NewClient(srv.URL, time.Second)

	if _, err := client.Convert(context.Background(), decimal.New(1, 0), "EUR", "XXX", time.Now()); err == nil {
		t.Error("expected error for unknown currency")
	}
}

func TestConvert_ServerFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()
	client := NewClient(srv.URL, time.Second)

	if _, err := client.Convert(context.Background(), decimal.New(1, 0), "EUR", "USD", time.Now()); err == nil {
		t.Error("expected error for upstream failure")
	}
}
