package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func runCLI(t *testing.T, srv *httptest.Server, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--url", srv.URL}, args...))

	err := cmd.Execute()
	return out.String(), err
}

func TestTruncate(t *testing.T) {
	if got := truncate("short", 10); got != "short" {
		t.Fatalf("expected short unchanged, got %q", got)
	}

	if got := truncate("longerstring", 6); got != "lon..." {
		t.Fatalf("expected lon..., got %q", got)
	}

	if got := truncate("김밥천국김밥천국", 5); got != "김밥..." {
		t.Fatalf("expected rune-aware truncation, got %q", got)
	}
}

func TestParseItem(t *testing.T) {
	tests := []struct {
		raw   string
		label string
		price string
	}{
		{raw: "비빔밥=8500", label: "비빔밥", price: "8500"},
		{raw: " 탕수육 (대) = 25000 ", label: "탕수육 (대)", price: "25000"},
		{raw: "a=b=100", label: "a=b", price: "100"},
		{raw: "짜장면", label: "짜장면", price: ""},
	}

	for _, tt := range tests {
		label, price := parseItem(tt.raw)
		if label != tt.label || price != tt.price {
			t.Fatalf("parseItem(%q) = %q, %q; want %q, %q", tt.raw, label, price, tt.label, tt.price)
		}
	}
}

func TestPrintJSON(t *testing.T) {
	var out bytes.Buffer
	if err := printJSON(&out, []byte(`{"a":1}`)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := "{\n  \"a\": 1\n}\n"
	if out.String() != expected {
		t.Fatalf("unexpected json output:\n%s", out.String())
	}
}

func TestRestaurantsCmd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/restaurants" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"restaurants":[{"id":1,"name":"한식당","category":"한식","member_count":3,"pool_amount":-2000}],"total":1}`))
	}))
	defer srv.Close()

	out, err := runCLI(t, srv, "restaurants")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if !strings.Contains(out, "한식당") || !strings.Contains(out, "-2000") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestDepositCmd_SendsRosterAndItems(t *testing.T) {
	var got struct {
		Participants []string            `json:"participants"`
		Items        []map[string]string `json:"items"`
	}
	var idempotencyKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/restaurants/4/deposits" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		idempotencyKey = r.Header.Get("Idempotency-Key")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"entry":{"id":"01J","display_name":"A, B","spend_amount":30000,"contribution":-10000,"kind":"DEPOSIT"},"current_pool":-10000}`))
	}))
	defer srv.Close()

	out, err := runCLI(t, srv,
		"--idempotency-key", "k1",
		"deposit", "4",
		"--participant", "A", "--participant", "B",
		"--item", "짜장면", "--item", "탕수육 (대)=25000",
	)
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}

	if strings.Join(got.Participants, ",") != "A,B" {
		t.Fatalf("expected participants in order, got %v", got.Participants)
	}
	if len(got.Items) != 2 {
		t.Fatalf("expected 2 items, got %v", got.Items)
	}
	if _, ok := got.Items[0]["price"]; ok {
		t.Fatalf("bare label should not carry a price, got %v", got.Items[0])
	}
	if got.Items[1]["label"] != "탕수육 (대)" || got.Items[1]["price"] != "25000" {
		t.Fatalf("unexpected second item %v", got.Items[1])
	}
	if idempotencyKey != "k1" {
		t.Fatalf("expected idempotency key k1, got %q", idempotencyKey)
	}
	if !strings.Contains(out, "Pool: -10000") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestWithdrawCmd_ReportsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"store_unavailable","message":"persistence failure","retryable":true}`))
	}))
	defer srv.Close()

	_, err := runCLI(t, srv, "withdraw", "1", "--participant", "A", "--amount", "5000")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "store_unavailable") || !strings.Contains(err.Error(), "retryable") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReviseCmd(t *testing.T) {
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPatch || r.URL.Path != "/api/v1/restaurants/2/entries/01ABC" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_, _ = w.Write([]byte(`{"entry":{"id":"01ABC","kind":"DEPOSIT"},"current_pool":null}`))
	}))
	defer srv.Close()

	out, err := runCLI(t, srv, "revise", "2", "01ABC", "--amount", "9000")
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if body["spend_amount"] != "9000" {
		t.Fatalf("expected spend_amount 9000, got %v", body)
	}
	if !strings.Contains(out, "Pool: unavailable") {
		t.Fatalf("unexpected output:\n%s", out)
	}
}

func TestConsistencyCmd(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr bool
		want    string
	}{
		{
			name:    "consistent",
			body:    `{"results":[{"restaurant_id":1,"stored_sum":500,"aggregated_pool":500,"difference":0,"is_consistent":true}],"is_consistent":true}`,
			wantErr: false,
			want:    "PASSED",
		},
		{
			name:    "mismatch",
			body:    `{"results":[{"restaurant_id":1,"stored_sum":500,"aggregated_pool":300,"difference":200,"is_consistent":false}],"is_consistent":false}`,
			wantErr: true,
			want:    "MISMATCH",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			out, err := runCLI(t, srv, "ledger", "consistency")
			if (err != nil) != tt.wantErr {
				t.Fatalf("wantErr %v, got %v", tt.wantErr, err)
			}
			if !strings.Contains(out, tt.want) {
				t.Fatalf("expected %q in output:\n%s", tt.want, out)
			}
		})
	}
}
