package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const testPool = "abababababababababababababababababababababababababababababababab"

func fakeHorizon(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/liquidity_pools/"+testPool, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "` + testPool + `",
			"total_shares": "1000.0000000",
			"reserves": [
				{"asset": "native", "amount": "1000.0000000"},
				{"asset": "USDC:GISSUER", "amount": "2000.0000000"}
			]
		}`))
	})
	mux.HandleFunc("/accounts/GACC", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "GACC",
			"balances": [
				{"asset_type": "liquidity_pool_shares", "liquidity_pool_id": "` + testPool + `", "balance": "50.0000000"}
			]
		}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) ([]byte, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.Bytes(), err
}

func TestQuoteDeposit(t *testing.T) {
	srv := fakeHorizon(t)
	out, err := execute(t, "quote", "deposit", "--horizon-url", srv.URL, "--pool", testPool, "--amount-a", "50", "--log-level", "error")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	var got struct {
		Deposit struct {
			AmountA   string `json:"amount_a"`
			AmountB   string `json:"amount_b"`
			FullRange bool   `json:"full_range"`
		} `json:"deposit"`
	}
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("decode output %s: %v", out, err)
	}
	if got.Deposit.AmountA != "50" || got.Deposit.AmountB != "100" || !got.Deposit.FullRange {
		t.Fatalf("unexpected deposit quote: %+v", got.Deposit)
	}
}

func TestQuoteWithdraw(t *testing.T) {
	srv := fakeHorizon(t)
	out, err := execute(t, "quote", "withdraw", "--horizon-url", srv.URL, "--pool", testPool, "--account", "GACC", "--log-level", "error")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	var got struct {
		Withdraw struct {
			EstimatedA string `json:"estimated_a"`
			MinAmountA string `json:"min_amount_a"`
			MinAmountB string `json:"min_amount_b"`
		} `json:"withdraw"`
	}
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("decode output %s: %v", out, err)
	}
	if got.Withdraw.EstimatedA != "50" || got.Withdraw.MinAmountA != "49.75" || got.Withdraw.MinAmountB != "99.5" {
		t.Fatalf("unexpected withdraw quote: %+v", got.Withdraw)
	}
}

func TestActionClaimDryRun(t *testing.T) {
	srv := fakeHorizon(t)
	out, err := execute(t, "action", "claim", "--dry-run", "--horizon-url", srv.URL, "--pool", testPool, "--account", "GACC", "--log-level", "error")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}

	var got struct {
		Status     string `json:"status"`
		Operations []struct {
			Type string `json:"type"`
		} `json:"operations"`
	}
	if err := json.Unmarshal(out, &got); err != nil {
		t.Fatalf("decode output %s: %v", out, err)
	}
	if got.Status != "building" {
		t.Fatalf("expected building status, got %s", got.Status)
	}
	if len(got.Operations) != 2 || got.Operations[0].Type != "liquidity_pool_withdraw" || got.Operations[1].Type != "liquidity_pool_deposit" {
		t.Fatalf("unexpected operations: %+v", got.Operations)
	}
}

func TestActionRequiresAccount(t *testing.T) {
	srv := fakeHorizon(t)
	_, err := execute(t, "action", "withdraw", "--dry-run", "--horizon-url", srv.URL, "--pool", testPool, "--log-level", "error")
	if err == nil || !strings.Contains(err.Error(), "account is required") {
		t.Fatalf("expected account error, got %v", err)
	}
}

func TestQuoteWithdrawRejectsZeroPercent(t *testing.T) {
	srv := fakeHorizon(t)
	_, err := execute(t, "quote", "withdraw", "--horizon-url", srv.URL, "--pool", testPool, "--account", "GACC", "--percent", "0", "--log-level", "error")
	if err == nil || !strings.Contains(err.Error(), "(0, 100]") {
		t.Fatalf("expected percent range error, got %v", err)
	}

	for _, c := range newQuoteCmd().Commands() {
		if f := c.Flags().Lookup("percent"); f != nil && !strings.Contains(f.Usage, "(0, 100]") {
			t.Fatalf("percent usage %q does not match the accepted range", f.Usage)
		}
	}
}

func TestWatchHelpDescribesLatestSnapshot(t *testing.T) {
	if short := newWatchCmd().Short; !strings.Contains(short, "latest") {
		t.Fatalf("unexpected watch summary %q", short)
	}
}
