package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"CryptoScorer/internal/model"
)

func TestDescribeOrder(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC).UnixMilli()
	tests := []struct {
		action model.OrderAction
		want   string
	}{
		{model.ActionBuy, "Bought 0.0125 BTC-USD @ 64000.5 (0.5) [2024-01-02 03:04:05]"},
		{model.ActionSell, "Sold 0.0125 BTC-USD @ 64000.5 (0.5) [2024-01-02 03:04:05]"},
	}
	for _, tt := range tests {
		if got := DescribeOrder(tt.action, 0.0125, "BTC-USD", 64000.5, 0.5, ts); got != tt.want {
			t.Errorf("DescribeOrder(%s) = %q, want %q", tt.action, got, tt.want)
		}
	}
}

func TestFormatSignal(t *testing.T) {
	sig := &model.Signal{
		Timestamp: 0,
		Price:     100,
		Score:     0,
		Factors: []model.FactorScore{
			{Name: "emaScore", RawScore: 1, Weight: 0.5, Weighted: 0.5},
			{Name: "candleTypeScore", RawScore: -1, Weight: 0.5, Weighted: -0.5},
		},
	}
	msg := FormatSignal("BTC-USD", sig)
	for _, want := range []string{"emaScore: +1.000", "candleTypeScore: -1.000", "Composite: +0.00 (hold)"} {
		if !strings.Contains(msg, want) {
			t.Errorf("FormatSignal missing %q in:\n%s", want, msg)
		}
	}
}

func TestFormatBalance(t *testing.T) {
	msg := FormatBalance(&model.Balance{BaseBalance: 0.5, QuoteBalance: 100, TotalValue: 10100.5, ValueCurrency: "USD"}, "BTC", "USD")
	if !strings.Contains(msg, "BTC: 0.5") || !strings.Contains(msg, "Total: 10100.50 USD") {
		t.Errorf("unexpected balance message:\n%s", msg)
	}
}

func TestTelegramSendWithRetry(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	var lastText string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if r.URL.Path != "/bottoken/sendMessage" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if calls == 1 {
			http.Error(w, "busy", http.StatusTooManyRequests)
			return
		}
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		lastText = payload["text"]
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "")
	n.APIBase = srv.URL
	if err := n.SendWithRetry(context.Background(), "hello", 1); err != nil {
		t.Fatalf("SendWithRetry: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if calls != 2 || lastText != "hello" {
		t.Errorf("calls = %d, text = %q", calls, lastText)
	}
}

func TestTelegramSendFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad", http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "")
	n.APIBase = srv.URL
	if err := n.SendWithRetry(context.Background(), "x", 0); err == nil {
		t.Error("expected error")
	}
}

func TestStartPolling(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	replies := make(chan string, 1)
	var mu sync.Mutex
	served := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/getUpdates"):
			mu.Lock()
			first := !served
			served = true
			mu.Unlock()
			if first {
				w.Write([]byte(`{"ok":true,"result":[{"update_id":7,"message":{"text":" /help ","chat":{"id":42}}}]}`))
				return
			}
			w.Write([]byte(`{"ok":true,"result":[]}`))
		case strings.HasSuffix(r.URL.Path, "/sendMessage"):
			var payload map[string]string
			json.NewDecoder(r.Body).Decode(&payload)
			select {
			case replies <- payload["text"]:
			default:
			}
			w.Write([]byte(`{"ok":true}`))
		}
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "")
	n.APIBase = srv.URL
	n.PollTimeout = 1

	done := make(chan struct{})
	go func() {
		n.StartPolling(ctx, func(cmd string) string {
			if cmd == "/help" {
				return HelpText
			}
			return ""
		})
		close(done)
	}()

	select {
	case got := <-replies:
		if got != HelpText {
			t.Errorf("reply = %q", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reply received")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("polling did not stop")
	}
}

func TestDispatchFiltersChatAndText(t *testing.T) {
	var sent []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]string
		json.NewDecoder(r.Body).Decode(&payload)
		sent = append(sent, payload["text"])
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "")
	n.APIBase = srv.URL

	msg := func(id int, chat int64, text string) chatUpdate {
		u := chatUpdate{UpdateID: id, Message: &chatMessage{Text: text}}
		u.Message.Chat.ID = chat
		return u
	}
	updates := []chatUpdate{
		msg(10, 99, "/score"),
		msg(11, 42, "hello"),
		{UpdateID: 12},
		msg(13, 42, " /balance "),
	}

	var handled []string
	next := n.dispatch(updates, 5, func(cmd string) string {
		handled = append(handled, cmd)
		return "ok " + cmd
	})

	if next != 14 {
		t.Errorf("next offset = %d, want 14", next)
	}
	if len(handled) != 1 || handled[0] != "/balance" {
		t.Errorf("handled = %v, want [/balance]", handled)
	}
	if len(sent) != 1 || sent[0] != "ok /balance" {
		t.Errorf("sent = %v", sent)
	}
}

func TestFetchUpdatesRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"ok":false,"description":"Conflict: terminated by other getUpdates request"}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier("token", "42", "")
	n.APIBase = srv.URL
	_, err := n.fetchUpdates(context.Background(), srv.Client(), 0)
	if !errors.Is(err, errUpdatesRejected) {
		t.Fatalf("err = %v, want errUpdatesRejected", err)
	}
}
