package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/clipforge/backend/internal/config"
)

func TestNewSenderFallsBackToNoop(t *testing.T) {
	sender := NewSender(config.NotifyConfig{})
	if _, ok := sender.(noopSender); !ok {
		t.Fatalf("expected noop sender without endpoint, got %T", sender)
	}
	if err := sender.SendDeliveryNotification(context.Background(), "p1", "owner-1", "/projects/p1"); err != nil {
		t.Fatalf("noop sender returned error: %v", err)
	}
}

func TestHTTPSenderPostsNotification(t *testing.T) {
	var received deliveryNotification
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := NewSender(config.NotifyConfig{DeliveryEndpoint: srv.URL})
	err := sender.SendDeliveryNotification(context.Background(), "p1", "owner-1", "https://app.example/projects/p1")
	if err != nil {
		t.Fatalf("SendDeliveryNotification returned error: %v", err)
	}

	if received.ProjectID != "p1" || received.Recipient != "owner-1" || received.ViewURL != "https://app.example/projects/p1" {
		t.Fatalf("payload = %+v", received)
	}
}

func TestHTTPSenderReportsEndpointFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "mailbox full", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sender := NewSender(config.NotifyConfig{DeliveryEndpoint: srv.URL})
	if err := sender.SendDeliveryNotification(context.Background(), "p1", "owner-1", "/projects/p1"); err == nil {
		t.Fatal("expected error on 503")
	}
}

func TestBoardMirrorPostsMove(t *testing.T) {
	var received boardMove
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Errorf("decode payload: %v", err)
		}
	}))
	defer srv.Close()

	board := NewBoardMirror(config.NotifyConfig{BoardEndpoint: srv.URL})
	if err := board.MoveCardToWaitingApproval(context.Background(), "p1", true); err != nil {
		t.Fatalf("MoveCardToWaitingApproval returned error: %v", err)
	}

	if received.ProjectID != "p1" || received.Column != "waiting_approval" || !received.IsRevision {
		t.Fatalf("payload = %+v", received)
	}
}

func TestNewBoardMirrorFallsBackToNoop(t *testing.T) {
	board := NewBoardMirror(config.NotifyConfig{})
	if _, ok := board.(noopBoard); !ok {
		t.Fatalf("expected noop board without endpoint, got %T", board)
	}
}
