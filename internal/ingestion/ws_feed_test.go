package ingestion

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func TestWSFeed_Connect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// Keep connection open
		for {
			_, _, err := conn.ReadMessage()
			if err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	feed, err := NewWSFeed(context.Background(), wsURL, nil)
	if err != nil {
		t.Fatalf("NewWSFeed: %v", err)
	}
	defer feed.Close()

	if feed.closed.Load() {
		t.Error("feed should not be closed")
	}
}

func TestWSFeed_SubscribeAndReceiveBars(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req feedRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			t.Errorf("unmarshal request: %v", err)
			return
		}
		if req.Type != "subscribe" || req.Symbol != "ES" {
			t.Errorf("unexpected subscribe request %+v", req)
			return
		}

		conn.WriteJSON(map[string]interface{}{"type": "subscribed", "id": req.ID})
		conn.WriteJSON(map[string]interface{}{
			"type": "bar", "symbol": "ES",
			"time": "2024-03-04T09:30:00Z",
			"open": 100.0, "high": 101.0, "low": 99.5, "close": 100.5,
			"volume": 1200,
		})

		// Keep connection open
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	feed, err := NewWSFeed(context.Background(), wsURL, nil)
	if err != nil {
		t.Fatalf("NewWSFeed: %v", err)
	}
	defer feed.Close()

	ch, err := feed.Subscribe(context.Background(), "ES")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	select {
	case bar := <-ch:
		if bar.Symbol != "ES" || bar.Open != 100 || bar.Close != 100.5 || bar.Volume != 1200 {
			t.Errorf("unexpected bar %+v", bar)
		}
		want := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
		if !bar.Time.Equal(want) {
			t.Errorf("unexpected bar time %s", bar.Time)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for bar")
	}
}

func TestWSFeed_BarsRightAfterAckAreDelivered(t *testing.T) {
	const burst = 5

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var req feedRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			t.Errorf("unmarshal request: %v", err)
			return
		}

		// Ack and bars in one burst: the client must already be
		// listening for the symbol when the ack goes out.
		conn.WriteJSON(map[string]interface{}{"type": "subscribed", "id": req.ID})
		for i := 0; i < burst; i++ {
			conn.WriteJSON(map[string]interface{}{
				"type": "bar", "symbol": "ES",
				"time":   time.Date(2024, 3, 4, 9, 30+i, 0, 0, time.UTC).Format(time.RFC3339),
				"open":   100.0, "close": 100.0 + float64(i),
				"volume": 100,
			})
		}

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	feed, err := NewWSFeed(context.Background(), wsURL, nil)
	if err != nil {
		t.Fatalf("NewWSFeed: %v", err)
	}
	defer feed.Close()

	ch, err := feed.Subscribe(context.Background(), "ES")
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}

	for i := 0; i < burst; i++ {
		select {
		case bar := <-ch:
			if bar.Close != 100.0+float64(i) {
				t.Errorf("bar %d out of order or dropped, close = %v", i, bar.Close)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("timed out waiting for bar %d of %d", i+1, burst)
		}
	}
}

func TestWSFeed_SubscribeTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		// Never ack the subscription
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	cfg := DefaultFeedConfig()
	cfg.SubscribeTimeout = 200 * time.Millisecond

	feed, err := NewWSFeed(context.Background(), wsURL, &cfg)
	if err != nil {
		t.Fatalf("NewWSFeed: %v", err)
	}
	defer feed.Close()

	if _, err := feed.Subscribe(context.Background(), "ES"); err == nil {
		t.Error("expected subscribe timeout")
	}
}

func TestWSFeed_Close(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		defer conn.Close()

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http")

	feed, err := NewWSFeed(context.Background(), wsURL, nil)
	if err != nil {
		t.Fatalf("NewWSFeed: %v", err)
	}

	if err := feed.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Idempotent
	if err := feed.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}

	if _, err := feed.Subscribe(context.Background(), "ES"); err == nil {
		t.Error("expected subscribe after close to fail")
	}
}
