package hyperliquid

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"hyperliquid-mcp/internal/logger"
	"hyperliquid-mcp/internal/types"
)

const (
	wsDialTimeout = 10 * time.Second
	wsPingEvery   = 45 * time.Second
	// Snapshots older than this are ignored and the caller falls back to
	// REST.
	wsStaleAfter = 10 * time.Second
)

type wsCommand struct {
	Method       string          `json:"method"`
	Subscription *wsSubscription `json:"subscription,omitempty"`
}

type wsSubscription struct {
	Type string `json:"type"`
	Coin string `json:"coin,omitempty"`
}

type wsMessage struct {
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

// bookStream keeps the latest l2Book snapshot per subscribed coin fed by
// the exchange websocket. Subscriptions are created lazily on first
// request for a coin; until the first update arrives the caller uses the
// REST path.
type bookStream struct {
	conn *websocket.Conn

	mu       sync.Mutex
	books    map[string]types.OrderBook
	seen     map[string]time.Time
	subs     map[string]bool
	writeMu  sync.Mutex
	done     chan struct{}
	closeOne sync.Once
}

func newBookStream(ctx context.Context, url string) (*bookStream, error) {
	dialCtx, cancel := context.WithTimeout(ctx, wsDialTimeout)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(dialCtx, url, nil)
	if err != nil {
		return nil, err
	}

	s := &bookStream{
		conn:  conn,
		books: make(map[string]types.OrderBook),
		seen:  make(map[string]time.Time),
		subs:  make(map[string]bool),
		done:  make(chan struct{}),
	}
	go s.readLoop()
	go s.pingLoop()
	return s, nil
}

// snapshot returns the latest streamed book for a coin when it is fresh.
// Unsubscribed coins trigger a subscription and report a miss.
func (s *bookStream) snapshot(ctx context.Context, coin string) (types.OrderBook, bool) {
	s.mu.Lock()
	subscribed := s.subs[coin]
	book, haveBook := s.books[coin]
	seenAt := s.seen[coin]
	s.mu.Unlock()

	if !subscribed {
		if err := s.subscribe(coin); err != nil {
			logger.Warn(ctx, "Book subscription failed", "coin", coin, "error", err)
			return types.OrderBook{}, false
		}
		s.mu.Lock()
		s.subs[coin] = true
		s.mu.Unlock()
		return types.OrderBook{}, false
	}

	if !haveBook || time.Since(seenAt) > wsStaleAfter {
		return types.OrderBook{}, false
	}
	return book, true
}

func (s *bookStream) subscribe(coin string) error {
	return s.write(wsCommand{
		Method:       "subscribe",
		Subscription: &wsSubscription{Type: "l2Book", Coin: coin},
	})
}

func (s *bookStream) write(cmd wsCommand) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(cmd)
}

func (s *bookStream) readLoop() {
	defer s.close()
	for {
		_, payload, err := s.conn.ReadMessage()
		if err != nil {
			select {
			case <-s.done:
			default:
				logger.Warn(context.Background(), "Streaming connection lost", "error", err)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			continue
		}
		if msg.Channel != "l2Book" {
			continue
		}

		var book l2Book
		if err := json.Unmarshal(msg.Data, &book); err != nil {
			continue
		}

		s.mu.Lock()
		s.books[book.Coin] = convertBook(book.Coin, book)
		s.seen[book.Coin] = time.Now()
		s.mu.Unlock()
	}
}

func (s *bookStream) pingLoop() {
	ticker := time.NewTicker(wsPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			if err := s.write(wsCommand{Method: "ping"}); err != nil {
				return
			}
		}
	}
}

func (s *bookStream) close() error {
	var err error
	s.closeOne.Do(func() {
		close(s.done)
		err = s.conn.Close()
	})
	return err
}
