package speech

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// startFrame is the stream configuration sent after dialing.
type startFrame struct {
	Type           string `json:"type"`
	Language       string `json:"language"`
	InterimResults bool   `json:"interim_results"`
	Continuous     bool   `json:"continuous"`
}

// resultFrame is one server notification.
type resultFrame struct {
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	IsFinal bool   `json:"is_final,omitempty"`
	Message string `json:"message,omitempty"`
}

// WSEngine streams recognition results from a websocket speech service that
// performs its own audio capture, mirroring how a browser recognition engine
// delivers results to the page.
type WSEngine struct {
	logger   *slog.Logger
	url      string
	language string
	interim  bool

	mu   sync.Mutex
	conn *websocket.Conn
}

// NewWSEngine builds an engine for the given websocket endpoint.
func NewWSEngine(logger *slog.Logger, url, language string, interim bool) *WSEngine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &WSEngine{logger: logger, url: url, language: language, interim: interim}
}

// Start dials the service, sends the stream configuration, and begins the
// read loop. It returns once the stream is established.
func (e *WSEngine) Start(ctx context.Context, h Handler) error {
	conn, _, err := websocket.Dial(ctx, e.url, nil)
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrEngineUnavailable, e.url, err)
	}

	cfg := startFrame{Type: "start", Language: e.language, InterimResults: e.interim, Continuous: true}
	if err := wsjson.Write(ctx, conn, cfg); err != nil {
		conn.Close(websocket.StatusInternalError, "start failed")
		return fmt.Errorf("send start frame: %w", err)
	}

	e.mu.Lock()
	if e.conn != nil {
		e.conn.Close(websocket.StatusNormalClosure, "superseded")
	}
	e.conn = conn
	e.mu.Unlock()

	go e.readLoop(ctx, conn, h)
	return nil
}

// Stop closes the live stream. A subsequent read error from the closed
// connection surfaces as a stream end, not a failure.
func (e *WSEngine) Stop() {
	e.mu.Lock()
	conn := e.conn
	e.conn = nil
	e.mu.Unlock()
	if conn != nil {
		conn.Close(websocket.StatusNormalClosure, "stopped")
	}
}

func (e *WSEngine) readLoop(ctx context.Context, conn *websocket.Conn, h Handler) {
	for {
		var frame resultFrame
		if err := wsjson.Read(ctx, conn, &frame); err != nil {
			if isStreamEnd(err) || ctx.Err() != nil {
				h.OnEnd()
				return
			}
			h.OnError(fmt.Errorf("read result frame: %w", err))
			return
		}

		switch frame.Type {
		case "result":
			h.OnResult(Result{Text: frame.Text, Final: frame.IsFinal})
		case "end":
			h.OnEnd()
			return
		case "error":
			h.OnError(fmt.Errorf("engine reported: %s", frame.Message))
			return
		default:
			e.logger.Debug("ignoring unknown frame", "type", frame.Type)
		}
	}
}

// isStreamEnd classifies read failures that mean the stream closed normally.
func isStreamEnd(err error) bool {
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return true
	}
	return errors.Is(err, context.Canceled)
}
