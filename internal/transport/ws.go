package transport

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// StreamClient subscribes to the backend's websocket event feed. It
// implements Stream.
type StreamClient struct {
	baseURL string
	apiKey  string
	log     zerolog.Logger

	mu   sync.Mutex
	conn *websocket.Conn
}

var _ Stream = &StreamClient{}

// NewStreamClient constructs a stream client for the given HTTP base URL. The
// scheme is rewritten to ws/wss on connect.
func NewStreamClient(baseURL, apiKey string, log zerolog.Logger) *StreamClient {
	return &StreamClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		log:     log,
	}
}

// Connect implements Stream. The returned channel is closed when the read
// loop exits, whether from Close, context cancellation, or a dropped
// connection.
func (s *StreamClient) Connect(ctx context.Context, projectID string) (<-chan Event, error) {
	endpoint, err := s.streamURL(projectID)
	if err != nil {
		return nil, err
	}

	header := map[string][]string{}
	if s.apiKey != "" {
		header["Authorization"] = []string{"Bearer " + s.apiKey}
	}

	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, endpoint, header)
	if err != nil {
		return nil, fmt.Errorf("dial event stream: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	events := make(chan Event, 32)
	go s.readLoop(ctx, conn, events)

	s.log.Debug().Str("project", projectID).Msg("event stream connected")
	return events, nil
}

func (s *StreamClient) readLoop(ctx context.Context, conn *websocket.Conn, events chan<- Event) {
	defer close(events)
	defer conn.Close()

	// Context cancellation unblocks the ReadJSON below.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Msg("event stream closed unexpectedly")
			}
			return
		}

		if ev.Type == "" {
			s.log.Debug().Msg("dropping untyped stream event")
			continue
		}

		select {
		case events <- ev:
		case <-ctx.Done():
			return
		}
	}
}

// Close implements Stream. Closing before Connect, or twice, returns
// ErrNotConnected.
func (s *StreamClient) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn == nil {
		return ErrNotConnected
	}

	// Best effort close handshake before tearing the connection down.
	deadline := time.Now().Add(time.Second)
	_ = s.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		deadline,
	)

	err := s.conn.Close()
	s.conn = nil
	return err
}

func (s *StreamClient) streamURL(projectID string) (string, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q for event stream", u.Scheme)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + "/api/v1/projects/" + url.PathEscape(projectID) + "/events"
	return u.String(), nil
}
