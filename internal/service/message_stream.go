package service

import (
	"sync"
	"time"

	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/ripplehq/ripple-api/internal/dto"
	"github.com/ripplehq/ripple-api/internal/observability"
)

const streamSendBufferSize = 32

// MessageStream pushes newly stored direct messages to the recipient's open
// websocket connections. A user may hold several connections at once.
type MessageStream struct {
	mu      sync.RWMutex
	clients map[uint]map[*streamClient]struct{}
	logger  zerolog.Logger
}

type streamClient struct {
	conn   *websocket.Conn
	send   chan dto.MessageResponse
	userID uint
	stream *MessageStream
	closed chan struct{}
	once   sync.Once
}

// NewMessageStream constructs the delivery hub.
func NewMessageStream(logger zerolog.Logger) *MessageStream {
	return &MessageStream{
		clients: make(map[uint]map[*streamClient]struct{}),
		logger:  logger.With().Str("component", "message_stream").Logger(),
	}
}

// ServeConnection attaches a websocket connection for the given user and
// blocks until the peer disconnects.
func (s *MessageStream) ServeConnection(conn *websocket.Conn, userID uint) {
	client := &streamClient{
		conn:   conn,
		send:   make(chan dto.MessageResponse, streamSendBufferSize),
		userID: userID,
		stream: s,
		closed: make(chan struct{}),
	}

	s.register(client)
	observability.StreamConnectionsActive().Inc()
	defer observability.StreamConnectionsActive().Dec()

	go client.writer()
	client.reader()
}

// Deliver pushes a message to every open connection of the recipient,
// dropping it for connections that cannot keep up.
func (s *MessageStream) Deliver(recipientID uint, message dto.MessageResponse) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for client := range s.clients[recipientID] {
		select {
		case client.send <- message:
		default:
			s.logger.Warn().Uint("user_id", recipientID).Msg("dropping message for slow stream client")
		}
	}
}

func (s *MessageStream) register(client *streamClient) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.clients[client.userID]; !exists {
		s.clients[client.userID] = make(map[*streamClient]struct{})
	}
	s.clients[client.userID][client] = struct{}{}
	s.logger.Debug().Uint("user_id", client.userID).Msg("stream client connected")
}

func (s *MessageStream) unregister(client *streamClient) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if clients, ok := s.clients[client.userID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(s.clients, client.userID)
		}
	}
	s.logger.Debug().Uint("user_id", client.userID).Msg("stream client disconnected")
}

func (c *streamClient) reader() {
	defer c.close()

	// The stream is delivery-only; inbound frames are drained so pings and
	// close frames are processed.
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.stream.logger.Debug().Err(err).Msg("stream read loop ended")
			return
		}
	}
}

func (c *streamClient) writer() {
	defer c.close()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.stream.logger.Debug().Err(err).Msg("stream write loop terminated")
				return
			}
		case <-time.After(30 * time.Second):
			if err := c.conn.WriteMessage(websocket.PingMessage, []byte("keepalive")); err != nil {
				c.stream.logger.Debug().Err(err).Msg("stream ping failed")
				return
			}
		case <-c.closed:
			return
		}
	}
}

func (c *streamClient) close() {
	c.once.Do(func() {
		close(c.closed)
		c.stream.unregister(c)
		_ = c.conn.Close()
	})
}
