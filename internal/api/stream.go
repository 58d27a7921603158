package api

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"nerva/backend/internal/analysis"
)

// EvaluationEvent describes websocket payloads emitted during evaluations.
type EvaluationEvent struct {
	Type       string         `json:"type"`
	Dilemma    string         `json:"dilemma,omitempty"`
	Evaluation *EvaluationDTO `json:"evaluation,omitempty"`
	Message    string         `json:"message,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}

// wsClient wraps a websocket connection with write locking.
type wsClient struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// EvaluationNotifier keeps track of active websocket clients and broadcasts evaluation events.
type EvaluationNotifier struct {
	mu         sync.Mutex
	clients    map[*wsClient]struct{}
	lastStatus *EvaluationEvent
}

// NewEvaluationNotifier constructs a notifier instance.
func NewEvaluationNotifier() *EvaluationNotifier {
	return &EvaluationNotifier{clients: make(map[*wsClient]struct{})}
}

// Register attaches a websocket connection and replays the latest event to it.
func (n *EvaluationNotifier) Register(conn *websocket.Conn) *wsClient {
	client := &wsClient{conn: conn}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.clients[client] = struct{}{}
	if n.lastStatus != nil {
		_ = client.writeJSON(*n.lastStatus)
	}
	return client
}

// Unregister removes the websocket client from the notifier and closes the socket.
func (n *EvaluationNotifier) Unregister(client *wsClient) {
	if client == nil {
		return
	}
	n.mu.Lock()
	delete(n.clients, client)
	n.mu.Unlock()
	_ = client.conn.Close()
}

// Publish adapts analysis events to websocket broadcasts.
func (n *EvaluationNotifier) Publish(event analysis.Event) {
	out := EvaluationEvent{
		Type:    event.Type,
		Dilemma: event.Dilemma,
		Message: event.Message,
	}
	if event.Result != nil {
		dto := FromResult(*event.Result)
		out.Evaluation = &dto
	}
	n.Broadcast(out)
}

// Broadcast sends the supplied event to all registered websocket clients.
func (n *EvaluationNotifier) Broadcast(event EvaluationEvent) {
	event.Timestamp = time.Now().UTC()

	n.mu.Lock()
	defer n.mu.Unlock()
	snapshot := event
	n.lastStatus = &snapshot

	for client := range n.clients {
		if err := client.writeJSON(event); err != nil {
			delete(n.clients, client)
			_ = client.conn.Close()
		}
	}
}

// LastStatus returns a copy of the most recent event, or nil.
func (n *EvaluationNotifier) LastStatus() *EvaluationEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.lastStatus == nil {
		return nil
	}
	copy := *n.lastStatus
	return &copy
}

// ClientCount reports the number of connected websocket clients.
func (n *EvaluationNotifier) ClientCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.clients)
}

func (c *wsClient) writeJSON(payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}
