package main

import (
	"encoding/json"
	"sync"
)

// Hub fans game updates out to every renderer connected on /ws/.
type Hub struct {
	mu               sync.Mutex
	clients          map[*Client]struct{}
	broadcastHistory chan historyPayload
	broadcastStatus  chan StatusResponse
	broadcastReset   chan StatusResponse
}

type Client struct {
	send chan []byte
}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func NewHub() *Hub {
	return &Hub{
		clients:          make(map[*Client]struct{}),
		broadcastHistory: make(chan historyPayload, 32),
		broadcastStatus:  make(chan StatusResponse, 32),
		broadcastReset:   make(chan StatusResponse, 8),
	}
}

func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case payload := <-h.broadcastHistory:
			h.broadcast(wsMessage{Type: "history", Payload: mustMarshal(payload)})
		case payload := <-h.broadcastStatus:
			h.broadcast(wsMessage{Type: "status", Payload: mustMarshal(payload)})
		case payload := <-h.broadcastReset:
			h.broadcast(wsMessage{Type: "reset", Payload: mustMarshal(payload)})
		}
	}
}

func (h *Hub) broadcast(msg wsMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		client.sendJSON(msg)
	}
}

// The publish helpers skip the queue when nobody listens and drop updates
// when it is full; the next status carries the full state anyway.
func (h *Hub) PublishStatus(status StatusResponse) {
	if !h.HasClients() {
		return
	}
	select {
	case h.broadcastStatus <- status:
	default:
	}
}

func (h *Hub) PublishHistory(entries []historyEntryDTO) {
	if !h.HasClients() {
		return
	}
	select {
	case h.broadcastHistory <- historyPayload{History: entries}:
	default:
	}
}

func (h *Hub) PublishReset(status StatusResponse) {
	if !h.HasClients() {
		return
	}
	select {
	case h.broadcastReset <- status:
	default:
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) HasClients() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) > 0
}

func (c *Client) sendJSON(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}
