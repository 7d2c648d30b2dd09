package main

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/TheKrainBow/gomoku-core/engine"
)

type overlayCell struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Score int `json:"score"`
}

type overlaySummary struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// overlayPayload is the evaluator heat map of the position the last
// computer search started from.
type overlayPayload struct {
	Active    bool           `json:"active"`
	BoardSize int            `json:"board_size"`
	Player    int            `json:"player"`
	Best      *engine.Point  `json:"best,omitempty"`
	Depth     int            `json:"depth"`
	Nodes     int64          `json:"nodes"`
	Cutoffs   int64          `json:"cutoffs"`
	Tactical  bool           `json:"tactical"`
	ElapsedMs float64        `json:"elapsed_ms"`
	Cells     []overlayCell  `json:"cells"`
	Summary   overlaySummary `json:"summary"`
}

func overlayFromDecision(decision AIDecision) overlayPayload {
	payload := overlayPayload{
		Active:    true,
		BoardSize: decision.Size,
		Player:    markToInt(decision.Mark),
		Depth:     decision.Depth,
		Nodes:     decision.Stats.Nodes,
		Cutoffs:   decision.Stats.Cutoffs,
		Tactical:  decision.Stats.Tactical,
		ElapsedMs: float64(decision.Elapsed.Microseconds()) / 1000.0,
		Cells:     []overlayCell{},
	}
	if decision.Move != engine.NoMove {
		best := decision.Move
		payload.Best = &best
	}

	values := make([]float64, 0, len(decision.Scores))
	for i, score := range decision.Scores {
		if score == 0 || decision.Size == 0 {
			continue
		}
		payload.Cells = append(payload.Cells, overlayCell{X: i % decision.Size, Y: i / decision.Size, Score: score})
		values = append(values, float64(score))
	}
	payload.Summary = summarizeScores(values)
	return payload
}

func summarizeScores(values []float64) overlaySummary {
	summary := overlaySummary{Count: len(values)}
	if len(values) == 0 {
		return summary
	}
	summary.Min = floats.Min(values)
	summary.Max = floats.Max(values)
	if len(values) == 1 {
		summary.Mean = values[0]
		return summary
	}
	summary.Mean, summary.StdDev = stat.MeanStdDev(values, nil)
	return summary
}

type OverlayClient struct {
	send chan []byte
}

type OverlayHub struct {
	mu        sync.Mutex
	clients   map[*OverlayClient]struct{}
	broadcast chan overlayPayload
}

func NewOverlayHub() *OverlayHub {
	return &OverlayHub{
		clients:   make(map[*OverlayClient]struct{}),
		broadcast: make(chan overlayPayload, 32),
	}
}

func (h *OverlayHub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case payload := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				client.sendJSON(wsMessage{Type: "overlay", Payload: mustMarshal(payload)})
			}
			h.mu.Unlock()
		}
	}
}

func (h *OverlayHub) Register(c *OverlayClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Publish is called from the game loop with the controller lock held, so it
// never blocks.
func (h *OverlayHub) Publish(payload overlayPayload) {
	if !h.HasClients() {
		return
	}
	select {
	case h.broadcast <- payload:
	default:
	}
}

func (h *OverlayHub) Unregister(c *OverlayClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *OverlayHub) HasClients() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients) > 0
}

func (c *OverlayClient) sendJSON(msg wsMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	select {
	case c.send <- data:
	default:
	}
}

func serveOverlayWS(hub *OverlayHub, logger zerolog.Logger, w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("overlay upgrade failed")
		return
	}
	client := &OverlayClient{send: make(chan []byte, 16)}
	hub.Register(client)

	go func() {
		defer conn.Close()
		if err := writeWSWithHeartbeat(conn, client.send); err != nil {
			logger.Debug().Err(err).Msg("overlay writer stopped")
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			hub.Unregister(client)
			return
		}
	}
}
