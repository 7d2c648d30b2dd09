package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/TheKrainBow/gomoku-core/engine"
)

type StatusResponse struct {
	Board           [][]int           `json:"board"`
	BoardSize       int               `json:"board_size"`
	NextPlayer      int               `json:"next_player"`
	Winner          int               `json:"winner"`
	Status          string            `json:"status"`
	WinReason       string            `json:"win_reason"`
	WinningLine     *engine.Line      `json:"winning_line"`
	LastMove        *engine.Point     `json:"last_move"`
	Players         []playerDTO       `json:"players"`
	History         []historyEntryDTO `json:"history"`
	AiThinking      bool              `json:"ai_thinking"`
	AiDepth         int               `json:"ai_depth"`
	GameNumber      int               `json:"game_number"`
	TurnTimeLimitMs int64             `json:"turn_time_limit_ms"`
	TurnStartedAtMs int64             `json:"turn_started_at_ms"`
}

type playerDTO struct {
	Seat            int    `json:"seat"`
	Name            string `json:"name"`
	Score           int    `json:"score"`
	AI              bool   `json:"ai"`
	TimeRemainingMs int64  `json:"time_remaining_ms"`
}

type historyEntryDTO struct {
	X         int     `json:"x"`
	Y         int     `json:"y"`
	Player    int     `json:"player"`
	ElapsedMs float64 `json:"elapsed_ms"`
	IsAi      bool    `json:"is_ai"`
	Depth     int     `json:"depth"`
	Nodes     int64   `json:"nodes"`
}

type historyPayload struct {
	History []historyEntryDTO `json:"history"`
}

type apiMove struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type startPlayerDTO struct {
	Name string `json:"name"`
	AI   bool   `json:"ai"`
}

type startRequest struct {
	Players         []startPlayerDTO `json:"players"`
	BoardSize       int              `json:"board_size"`
	AiDepth         int              `json:"ai_depth"`
	TurnTimeLimitMs *int64           `json:"turn_time_limit_ms"`
}

type settingsResponse struct {
	Settings GameSettings `json:"settings"`
	Config   Config       `json:"config"`
}

var errPlayerCount = errors.New("exactly two players are required")

var wsUpgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type server struct {
	controller *GameController
	hub        *Hub
	overlayHub *OverlayHub
	logger     zerolog.Logger
}

func newRouter(s *server) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Get("/api/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	r.Get("/api/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, controllerStatus(s.controller))
	})
	r.Post("/api/start", s.handleStart)
	r.Post("/api/move", s.handleMove)
	r.Post("/api/next", s.handleNext)
	r.Get("/api/overlay", s.handleOverlay)
	r.Get("/api/settings", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, settingsResponse{
			Settings: s.controller.Settings(),
			Config:   GetConfig(),
		})
	})

	r.Get("/ws/", func(w http.ResponseWriter, r *http.Request) {
		serveWS(s.hub, s.controller, s.logger, w, r)
	})
	r.Get("/ws/overlay", func(w http.ResponseWriter, r *http.Request) {
		serveOverlayWS(s.overlayHub, s.logger, w, r)
	})
	return r
}

func (s *server) handleStart(w http.ResponseWriter, r *http.Request) {
	var payload startRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid payload"))
		return
	}
	settings, err := settingsFromRequest(payload, s.controller.Settings())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.controller.StartGame(settings); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	status := controllerStatus(s.controller)
	s.hub.PublishReset(status)
	writeJSON(w, http.StatusOK, status)
}

func (s *server) handleMove(w http.ResponseWriter, r *http.Request) {
	var payload apiMove
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid payload"))
		return
	}
	if err := s.controller.ApplyHumanMove(engine.Point{X: payload.X, Y: payload.Y}); err != nil {
		code := http.StatusBadRequest
		if errors.Is(err, ErrGameNotRunning) || errors.Is(err, ErrNotHumanTurn) {
			code = http.StatusConflict
		}
		if errors.Is(err, ErrGameNotRunning) {
			// the move may have ended the game on time
			s.publishLatest(false)
		}
		writeError(w, code, err)
		return
	}
	s.publishLatest(true)
	writeJSON(w, http.StatusOK, controllerStatus(s.controller))
}

func (s *server) handleNext(w http.ResponseWriter, r *http.Request) {
	if err := s.controller.NextGame(); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	status := controllerStatus(s.controller)
	s.hub.PublishReset(status)
	writeJSON(w, http.StatusOK, status)
}

func (s *server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	decision, ok := s.controller.LastDecision()
	if !ok {
		writeJSON(w, http.StatusOK, overlayPayload{Cells: []overlayCell{}})
		return
	}
	writeJSON(w, http.StatusOK, overlayFromDecision(decision))
}

// publishLatest pushes the resulting status to /ws/, preceded by the newest
// move when one was just played.
func (s *server) publishLatest(moved bool) {
	if entry, ok := s.controller.LatestHistoryEntry(); ok && moved {
		s.hub.PublishHistory([]historyEntryDTO{historyEntryToDTO(entry)})
	}
	s.hub.PublishStatus(controllerStatus(s.controller))
}

func settingsFromRequest(req startRequest, base GameSettings) (GameSettings, error) {
	settings := base
	if req.Players != nil {
		if len(req.Players) != 2 {
			return GameSettings{}, errPlayerCount
		}
		for i, p := range req.Players {
			name := p.Name
			if name == "" {
				name = base.Seats[i].Name
			}
			settings.Seats[i] = SeatSettings{Name: name, Type: lo.Ternary(p.AI, PlayerAI, PlayerHuman)}
		}
	}
	if req.BoardSize != 0 {
		settings.BoardSize = req.BoardSize
	}
	if req.AiDepth != 0 {
		settings.AiDepth = req.AiDepth
	}
	if req.TurnTimeLimitMs != nil {
		settings.TurnTimeLimit = time.Duration(*req.TurnTimeLimitMs) * time.Millisecond
	}
	return settings, validateSettings(settings)
}

func serveWS(hub *Hub, controller *GameController, logger zerolog.Logger, w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	client := &Client{send: make(chan []byte, 16)}
	hub.Register(client)
	client.sendJSON(wsMessage{Type: "status", Payload: mustMarshal(controllerStatus(controller))})

	go func() {
		defer conn.Close()
		if err := writeWSWithHeartbeat(conn, client.send); err != nil {
			logger.Debug().Err(err).Msg("ws writer stopped")
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			hub.Unregister(client)
			return
		}
		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "request_status":
			client.sendJSON(wsMessage{Type: "status", Payload: mustMarshal(controllerStatus(controller))})
		case "move":
			var move apiMove
			if err := json.Unmarshal(msg.Payload, &move); err != nil {
				continue
			}
			if !controller.OnCellClicked(move.X, move.Y) {
				logger.Debug().Int("x", move.X).Int("y", move.Y).Msg("click ignored")
			}
		}
	}
}

func controllerStatus(controller *GameController) StatusResponse {
	state := controller.State()
	settings := controller.Settings()
	board := lo.Times(state.Size, func(y int) []int {
		return lo.Times(state.Size, func(x int) int { return markToInt(state.At(x, y)) })
	})
	return StatusResponse{
		Board:       board,
		BoardSize:   state.Size,
		NextPlayer:  seatToInt(state.ToMove),
		Winner:      winnerFromStatus(state.Status),
		Status:      statusToString(state.Status),
		WinReason:   string(state.WinReason),
		WinningLine: state.WinningLine,
		LastMove:    state.LastMove,
		Players: lo.Map(state.Seats[:], func(seat SeatState, i int) playerDTO {
			return playerDTO{
				Seat:            i + 1,
				Name:            seat.Name,
				Score:           seat.Score,
				AI:              seat.IsAI,
				TimeRemainingMs: seat.TimeRemaining.Milliseconds(),
			}
		}),
		History:         historyToDTO(controller.History()),
		AiThinking:      state.AiThinking,
		AiDepth:         settings.AiDepth,
		GameNumber:      state.GameNumber,
		TurnTimeLimitMs: settings.TurnTimeLimit.Milliseconds(),
		TurnStartedAtMs: controller.CurrentTurnStartedAtMs(),
	}
}

func markToInt(mark engine.Mark) int {
	switch mark {
	case engine.MarkX:
		return 1
	case engine.MarkO:
		return 2
	default:
		return 0
	}
}

func seatToInt(seat engine.Seat) int {
	return int(seat) + 1
}

func winnerFromStatus(status GameStatus) int {
	switch status {
	case StatusFirstWon:
		return 1
	case StatusSecondWon:
		return 2
	default:
		return 0
	}
}

func statusToString(status GameStatus) string {
	switch status {
	case StatusFirstWon:
		return "first_won"
	case StatusSecondWon:
		return "second_won"
	case StatusDraw:
		return "draw"
	default:
		return "running"
	}
}

func historyToDTO(history MoveHistory) []historyEntryDTO {
	return lo.Map(history.All(), func(entry HistoryEntry, _ int) historyEntryDTO {
		return historyEntryToDTO(entry)
	})
}

func historyEntryToDTO(entry HistoryEntry) historyEntryDTO {
	return historyEntryDTO{
		X:         entry.Move.X,
		Y:         entry.Move.Y,
		Player:    seatToInt(entry.Seat),
		ElapsedMs: entry.ElapsedMs,
		IsAi:      entry.IsAi,
		Depth:     entry.Depth,
		Nodes:     entry.Nodes,
	}
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Debug().
				Str("request_id", middleware.GetReqID(r.Context())).
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("elapsed", time.Since(start)).
				Msg("http request")
		})
	}
}

func mustMarshal(v any) json.RawMessage {
	data, _ := json.Marshal(v)
	return data
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
