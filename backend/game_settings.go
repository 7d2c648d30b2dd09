package main

import "time"

const minPlayableBoardSize = 5

type PlayerType int

const (
	PlayerHuman PlayerType = iota
	PlayerAI
)

type SeatSettings struct {
	Name string     `json:"name"`
	Type PlayerType `json:"type"`
}

type GameSettings struct {
	BoardSize     int             `json:"board_size"`
	AiDepth       int             `json:"ai_depth"`
	TurnTimeLimit time.Duration   `json:"turn_time_limit"`
	Seats         [2]SeatSettings `json:"seats"`
}

func DefaultGameSettings() GameSettings {
	return SettingsFromConfig(GetConfig())
}

func SettingsFromConfig(cfg Config) GameSettings {
	seatType := func(ai bool) PlayerType {
		if ai {
			return PlayerAI
		}
		return PlayerHuman
	}
	return GameSettings{
		BoardSize:     cfg.BoardSize,
		AiDepth:       cfg.AiDepth,
		TurnTimeLimit: cfg.TurnTimeLimit,
		Seats: [2]SeatSettings{
			{Name: cfg.Player1Name, Type: seatType(cfg.Player1AI)},
			{Name: cfg.Player2Name, Type: seatType(cfg.Player2AI)},
		},
	}
}
