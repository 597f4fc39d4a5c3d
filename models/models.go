// models/models.go
package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleCivilian = "civilian"
	RoleImpostor = "impostor"
)

// GameRecord 一局游戏的结算记录
type GameRecord struct {
	ID           uuid.UUID    `json:"id"`
	LobbyID      uuid.UUID    `json:"lobby_id"`
	ImpostorsWon bool         `json:"impostors_won"`
	Rounds       int          `json:"rounds"`
	Players      []PlayerInfo `json:"players"`
	StartedAt    time.Time    `json:"started_at"`
	EndedAt      time.Time    `json:"ended_at"`
}

func (r *GameRecord) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}

// Player returns the entry for id.
func (r *GameRecord) Player(id uint64) (PlayerInfo, bool) {
	for _, p := range r.Players {
		if p.PlayerID == id {
			return p, true
		}
	}
	return PlayerInfo{}, false
}

// PlayerInfo 玩家在一局中的表现
type PlayerInfo struct {
	PlayerID   uint64 `json:"player_id"`
	Name       string `json:"name"`
	Role       string `json:"role"` // civilian/impostor
	Won        bool   `json:"won"`
	Eliminated bool   `json:"eliminated"`
	// VotesCast counts non-abstain votes, VotesOnImpostors the ones that
	// targeted an impostor.
	VotesCast        int  `json:"votes_cast"`
	VotesOnImpostors int  `json:"votes_on_impostors"`
	FoundImpostor    bool `json:"found_impostor"` // 投票淘汰了内鬼
}

// PlayerStats 玩家历史统计
type PlayerStats struct {
	GamesPlayed    int `json:"games_played"`
	Wins           int `json:"wins"`
	Losses         int `json:"losses"`
	ImpostorGames  int `json:"impostor_games"`
	ImpostorWins   int `json:"impostor_wins"`
	ImpostorsFound int `json:"impostors_found"`
}

// Add folds one game into the totals.
func (s *PlayerStats) Add(p PlayerInfo) {
	s.GamesPlayed++
	if p.Won {
		s.Wins++
	} else {
		s.Losses++
	}
	if p.Role == RoleImpostor {
		s.ImpostorGames++
		if p.Won {
			s.ImpostorWins++
		}
	}
	if p.FoundImpostor {
		s.ImpostorsFound++
	}
}
