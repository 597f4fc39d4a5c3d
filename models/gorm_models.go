// models/gorm_models.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// GormGameRecord 游戏记录表
type GormGameRecord struct {
	ID           string `gorm:"primaryKey;type:uuid"`
	LobbyID      string `gorm:"index;type:uuid;not null"`
	ImpostorsWon bool   `gorm:"not null"`
	Rounds       int    `gorm:"default:0"`
	StartedAt    time.Time
	EndedAt      time.Time         `gorm:"index"`
	Participants []GormParticipant `gorm:"foreignKey:GameID;references:ID;constraint:OnDelete:CASCADE"`
}

func (GormGameRecord) TableName() string { return "game_records" }

// GormParticipant 参与者表。player_id 以 bigint 存储。
type GormParticipant struct {
	ID               uint   `gorm:"primaryKey"`
	GameID           string `gorm:"index;type:uuid;not null"`
	PlayerID         int64  `gorm:"index;not null"`
	Name             string `gorm:"not null"`
	Role             string `gorm:"not null"`
	Won              bool
	Eliminated       bool
	VotesCast        int
	VotesOnImpostors int
	FoundImpostor    bool
}

func (GormParticipant) TableName() string { return "game_participants" }

func NewGormGameRecord(r *GameRecord) *GormGameRecord {
	g := &GormGameRecord{
		ID:           r.ID.String(),
		LobbyID:      r.LobbyID.String(),
		ImpostorsWon: r.ImpostorsWon,
		Rounds:       r.Rounds,
		StartedAt:    r.StartedAt,
		EndedAt:      r.EndedAt,
	}
	for _, p := range r.Players {
		g.Participants = append(g.Participants, GormParticipant{
			GameID:           g.ID,
			PlayerID:         int64(p.PlayerID),
			Name:             p.Name,
			Role:             p.Role,
			Won:              p.Won,
			Eliminated:       p.Eliminated,
			VotesCast:        p.VotesCast,
			VotesOnImpostors: p.VotesOnImpostors,
			FoundImpostor:    p.FoundImpostor,
		})
	}
	return g
}

// Record converts back, used when reading history.
func (g *GormGameRecord) Record() (*GameRecord, error) {
	id, err := uuid.Parse(g.ID)
	if err != nil {
		return nil, err
	}
	lobby, err := uuid.Parse(g.LobbyID)
	if err != nil {
		return nil, err
	}
	r := &GameRecord{
		ID:           id,
		LobbyID:      lobby,
		ImpostorsWon: g.ImpostorsWon,
		Rounds:       g.Rounds,
		StartedAt:    g.StartedAt,
		EndedAt:      g.EndedAt,
	}
	for _, p := range g.Participants {
		r.Players = append(r.Players, PlayerInfo{
			PlayerID:         uint64(p.PlayerID),
			Name:             p.Name,
			Role:             p.Role,
			Won:              p.Won,
			Eliminated:       p.Eliminated,
			VotesCast:        p.VotesCast,
			VotesOnImpostors: p.VotesOnImpostors,
			FoundImpostor:    p.FoundImpostor,
		})
	}
	return r, nil
}
