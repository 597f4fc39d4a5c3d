package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wfunc/impostor/models"
)

func TestAchievements(t *testing.T) {
	civWin := models.PlayerInfo{Role: models.RoleCivilian, Won: true}
	perfectCiv := models.PlayerInfo{Role: models.RoleCivilian, Won: true, VotesCast: 2, VotesOnImpostors: 2}
	impWin := models.PlayerInfo{Role: models.RoleImpostor, Won: true}
	finder := models.PlayerInfo{Role: models.RoleCivilian, FoundImpostor: true}

	tests := []struct {
		name   string
		player models.PlayerInfo
		before models.PlayerStats
		want   []Achievement
	}{
		{"first win", civWin, models.PlayerStats{}, []Achievement{AchFirstWin}},
		{"second win", civWin, models.PlayerStats{GamesPlayed: 3, Wins: 1}, nil},
		{"loss", models.PlayerInfo{Role: models.RoleCivilian}, models.PlayerStats{}, nil},
		{"perfect", perfectCiv, models.PlayerStats{GamesPlayed: 1, Wins: 1}, []Achievement{AchPerfectGame}},
		{"perfect but eliminated", models.PlayerInfo{Role: models.RoleCivilian, Won: true, Eliminated: true, VotesCast: 1, VotesOnImpostors: 1}, models.PlayerStats{Wins: 1}, nil},
		{"no votes is not perfect", civWin, models.PlayerStats{Wins: 1}, nil},
		{"impostor first win", impWin, models.PlayerStats{Wins: 2}, []Achievement{AchWinAsImpostor}},
		{"impostor again", impWin, models.PlayerStats{Wins: 2, ImpostorWins: 1}, nil},
		{"found impostor", finder, models.PlayerStats{}, []Achievement{AchFindImpostor}},
		{"found again", finder, models.PlayerStats{ImpostorsFound: 1}, nil},
		{"tenth game", models.PlayerInfo{Role: models.RoleCivilian}, models.PlayerStats{GamesPlayed: 9, Wins: 1}, []Achievement{AchPlay10Games}},
		{"eleventh game", models.PlayerInfo{Role: models.RoleCivilian}, models.PlayerStats{GamesPlayed: 10, Wins: 1}, nil},
		{
			"everything at once",
			models.PlayerInfo{Role: models.RoleCivilian, Won: true, FoundImpostor: true, VotesCast: 1, VotesOnImpostors: 1},
			models.PlayerStats{GamesPlayed: 9},
			[]Achievement{AchFirstWin, AchFindImpostor, AchPlay10Games, AchPerfectGame},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Achievements(tt.player, tt.before))
		})
	}
}
