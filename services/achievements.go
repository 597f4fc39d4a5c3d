// services/achievements.go
package services

import "github.com/wfunc/impostor/models"

type Achievement string

const (
	AchFirstWin      Achievement = "ACH_FIRST_WIN"
	AchFindImpostor  Achievement = "ACH_FIND_IMPOSTOR"
	AchWinAsImpostor Achievement = "ACH_WIN_AS_IMPOSTOR"
	AchPlay10Games   Achievement = "ACH_PLAY_10_GAMES"
	AchPerfectGame   Achievement = "ACH_PERFECT_GAME"
)

const gamesForVeteran = 10

// Achievements 根据本局表现和本局之前的历史统计计算解锁的成就。
// 除 PerfectGame 外每个成就只在第一次满足条件时返回。
func Achievements(p models.PlayerInfo, before models.PlayerStats) []Achievement {
	var out []Achievement
	if p.Won && before.Wins == 0 {
		out = append(out, AchFirstWin)
	}
	if p.FoundImpostor && before.ImpostorsFound == 0 {
		out = append(out, AchFindImpostor)
	}
	if p.Won && p.Role == models.RoleImpostor && before.ImpostorWins == 0 {
		out = append(out, AchWinAsImpostor)
	}
	if before.GamesPlayed+1 == gamesForVeteran {
		out = append(out, AchPlay10Games)
	}
	if perfect(p) {
		out = append(out, AchPerfectGame)
	}
	return out
}

// perfect: a civilian who won, survived and only ever voted for impostors.
func perfect(p models.PlayerInfo) bool {
	return p.Role == models.RoleCivilian &&
		p.Won &&
		!p.Eliminated &&
		p.VotesCast > 0 &&
		p.VotesCast == p.VotesOnImpostors
}
