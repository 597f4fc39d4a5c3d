// services/result_service.go
package services

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wfunc/impostor/game"
	"github.com/wfunc/impostor/logger"
	"github.com/wfunc/impostor/models"
	"github.com/wfunc/impostor/persistence"
	"github.com/wfunc/impostor/roster"
	"github.com/wfunc/impostor/state"
)

// GameSource is the part of *game.Session the recorder reads at game end.
type GameSource interface {
	LobbyID() uuid.UUID
	Players() []roster.Player
	StartedAt() time.Time
	RoundsPlayed() int
}

// AchievementFunc receives what a player unlocked with a stored game.
type AchievementFunc func(playerID uint64, unlocked []Achievement)

type ballot struct {
	voter, target uint64
}

// ResultService 观察主机会话，在游戏结束时写入对局记录并计算成就。
// 观察回调在会话循环上执行，数据库写入在后台 worker 中进行。
type ResultService struct {
	game.BaseObserver

	db     persistence.Database
	src    GameSource
	now    func() time.Time
	notify AchievementFunc

	ballots []ballot
	round   map[uint64]uint64
	found   map[uint64]bool

	jobs   chan *models.GameRecord
	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func NewResultService(db persistence.Database, src GameSource) *ResultService {
	s := &ResultService{
		db:   db,
		src:  src,
		now:  time.Now,
		jobs: make(chan *models.GameRecord, 16),
	}
	s.notify = func(id uint64, unlocked []Achievement) {
		logger.Log.Infof("player %d unlocked %v", id, unlocked)
	}
	s.reset()
	return s
}

// OnAchievements replaces the default (logging) achievement sink.
func (s *ResultService) OnAchievements(fn AchievementFunc) { s.notify = fn }

func (s *ResultService) SetClock(now func() time.Time) { s.now = now }

func (s *ResultService) reset() {
	s.ballots = nil
	s.round = make(map[uint64]uint64)
	s.found = make(map[uint64]bool)
}

// Start 启动写入 worker，只有 Close 会让它退出，队列里的记录都会写完。
// ctx 的取消不会中断写入。
func (s *ResultService) Start(ctx context.Context) {
	ctx = context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for r := range s.jobs {
			s.store(ctx, r)
		}
	}()
}

// Close stops accepting records and waits for the queue to drain.
func (s *ResultService) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.jobs)
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *ResultService) store(ctx context.Context, r *models.GameRecord) {
	before := make(map[uint64]models.PlayerStats, len(r.Players))
	for _, p := range r.Players {
		st, err := s.db.PlayerStats(ctx, p.PlayerID)
		if err != nil {
			logger.Log.Warnf("load stats for %d: %v", p.PlayerID, err)
			continue
		}
		before[p.PlayerID] = *st
	}

	if err := s.db.SaveGameRecord(ctx, r); err != nil {
		logger.Log.Warnf("save game %s: %v", r.ID, err)
		return
	}
	logger.Log.Infof("stored game %s (%d players, impostors won=%t)", r.ID, len(r.Players), r.ImpostorsWon)

	for _, p := range r.Players {
		st, ok := before[p.PlayerID]
		if !ok {
			continue
		}
		if unlocked := Achievements(p, st); len(unlocked) > 0 {
			s.notify(p.PlayerID, unlocked)
		}
	}
}

func (s *ResultService) PlayerStats(ctx context.Context, playerID uint64) (*models.PlayerStats, error) {
	return s.db.PlayerStats(ctx, playerID)
}

// ---- game.Observer ----

func (s *ResultService) OnStateChanged(_, to state.Phase) {
	if to == state.PhaseGameStarting {
		s.reset()
	}
}

func (s *ResultService) OnVotingStarted(time.Time) {
	clear(s.round)
}

func (s *ResultService) OnVoteCast(voter, target uint64) {
	if target == roster.Abstain {
		return
	}
	s.round[voter] = target
	s.ballots = append(s.ballots, ballot{voter, target})
}

func (s *ResultService) OnVotingEnded(eliminated uint64, wasImpostor bool) {
	if eliminated == roster.Abstain || !wasImpostor {
		return
	}
	for voter, target := range s.round {
		if target == eliminated {
			s.found[voter] = true
		}
	}
}

func (s *ResultService) OnGameEnded(impostorsWon bool, impostorIDs []uint64) {
	r := s.buildRecord(impostorsWon, impostorIDs)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.jobs <- r:
	default:
		logger.Log.Warnf("result queue full, dropping game %s", r.ID)
	}
}

func (s *ResultService) buildRecord(impostorsWon bool, impostorIDs []uint64) *models.GameRecord {
	r := &models.GameRecord{
		ID:           uuid.New(),
		LobbyID:      s.src.LobbyID(),
		ImpostorsWon: impostorsWon,
		Rounds:       s.src.RoundsPlayed(),
		StartedAt:    s.src.StartedAt(),
		EndedAt:      s.now(),
	}
	for _, p := range s.src.Players() {
		if p.Role == roster.RoleNone {
			continue
		}
		impostor := p.Role == roster.RoleImpostor
		info := models.PlayerInfo{
			PlayerID:      p.ID,
			Name:          p.Name,
			Role:          p.Role.String(),
			Won:           impostor == impostorsWon,
			Eliminated:    p.Eliminated,
			FoundImpostor: s.found[p.ID],
		}
		for _, b := range s.ballots {
			if b.voter != p.ID {
				continue
			}
			info.VotesCast++
			if slices.Contains(impostorIDs, b.target) {
				info.VotesOnImpostors++
			}
		}
		r.Players = append(r.Players, info)
	}
	return r
}
