// persistence/interface.go
package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/wfunc/impostor/errs"
	"github.com/wfunc/impostor/models"
)

// Database 对局历史存储接口
type Database interface {
	SaveGameRecord(ctx context.Context, record *models.GameRecord) error
	LoadGameRecord(ctx context.Context, id uuid.UUID) (*models.GameRecord, error)
	// PlayerStats aggregates every stored game of playerID. A player with no
	// history gets zero stats, not an error.
	PlayerStats(ctx context.Context, playerID uint64) (*models.PlayerStats, error)
	Close() error
}

// 错误定义
var (
	ErrRecordNotFound = fmt.Errorf("%w: record not found", errs.ErrResource)
	ErrInvalidRecord  = fmt.Errorf("%w: invalid game record", errs.ErrValidation)
)

// statsColumns 两个 SQL 实现共用的聚合列
const statsColumns = `
        COUNT(*) AS games_played,
        COALESCE(SUM(CASE WHEN won THEN 1 ELSE 0 END), 0) AS wins,
        COALESCE(SUM(CASE WHEN won THEN 0 ELSE 1 END), 0) AS losses,
        COALESCE(SUM(CASE WHEN role = 'impostor' THEN 1 ELSE 0 END), 0) AS impostor_games,
        COALESCE(SUM(CASE WHEN role = 'impostor' AND won THEN 1 ELSE 0 END), 0) AS impostor_wins,
        COALESCE(SUM(CASE WHEN found_impostor THEN 1 ELSE 0 END), 0) AS impostors_found`

func validate(r *models.GameRecord) error {
	if r == nil {
		return fmt.Errorf("%w: nil", ErrInvalidRecord)
	}
	if r.ID == uuid.Nil {
		return fmt.Errorf("%w: missing id", ErrInvalidRecord)
	}
	if len(r.Players) == 0 {
		return fmt.Errorf("%w: no players", ErrInvalidRecord)
	}
	seen := make(map[uint64]bool, len(r.Players))
	for _, p := range r.Players {
		if p.PlayerID == 0 || seen[p.PlayerID] {
			return fmt.Errorf("%w: bad player id %d", ErrInvalidRecord, p.PlayerID)
		}
		seen[p.PlayerID] = true
	}
	return nil
}

func IsNotFound(err error) bool { return errors.Is(err, ErrRecordNotFound) }
