// persistence/postgresql.go
package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL 驱动

	"github.com/wfunc/impostor/models"
)

// PostgreSQL 基于 database/sql + lib/pq 的实现
type PostgreSQL struct {
	db *sql.DB
}

// NewPostgreSQL 创建 PostgreSQL 数据库连接
func NewPostgreSQL(host string, port int, user, password, dbname string) (*PostgreSQL, error) {
	db, err := sql.Open("postgres", DSN(host, port, user, password, dbname))
	if err != nil {
		return nil, err
	}

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}

	// 设置连接池参数
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := initTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgreSQL{db: db}, nil
}

// initTables 初始化数据库表结构，与 GORM 迁移出的表一致
func initTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS game_records (
            id UUID PRIMARY KEY,
            lobby_id UUID NOT NULL,
            impostors_won BOOLEAN NOT NULL,
            rounds BIGINT DEFAULT 0,
            started_at TIMESTAMPTZ,
            ended_at TIMESTAMPTZ
        )
    `)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS game_participants (
            id BIGSERIAL PRIMARY KEY,
            game_id UUID NOT NULL REFERENCES game_records(id) ON DELETE CASCADE,
            player_id BIGINT NOT NULL,
            name TEXT NOT NULL,
            role TEXT NOT NULL,
            won BOOLEAN,
            eliminated BOOLEAN,
            votes_cast BIGINT,
            votes_on_impostors BIGINT,
            found_impostor BOOLEAN
        )
    `)
	if err != nil {
		return err
	}

	// 创建索引以提高查询性能
	_, err = db.ExecContext(ctx, `
        CREATE INDEX IF NOT EXISTS idx_game_records_lobby_id ON game_records(lobby_id);
        CREATE INDEX IF NOT EXISTS idx_game_records_ended_at ON game_records(ended_at);
        CREATE INDEX IF NOT EXISTS idx_game_participants_game_id ON game_participants(game_id);
        CREATE INDEX IF NOT EXISTS idx_game_participants_player_id ON game_participants(player_id);
    `)
	return err
}

// SaveGameRecord 保存游戏记录
func (p *PostgreSQL) SaveGameRecord(ctx context.Context, record *models.GameRecord) error {
	if err := validate(record); err != nil {
		return err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
        INSERT INTO game_records (id, lobby_id, impostors_won, rounds, started_at, ended_at)
        VALUES ($1, $2, $3, $4, $5, $6)
    `, record.ID.String(), record.LobbyID.String(), record.ImpostorsWon, record.Rounds,
		record.StartedAt, record.EndedAt)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
        INSERT INTO game_participants
            (game_id, player_id, name, role, won, eliminated, votes_cast, votes_on_impostors, found_impostor)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, pl := range record.Players {
		if _, err := stmt.ExecContext(ctx, record.ID.String(), int64(pl.PlayerID), pl.Name, pl.Role,
			pl.Won, pl.Eliminated, pl.VotesCast, pl.VotesOnImpostors, pl.FoundImpostor); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// LoadGameRecord 加载一局记录
func (p *PostgreSQL) LoadGameRecord(ctx context.Context, id uuid.UUID) (*models.GameRecord, error) {
	r := &models.GameRecord{ID: id}
	var lobby string
	err := p.db.QueryRowContext(ctx, `
        SELECT lobby_id, impostors_won, rounds, started_at, ended_at
        FROM game_records WHERE id = $1
    `, id.String()).Scan(&lobby, &r.ImpostorsWon, &r.Rounds, &r.StartedAt, &r.EndedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	if r.LobbyID, err = uuid.Parse(lobby); err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx, `
        SELECT player_id, name, role, won, eliminated, votes_cast, votes_on_impostors, found_impostor
        FROM game_participants WHERE game_id = $1 ORDER BY id
    `, id.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var pl models.PlayerInfo
		var pid int64
		if err := rows.Scan(&pid, &pl.Name, &pl.Role, &pl.Won, &pl.Eliminated,
			&pl.VotesCast, &pl.VotesOnImpostors, &pl.FoundImpostor); err != nil {
			return nil, err
		}
		pl.PlayerID = uint64(pid)
		r.Players = append(r.Players, pl)
	}
	return r, rows.Err()
}

// PlayerStats 聚合玩家历史
func (p *PostgreSQL) PlayerStats(ctx context.Context, playerID uint64) (*models.PlayerStats, error) {
	var s models.PlayerStats
	err := p.db.QueryRowContext(ctx,
		`SELECT `+statsColumns+` FROM game_participants WHERE player_id = $1`,
		int64(playerID),
	).Scan(&s.GamesPlayed, &s.Wins, &s.Losses, &s.ImpostorGames, &s.ImpostorWins, &s.ImpostorsFound)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Close 关闭数据库连接
func (p *PostgreSQL) Close() error {
	return p.db.Close()
}
