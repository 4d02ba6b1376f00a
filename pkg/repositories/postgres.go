package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/arvanplay/gamecore/pkg/games/types"
)

type PostgresRepository struct {
	conn *pgx.Conn
}

// NewPostgresRepository creates a new PostgresRepository.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) (Repository, error) {
	conn, err := pgx.Connect(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}
	return &PostgresRepository{
		conn: conn,
	}, nil
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	return r.conn.Close(ctx)
}

func (r *PostgresRepository) CreateGame(ctx context.Context, game *types.Game, roster []types.Participant) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	q := `
	INSERT INTO games (id, game_type, status, stake, created_at, prize_pool)
	VALUES ($1, $2, $3, $4, $5, 0);
	`
	if _, err := tx.Exec(ctx, q, game.ID, game.Variant, game.Status, game.Stake, game.CreatedAt); err != nil {
		return fmt.Errorf("failed to insert game: %v", err)
	}

	for _, p := range roster {
		q := `
		INSERT INTO game_players (game_id, user_id, position, credit_change)
		VALUES ($1, $2, $3, 0);
		`
		if _, err := tx.Exec(ctx, q, game.ID, p.PlayerID, p.Position); err != nil {
			return fmt.Errorf("failed to insert participant: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

func (r *PostgresRepository) LoadGame(ctx context.Context, gameID uuid.UUID) (*types.Game, error) {
	q := `
	SELECT id, game_type, status, stake, created_at, started_at, completed_at, winner, prize_pool
	FROM games WHERE id = $1;
	`
	game := &types.Game{}
	err := r.conn.QueryRow(ctx, q, gameID).Scan(
		&game.ID, &game.Variant, &game.Status, &game.Stake,
		&game.CreatedAt, &game.StartedAt, &game.CompletedAt,
		&game.Winner, &game.PrizePool,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan game: %v", err)
	}
	return game, nil
}

func (r *PostgresRepository) LoadRoster(ctx context.Context, gameID uuid.UUID) ([]types.Participant, error) {
	q := `
	SELECT user_id, position FROM game_players WHERE game_id = $1 ORDER BY position;
	`
	rows, err := r.conn.Query(ctx, q, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to query roster: %v", err)
	}
	defer rows.Close()

	var roster []types.Participant
	for rows.Next() {
		var p types.Participant
		if err := rows.Scan(&p.PlayerID, &p.Position); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %v", err)
		}
		roster = append(roster, p)
	}
	return roster, nil
}

func (r *PostgresRepository) MarkGameStarted(ctx context.Context, gameID uuid.UUID, startedAt time.Time) error {
	q := `
	UPDATE games SET status = $2, started_at = $3 WHERE id = $1 AND status = $4;
	`
	tag, err := r.conn.Exec(ctx, q, gameID, types.GameStatusActive, startedAt, types.GameStatusWaiting)
	if err != nil {
		return fmt.Errorf("failed to mark game started: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{}
	}
	return nil
}

func (r *PostgresRepository) MarkGameAborted(ctx context.Context, gameID uuid.UUID, abortedAt time.Time) error {
	q := `
	UPDATE games SET status = $2, completed_at = $3 WHERE id = $1 AND status IN ($4, $5);
	`
	tag, err := r.conn.Exec(ctx, q, gameID, types.GameStatusAborted, abortedAt, types.GameStatusWaiting, types.GameStatusActive)
	if err != nil {
		return fmt.Errorf("failed to mark game aborted: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{}
	}
	return nil
}

func (r *PostgresRepository) PersistSettlement(ctx context.Context, gameID uuid.UUID, winner *uuid.UUID, prizes map[uuid.UUID]int64) error {
	tx, err := r.conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx)

	var prizePool int64
	for _, prize := range prizes {
		prizePool += prize
	}

	q := `
	UPDATE games SET status = $2, completed_at = $3, winner = $4, prize_pool = $5
	WHERE id = $1 AND status = $6;
	`
	tag, err := tx.Exec(ctx, q, gameID, types.GameStatusCompleted, time.Now().UTC(), winner, prizePool, types.GameStatusActive)
	if err != nil {
		return fmt.Errorf("failed to update game: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{}
	}

	for playerID, prize := range prizes {
		q := `
		UPDATE game_players SET credit_change = $3 WHERE game_id = $1 AND user_id = $2;
		`
		if _, err := tx.Exec(ctx, q, gameID, playerID, prize); err != nil {
			return fmt.Errorf("failed to update participant credit: %v", err)
		}

		q = `
		UPDATE users SET balance = balance + $2 WHERE id = $1;
		`
		if _, err := tx.Exec(ctx, q, playerID, prize); err != nil {
			return fmt.Errorf("failed to update player balance: %v", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

func (r *PostgresRepository) SaveRoundHistory(ctx context.Context, gameID uuid.UUID, history []byte) error {
	q := `
	UPDATE games SET round_history = $2 WHERE id = $1;
	`
	tag, err := r.conn.Exec(ctx, q, gameID, history)
	if err != nil {
		return fmt.Errorf("failed to save round history: %v", err)
	}
	if tag.RowsAffected() == 0 {
		return &ErrNotFound{}
	}
	return nil
}
