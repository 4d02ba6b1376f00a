package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/arvanplay/gamecore/pkg/games/types"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(ctx context.Context, path string, migrations string) (Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	dir, err := os.ReadDir(migrations)
	if err != nil {
		return nil, fmt.Errorf("failed to read migrations directory: %v", err)
	}

	for _, entry := range dir {
		if entry.IsDir() {
			continue
		}

		migrationPath := filepath.Join(migrations, entry.Name())
		migration, err := os.ReadFile(migrationPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %v", migrationPath, err)
		}

		if _, err := db.ExecContext(ctx, string(migration)); err != nil {
			return nil, fmt.Errorf("failed to execute migration %s: %v", migrationPath, err)
		}
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) CreateGame(ctx context.Context, game *types.Game, roster []types.Participant) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	q := `
	INSERT INTO games (id, game_type, status, stake, created_at, prize_pool)
	VALUES (?, ?, ?, ?, ?, 0);
	`
	if _, err := tx.ExecContext(ctx, q, game.ID.String(), game.Variant, game.Status, game.Stake, game.CreatedAt.UnixMilli()); err != nil {
		return fmt.Errorf("failed to insert game: %v", err)
	}

	for _, p := range roster {
		q := `
		INSERT INTO game_players (game_id, user_id, position, credit_change)
		VALUES (?, ?, ?, 0);
		`
		if _, err := tx.ExecContext(ctx, q, game.ID.String(), p.PlayerID.String(), p.Position); err != nil {
			return fmt.Errorf("failed to insert participant: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) LoadGame(ctx context.Context, gameID uuid.UUID) (*types.Game, error) {
	q := `
	SELECT id, game_type, status, stake, created_at, started_at, completed_at, winner, prize_pool
	FROM games WHERE id = ?;
	`
	var (
		id          string
		createdAt   int64
		startedAt   sql.NullInt64
		completedAt sql.NullInt64
		winner      sql.NullString
	)
	game := &types.Game{}
	err := r.db.QueryRowContext(ctx, q, gameID.String()).Scan(
		&id, &game.Variant, &game.Status, &game.Stake,
		&createdAt, &startedAt, &completedAt, &winner, &game.PrizePool,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan game: %v", err)
	}

	game.ID, err = uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("failed to parse game id: %v", err)
	}
	game.CreatedAt = time.UnixMilli(createdAt)
	if startedAt.Valid {
		t := time.UnixMilli(startedAt.Int64)
		game.StartedAt = &t
	}
	if completedAt.Valid {
		t := time.UnixMilli(completedAt.Int64)
		game.CompletedAt = &t
	}
	if winner.Valid {
		w, err := uuid.Parse(winner.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse winner id: %v", err)
		}
		game.Winner = &w
	}
	return game, nil
}

func (r *SQLiteRepository) LoadRoster(ctx context.Context, gameID uuid.UUID) ([]types.Participant, error) {
	q := `
	SELECT user_id, position FROM game_players WHERE game_id = ? ORDER BY position;
	`
	rows, err := r.db.QueryContext(ctx, q, gameID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query roster: %v", err)
	}
	defer rows.Close()

	var roster []types.Participant
	for rows.Next() {
		var playerID string
		var p types.Participant
		if err := rows.Scan(&playerID, &p.Position); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %v", err)
		}
		p.PlayerID, err = uuid.Parse(playerID)
		if err != nil {
			return nil, fmt.Errorf("failed to parse player id: %v", err)
		}
		roster = append(roster, p)
	}
	return roster, nil
}

func (r *SQLiteRepository) MarkGameStarted(ctx context.Context, gameID uuid.UUID, startedAt time.Time) error {
	q := `
	UPDATE games SET status = ?, started_at = ? WHERE id = ? AND status = ?;
	`
	result, err := r.db.ExecContext(ctx, q, types.GameStatusActive, startedAt.UnixMilli(), gameID.String(), types.GameStatusWaiting)
	if err != nil {
		return fmt.Errorf("failed to mark game started: %v", err)
	}
	return requireRowsAffected(result)
}

func (r *SQLiteRepository) MarkGameAborted(ctx context.Context, gameID uuid.UUID, abortedAt time.Time) error {
	q := `
	UPDATE games SET status = ?, completed_at = ? WHERE id = ? AND status IN (?, ?);
	`
	result, err := r.db.ExecContext(ctx, q, types.GameStatusAborted, abortedAt.UnixMilli(), gameID.String(), types.GameStatusWaiting, types.GameStatusActive)
	if err != nil {
		return fmt.Errorf("failed to mark game aborted: %v", err)
	}
	return requireRowsAffected(result)
}

func (r *SQLiteRepository) PersistSettlement(ctx context.Context, gameID uuid.UUID, winner *uuid.UUID, prizes map[uuid.UUID]int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %v", err)
	}
	defer tx.Rollback()

	var prizePool int64
	for _, prize := range prizes {
		prizePool += prize
	}

	var winnerID interface{}
	if winner != nil {
		winnerID = winner.String()
	}

	q := `
	UPDATE games SET status = ?, completed_at = ?, winner = ?, prize_pool = ?
	WHERE id = ? AND status = ?;
	`
	result, err := tx.ExecContext(ctx, q, types.GameStatusCompleted, time.Now().UTC().UnixMilli(), winnerID, prizePool, gameID.String(), types.GameStatusActive)
	if err != nil {
		return fmt.Errorf("failed to update game: %v", err)
	}
	if err := requireRowsAffected(result); err != nil {
		return err
	}

	for playerID, prize := range prizes {
		q := `
		UPDATE game_players SET credit_change = ? WHERE game_id = ? AND user_id = ?;
		`
		if _, err := tx.ExecContext(ctx, q, prize, gameID.String(), playerID.String()); err != nil {
			return fmt.Errorf("failed to update participant credit: %v", err)
		}

		q = `
		UPDATE users SET balance = balance + ? WHERE id = ?;
		`
		if _, err := tx.ExecContext(ctx, q, prize, playerID.String()); err != nil {
			return fmt.Errorf("failed to update player balance: %v", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %v", err)
	}
	return nil
}

func (r *SQLiteRepository) SaveRoundHistory(ctx context.Context, gameID uuid.UUID, history []byte) error {
	q := `
	UPDATE games SET round_history = ? WHERE id = ?;
	`
	result, err := r.db.ExecContext(ctx, q, history, gameID.String())
	if err != nil {
		return fmt.Errorf("failed to save round history: %v", err)
	}
	return requireRowsAffected(result)
}

func requireRowsAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %v", err)
	}
	if affected == 0 {
		return &ErrNotFound{}
	}
	return nil
}
