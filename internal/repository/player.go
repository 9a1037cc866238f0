package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

var ErrPlayerNotFound = errors.New("player not found")

const (
	playerKeyPrefix = "player:"

	playerFieldID     = "id"
	playerFieldMark   = "mark"
	playerFieldGameID = "game_id"
)

type PlayerRepository interface {
	CreateOrUpdate(ctx context.Context, player *entity.Player) error
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type dbPlayer struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPlayerRepository keeps human players as Redis hashes. Every read and write
// pushes the expiry ttl forward, so only idle players expire; zero disables it.
func NewPlayerRepository(client *redis.Client, ttl time.Duration) PlayerRepository {
	return &dbPlayer{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbPlayer) CreateOrUpdate(ctx context.Context, player *entity.Player) error {
	key := playerKeyPrefix + player.ID

	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			playerFieldID, player.ID,
			playerFieldMark, player.Mark,
			playerFieldGameID, player.GameID,
		)
		that.touch(ctx, pipe, key)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set player: %w", err)
	}

	return nil
}

func (that *dbPlayer) GetByID(ctx context.Context, id string) (*entity.Player, error) {
	key := playerKeyPrefix + id

	var fields *redis.MapStringStringCmd

	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		fields = pipe.HGetAll(ctx, key)
		that.touch(ctx, pipe, key)

		return nil
	})
	if err != nil {
		return &entity.Player{}, fmt.Errorf("failed to get player by ID: %w", err)
	}

	values := fields.Val()
	if len(values) == 0 {
		return &entity.Player{}, ErrPlayerNotFound
	}

	return &entity.Player{
		ID:     values[playerFieldID],
		Mark:   values[playerFieldMark],
		GameID: values[playerFieldGameID],
	}, nil
}

func (that *dbPlayer) touch(ctx context.Context, pipe redis.Pipeliner, key string) {
	if that.ttl > 0 {
		pipe.Expire(ctx, key, that.ttl)
	}
}
