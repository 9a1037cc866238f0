package service

import (
	"context"
	"io"
	"log/slog"

	"github.com/stretchr/testify/mock"

	"github.com/rocketscienceinc/tictactoe-engine/internal/entity"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type mockPlayerService struct {
	mock.Mock
}

func (that *mockPlayerService) CreatePlayer(ctx context.Context) (*entity.Player, error) {
	args := that.Called(ctx)
	player, _ := args.Get(0).(*entity.Player)
	return player, args.Error(1)
}

func (that *mockPlayerService) GetPlayerByID(ctx context.Context, id string) (*entity.Player, error) {
	args := that.Called(ctx, id)
	player, _ := args.Get(0).(*entity.Player)
	return player, args.Error(1)
}

func (that *mockPlayerService) UpdatePlayer(ctx context.Context, player *entity.Player) error {
	return that.Called(ctx, player).Error(0)
}

type mockGameService struct {
	mock.Mock
}

func (that *mockGameService) CreateGame(ctx context.Context, player *entity.Player) (*entity.Game, error) {
	args := that.Called(ctx, player)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameService) GetGameByID(ctx context.Context, id string) (*entity.Game, error) {
	args := that.Called(ctx, id)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameService) UpdateGame(ctx context.Context, game *entity.Game) error {
	return that.Called(ctx, game).Error(0)
}

func (that *mockGameService) DeleteGame(ctx context.Context, gameID string) error {
	return that.Called(ctx, gameID).Error(0)
}

type mockGameRepo struct {
	mock.Mock
}

func (that *mockGameRepo) CreateOrUpdate(ctx context.Context, game *entity.Game) error {
	return that.Called(ctx, game).Error(0)
}

func (that *mockGameRepo) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	args := that.Called(ctx, id)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameRepo) DeleteByID(ctx context.Context, id string) error {
	return that.Called(ctx, id).Error(0)
}

type mockPlayerRepo struct {
	mock.Mock
}

func (that *mockPlayerRepo) CreateOrUpdate(ctx context.Context, player *entity.Player) error {
	return that.Called(ctx, player).Error(0)
}

func (that *mockPlayerRepo) GetByID(ctx context.Context, id string) (*entity.Player, error) {
	args := that.Called(ctx, id)
	player, _ := args.Get(0).(*entity.Player)
	return player, args.Error(1)
}
