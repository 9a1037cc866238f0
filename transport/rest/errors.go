package rest

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/rocketscienceinc/tictactoe-engine/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-engine/internal/minimax"
	"github.com/rocketscienceinc/tictactoe-engine/internal/repository"
)

// statusFromError maps domain errors onto HTTP status codes. Order matters: wrapped
// errors may match several sentinels and the more specific one comes first.
func statusFromError(err error) int {
	switch {
	case errors.Is(err, apperror.ErrMalformedBoard),
		errors.Is(err, apperror.ErrInvalidCell),
		errors.Is(err, apperror.ErrInvalidMark):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrPlayerNotFound),
		errors.Is(err, repository.ErrGameNotFound),
		errors.Is(err, apperror.ErrNoActiveGames):
		return http.StatusNotFound
	case errors.Is(err, apperror.ErrGameFinished),
		errors.Is(err, apperror.ErrGameIsNotStarted):
		return http.StatusConflict
	case errors.Is(err, apperror.ErrInvalidMove),
		errors.Is(err, apperror.ErrCellOccupied),
		errors.Is(err, apperror.ErrNotYourTurn):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, minimax.ErrNodeBudgetExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (that *Server) sendError(ctx echo.Context, method string, err error) error {
	status := statusFromError(err)

	if status == http.StatusInternalServerError {
		that.logger.Error("request failed", "method", method, "error", err)
		return ctx.JSON(status, errorResponse{Error: "Internal Server Error"})
	}

	that.logger.Info("request rejected", "method", method, "status", status, "error", err)

	return ctx.JSON(status, errorResponse{Error: err.Error()})
}
