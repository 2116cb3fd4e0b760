package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"scoreline/internal/domain"
	"scoreline/internal/engine"
	"scoreline/internal/repo"
	"scoreline/internal/turn"
)

type gamePath struct {
	ID int64 `path:"id"`
}

func registerGames(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "start-game",
		Method:        http.MethodPost,
		Path:          "/games",
		Summary:       "Start a game",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body CreateGameRequest `json:"body"`
	}) (*struct {
		Body GameResponse `json:"body"`
	}, error) {
		gameType, err := turn.ParseGameType(input.Body.GameType)
		if err != nil {
			return nil, handleError(err)
		}
		g, err := e.StartGame(ctx, gameType, input.Body.PlayerIDs)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body GameResponse `json:"body"`
		}{Body: gameResponse(g)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-games",
		Method:      http.MethodGet,
		Path:        "/games",
		Summary:     "List games, newest first",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		PlayerID  int64  `query:"player_id"`
		Completed string `query:"completed" enum:"true,false"`
		Limit     int    `query:"limit" default:"50"`
		Cursor    string `query:"cursor"`
	}) (*struct {
		Body paginatedGames `json:"body"`
	}, error) {
		completed, err := parseOptionalBool("completed", input.Completed)
		if err != nil {
			return nil, err
		}
		cursorTS, cursorID, err := parseCompositeCursor(input.Cursor)
		if err != nil {
			return nil, newAPIError(http.StatusBadRequest, "bad_request", err.Error(), map[string]any{"cursor": input.Cursor})
		}
		limit := e.PageLimit(input.Limit)
		items, err := e.Repo.ListGames(ctx, repo.GameFilters{
			PlayerID:        input.PlayerID,
			Completed:       completed,
			Limit:           limit + 1,
			CursorCreatedAt: cursorTS,
			CursorID:        cursorID,
		})
		if err != nil {
			return nil, handleError(err)
		}
		resp := paginatedGames{}
		if len(items) > limit {
			items = items[:limit]
			last := items[limit-1]
			resp.NextCursor = composeCursor(last.CreatedAt, last.ID)
		}
		resp.Items = mapGames(items)
		return &struct {
			Body paginatedGames `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "recent-games",
		Method:      http.MethodGet,
		Path:        "/games/recent",
		Summary:     "Most recently started games",
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit"`
	}) (*struct {
		Body []GameResponse `json:"body"`
	}, error) {
		items, err := e.RecentGames(ctx, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []GameResponse `json:"body"`
		}{Body: mapGames(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-game",
		Method:      http.MethodGet,
		Path:        "/games/{id}",
		Summary:     "Get game",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *gamePath) (*struct {
		Body GameResponse `json:"body"`
	}, error) {
		g, err := e.GetGame(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body GameResponse `json:"body"`
		}{Body: gameResponse(g)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "view-game",
		Method:      http.MethodGet,
		Path:        "/games/{id}/view",
		Summary:     "Scoreboard view of a game",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *gamePath) (*struct {
		Body GameViewResponse `json:"body"`
	}, error) {
		v, err := e.ViewGame(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body GameViewResponse `json:"body"`
		}{Body: gameViewResponse(v)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-game",
		Method:      http.MethodPut,
		Path:        "/games/{id}",
		Summary:     "Override completion and winner",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   int64             `path:"id"`
		Body UpdateGameRequest `json:"body"`
	}) (*struct {
		Body GameResponse `json:"body"`
	}, error) {
		g, err := e.UpdateGame(ctx, engine.GameUpdateOptions{
			ID:        input.ID,
			Completed: input.Body.Completed,
			Winner:    input.Body.Winner,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body GameResponse `json:"body"`
		}{Body: gameResponse(g)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-game",
		Method:        http.MethodDelete,
		Path:          "/games/{id}",
		Summary:       "Delete game and reverse its stats",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *gamePath) (*struct{}, error) {
		if err := e.DeleteGame(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "throw",
		Method:      http.MethodPost,
		Path:        "/games/{id}/throws",
		Summary:     "Record a dart for the active player",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ID   int64        `path:"id"`
		Body ThrowRequest `json:"body"`
	}) (*struct {
		Body ThrowResponse `json:"body"`
	}, error) {
		t, err := input.Body.throw()
		if err != nil {
			return nil, handleError(err)
		}
		res, err := e.Throw(ctx, input.ID, t)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ThrowResponse `json:"body"`
		}{Body: throwResponse(res)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "validate-throw",
		Method:      http.MethodPost,
		Path:        "/games/{id}/validate",
		Summary:     "Check whether a throw would be accepted",
		Description: "Advisory only; nothing is recorded.",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *struct {
		ID   int64        `path:"id"`
		Body ThrowRequest `json:"body"`
	}) (*struct {
		Body ThrowCheckResponse `json:"body"`
	}, error) {
		t, err := input.Body.throw()
		if err != nil {
			return nil, handleError(err)
		}
		check, err := e.CheckThrow(ctx, input.ID, t)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body ThrowCheckResponse `json:"body"`
		}{Body: ThrowCheckResponse{
			PlayerID:      check.PlayerID,
			ExpectedValid: check.ExpectedValid,
			Target:        check.Target,
			Points:        check.Points,
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "undo-throw",
		Method:      http.MethodPost,
		Path:        "/games/{id}/undo",
		Summary:     "Take back the last dart",
		Errors:      []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *gamePath) (*struct {
		Body GameResponse `json:"body"`
	}, error) {
		g, err := e.Undo(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body GameResponse `json:"body"`
		}{Body: gameResponse(g)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-game-scores",
		Method:      http.MethodGet,
		Path:        "/games/{id}/scores",
		Summary:     "Score events of a game",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *gamePath) (*struct {
		Body []domain.Score `json:"body"`
	}, error) {
		items, err := e.GameScores(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.Score{}
		}
		return &struct {
			Body []domain.Score `json:"body"`
		}{Body: items}, nil
	})
}
