package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	"scoreline/internal/domain"
	"scoreline/internal/engine"
)

type playerPath struct {
	ID int64 `path:"id"`
}

func registerPlayers(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-player",
		Method:        http.MethodPost,
		Path:          "/players",
		Summary:       "Create player",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Body CreatePlayerRequest `json:"body"`
	}) (*struct {
		Body domain.Player `json:"body"`
	}, error) {
		p, err := e.CreatePlayer(ctx, input.Body.Name)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Player `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-players",
		Method:      http.MethodGet,
		Path:        "/players",
		Summary:     "List players",
		Description: "With solo=true only the practice player is returned, created on first use.",
		Errors:      []int{http.StatusBadRequest},
	}, func(ctx context.Context, input *struct {
		Solo   bool   `query:"solo"`
		Limit  int    `query:"limit" default:"50"`
		Cursor string `query:"cursor"`
	}) (*struct {
		Body paginatedPlayers `json:"body"`
	}, error) {
		if input.Solo {
			p, err := e.SoloPlayer(ctx)
			if err != nil {
				return nil, handleError(err)
			}
			return &struct {
				Body paginatedPlayers `json:"body"`
			}{Body: paginatedPlayers{Items: []domain.Player{p}}}, nil
		}
		limit := e.PageLimit(input.Limit)
		cursor, err := parseIDCursor(input.Cursor)
		if err != nil {
			return nil, err
		}
		items, err := e.ListPlayers(ctx, limit+1, cursor)
		if err != nil {
			return nil, handleError(err)
		}
		resp := paginatedPlayers{Items: []domain.Player{}}
		if len(items) > limit {
			items = items[:limit]
			resp.NextCursor = strconv.FormatInt(items[limit-1].ID, 10)
		}
		resp.Items = append(resp.Items, items...)
		return &struct {
			Body paginatedPlayers `json:"body"`
		}{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-player",
		Method:      http.MethodGet,
		Path:        "/players/{id}",
		Summary:     "Get player",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *playerPath) (*struct {
		Body domain.Player `json:"body"`
	}, error) {
		p, err := e.GetPlayer(ctx, input.ID)
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Player `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-player",
		Method:      http.MethodPut,
		Path:        "/players/{id}",
		Summary:     "Update player name or stats",
		Errors:      []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID   int64               `path:"id"`
		Body UpdatePlayerRequest `json:"body"`
	}) (*struct {
		Body domain.Player `json:"body"`
	}, error) {
		p, err := e.UpdatePlayer(ctx, engine.PlayerUpdateOptions{
			ID:           input.ID,
			Name:         input.Body.Name,
			GamesPlayed:  input.Body.GamesPlayed,
			Wins:         input.Body.Wins,
			HighestScore: input.Body.HighestScore,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Player `json:"body"`
		}{Body: p}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-player",
		Method:        http.MethodDelete,
		Path:          "/players/{id}",
		Summary:       "Delete a player without game history",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound, http.StatusConflict},
	}, func(ctx context.Context, input *playerPath) (*struct{}, error) {
		if err := e.DeletePlayer(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-player-games",
		Method:      http.MethodGet,
		Path:        "/players/{id}/games",
		Summary:     "Games a player took part in",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID    int64 `path:"id"`
		Limit int   `query:"limit" default:"50"`
	}) (*struct {
		Body []GameResponse `json:"body"`
	}, error) {
		items, err := e.PlayerGames(ctx, input.ID, e.PageLimit(input.Limit))
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body []GameResponse `json:"body"`
		}{Body: mapGames(items)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-player-scores",
		Method:      http.MethodGet,
		Path:        "/players/{id}/scores",
		Summary:     "Score history of a player",
		Errors:      []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID    int64 `path:"id"`
		Limit int   `query:"limit" default:"50"`
	}) (*struct {
		Body []domain.Score `json:"body"`
	}, error) {
		items, err := e.PlayerScores(ctx, input.ID, e.PageLimit(input.Limit))
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

	huma.Register(api, huma.Operation{
		OperationID: "rankings",
		Method:      http.MethodGet,
		Path:        "/rankings",
		Summary:     "Players ranked by wins then highest score",
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit"`
	}) (*struct {
		Body []domain.Ranking `json:"body"`
	}, error) {
		items, err := e.Rankings(ctx, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.Ranking{}
		}
		return &struct {
			Body []domain.Ranking `json:"body"`
		}{Body: items}, nil
	})
}
