package server

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"scoreline/internal/domain"
	"scoreline/internal/engine"
)

func registerScores(api huma.API, e engine.Engine) {
	huma.Register(api, huma.Operation{
		OperationID: "high-scores",
		Method:      http.MethodGet,
		Path:        "/scores/high",
		Summary:     "Best score of each player",
	}, func(ctx context.Context, input *struct {
		Limit int `query:"limit"`
	}) (*struct {
		Body []domain.HighScore `json:"body"`
	}, error) {
		items, err := e.HighScores(ctx, input.Limit)
		if err != nil {
			return nil, handleError(err)
		}
		if items == nil {
			items = []domain.HighScore{}
		}
		return &struct {
			Body []domain.HighScore `json:"body"`
		}{Body: items}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-score",
		Method:        http.MethodPost,
		Path:          "/scores",
		Summary:       "Record a manual score",
		DefaultStatus: http.StatusCreated,
		Errors:        []int{http.StatusBadRequest, http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		Body CreateScoreRequest `json:"body"`
	}) (*struct {
		Body domain.Score `json:"body"`
	}, error) {
		s, err := e.CreateScore(ctx, domain.Score{
			GameID:   input.Body.GameID,
			PlayerID: input.Body.PlayerID,
			Score:    input.Body.Score,
			Round:    input.Body.Round,
		})
		if err != nil {
			return nil, handleError(err)
		}
		return &struct {
			Body domain.Score `json:"body"`
		}{Body: s}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "delete-score",
		Method:        http.MethodDelete,
		Path:          "/scores/{id}",
		Summary:       "Delete a score",
		DefaultStatus: http.StatusNoContent,
		Errors:        []int{http.StatusNotFound},
	}, func(ctx context.Context, input *struct {
		ID int64 `path:"id"`
	}) (*struct{}, error) {
		if err := e.DeleteScore(ctx, input.ID); err != nil {
			return nil, handleError(err)
		}
		return &struct{}{}, nil
	})
}
