// Package infra_postgres_pack reads the question-pack catalog. Packs are
// owned externally and never written from this service.
package infra_postgres_pack

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/partydeck/core/internal/model"
)

var ErrPackNotFound = errors.New("question pack not found")

type Repository struct {
	db *sqlx.DB
}

func New(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) LoadByID(ctx context.Context, id string) (model.Pack, error) {
	const packQuery = `
		SELECT id, name, description
		FROM question_packs
		WHERE id = $1
	`

	var packRow PackDB
	err := r.db.GetContext(ctx, &packRow, packQuery, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Pack{}, ErrPackNotFound
		}
		return model.Pack{}, fmt.Errorf("failed to load pack %s: %w", id, err)
	}

	const questionsQuery = `
		SELECT id, text
		FROM pack_questions
		WHERE pack_id = $1
		ORDER BY position
	`

	var questionRows []QuestionDB
	if err := r.db.SelectContext(ctx, &questionRows, questionsQuery, id); err != nil {
		return model.Pack{}, fmt.Errorf("failed to load questions for pack %s: %w", id, err)
	}

	return packRow.ToDomain(questionRows), nil
}

func (r *Repository) LoadAll(ctx context.Context) ([]model.Pack, error) {
	const q = `
		SELECT id, name, description
		FROM question_packs
		ORDER BY name
	`

	var rows []PackDB
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("failed to load packs: %w", err)
	}

	packs := make([]model.Pack, 0, len(rows))
	for _, row := range rows {
		packs = append(packs, row.ToDomain(nil))
	}
	return packs, nil
}
