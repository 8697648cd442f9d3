package infra_postgres_pack

import "github.com/partydeck/core/internal/model"

type PackDB struct {
	ID          string `db:"id"`
	Name        string `db:"name"`
	Description string `db:"description"`
}

type QuestionDB struct {
	ID   string `db:"id"`
	Text string `db:"text"`
}

func (p *PackDB) ToDomain(questions []QuestionDB) model.Pack {
	pack := model.Pack{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
	}
	for _, q := range questions {
		pack.Questions = append(pack.Questions, model.Question{ID: q.ID, Text: q.Text})
	}
	return pack
}
