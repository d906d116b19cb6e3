package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"bulkmail/internal/models"
)

func (s *Store) CreateTemplate(ctx context.Context, name, subject, body string) (*models.EmailTemplate, error) {
	t := models.EmailTemplate{Name: name, Subject: subject, Body: body}

	err := s.Pool.QueryRow(ctx,
		`INSERT INTO email_templates (name, subject, body, created_at, updated_at)
		 VALUES ($1,$2,$3,NOW(),NOW())
		 RETURNING id, created_at, updated_at`,
		name, subject, body,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (s *Store) GetTemplate(ctx context.Context, id int64) (*models.EmailTemplate, error) {
	var t models.EmailTemplate

	err := s.Pool.QueryRow(ctx,
		`SELECT id, name, subject, body, created_at, updated_at
		 FROM email_templates
		 WHERE id=$1`,
		id,
	).Scan(&t.ID, &t.Name, &t.Subject, &t.Body, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (s *Store) ListTemplates(ctx context.Context) ([]models.EmailTemplate, error) {
	rows, err := s.Pool.Query(ctx,
		`SELECT id, name, subject, body, created_at, updated_at
		 FROM email_templates
		 ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]models.EmailTemplate, 0)
	for rows.Next() {
		var t models.EmailTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Subject, &t.Body, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}

	return templates, rows.Err()
}

func (s *Store) UpdateTemplate(ctx context.Context, id int64, name, subject, body string) (*models.EmailTemplate, error) {
	t := models.EmailTemplate{ID: id, Name: name, Subject: subject, Body: body}

	err := s.Pool.QueryRow(ctx,
		`UPDATE email_templates
		 SET name=$1, subject=$2, body=$3, updated_at=NOW()
		 WHERE id=$4
		 RETURNING created_at, updated_at`,
		name, subject, body, id,
	).Scan(&t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (s *Store) DeleteTemplate(ctx context.Context, id int64) error {
	tag, err := s.Pool.Exec(ctx, `DELETE FROM email_templates WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
