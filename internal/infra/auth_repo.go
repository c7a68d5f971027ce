package infra

import (
	"context"
	"database/sql"
	"errors"
)

type AuthRepo struct {
	db *sql.DB
}

func NewAuthRepo(db *sql.DB) *AuthRepo {
	return &AuthRepo{db: db}
}

func (r *AuthRepo) GetPassword(ctx context.Context) (string, error) {
	var password string
	err := r.db.QueryRowContext(
		ctx,
		`SELECT password FROM tts_auth LIMIT 1`,
	).Scan(&password)

	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return password, err
}

// StaticAuthRepo — пароль из env, когда БД не подключена.
type StaticAuthRepo struct {
	password string
}

func NewStaticAuthRepo(password string) *StaticAuthRepo {
	return &StaticAuthRepo{password: password}
}

func (r *StaticAuthRepo) GetPassword(context.Context) (string, error) {
	return r.password, nil
}
