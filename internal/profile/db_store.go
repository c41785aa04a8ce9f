package profile

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/authz"
	"github.com/Arsene-3DA/aura-hair-booking-sub003/internal/db"
)

// DBStore persists role profiles in Postgres.
type DBStore struct {
	db *db.DB
}

func NewDBStore(db *db.DB) *DBStore {
	return &DBStore{db: db}
}

func (s *DBStore) Get(
	ctx context.Context,
	userID string,
) (*RoleProfile, error) {

	var p RoleProfile
	err := s.db.QueryRowContext(ctx, `
		SELECT user_id, role, display_name, avatar_url,
		       created_at, updated_at
		FROM public.profiles
		WHERE user_id = $1
	`, userID).Scan(
		&p.UserID,
		&p.Role,
		&p.DisplayName,
		&p.AvatarURL,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil // not found
	}
	if err != nil {
		return nil, err
	}

	return &p, nil
}

func (s *DBStore) Create(
	ctx context.Context,
	p RoleProfile,
) (*RoleProfile, error) {

	// ON CONFLICT DO NOTHING keeps concurrent first loads from
	// creating twice; the follow-up select returns whichever insert
	// won.
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO public.profiles (user_id, role, display_name, avatar_url)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id) DO NOTHING
	`,
		p.UserID,
		p.Role,
		p.DisplayName,
		p.AvatarURL,
	)
	if err != nil {
		return nil, err
	}

	created, err := s.Get(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, errors.New("profile: created record not readable")
	}

	return created, nil
}

func (s *DBStore) UpdateRole(
	ctx context.Context,
	userID string,
	role authz.Role,
) error {

	res, err := s.db.ExecContext(ctx, `
		UPDATE public.profiles
		SET role = $2, updated_at = NOW()
		WHERE user_id = $1
	`, userID, role)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}
