package db

import (
	"context"
	"time"

	"github.com/productivefire/server/internal/auth/entity"
	"github.com/productivefire/server/internal/pkg/goerror"
)

func (s *DB) GetAccountByEmail(ctx context.Context, email string) (_ *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "GetAccountByEmail")
	defer func() { s.endSpan(span, err) }()

	acc, err := s.query.GetAccountByEmail(ctx, email)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &acc, nil
}

func (s *DB) GetAccountByID(ctx context.Context, id int64) (_ *entity.Account, err error) {
	ctx, span := s.startSpan(ctx, "GetAccountByID")
	defer func() { s.endSpan(span, err) }()

	acc, err := s.query.GetAccountByID(ctx, id)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &acc, nil
}

func (s *DB) UpdateLogin(ctx context.Context, id int64, at time.Time, streak int) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateLogin")
	defer func() { s.endSpan(span, err) }()

	err = s.inTx(ctx, func(q *Queries) error {
		n, err := q.UpdateLogin(ctx, id, at, streak)
		if err != nil {
			return s.mapError(err)
		}
		if n == 0 {
			return goerror.ErrNotFound
		}

		return s.mapError(q.UpdateProgressStreak(ctx, id, streak, at))
	})
	return err
}

func (s *DB) UpdateProfile(ctx context.Context, in entity.ProfileUpdate) (err error) {
	ctx, span := s.startSpan(ctx, "UpdateProfile")
	defer func() { s.endSpan(span, err) }()

	n, err := s.query.UpdateProfile(ctx, in)
	if err != nil {
		return s.mapError(err)
	}
	if n == 0 {
		err = goerror.ErrNotFound
	}

	return err
}

func (s *DB) GetProgress(ctx context.Context, id int64) (_ *entity.Progress, err error) {
	ctx, span := s.startSpan(ctx, "GetProgress")
	defer func() { s.endSpan(span, err) }()

	p, err := s.query.GetProgress(ctx, id)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &p, nil
}
