package db

import (
	"context"
	"time"

	"github.com/productivefire/server/internal/auth/entity"
)

func (s *DB) ReplaceCode(ctx context.Context, code entity.VerificationCode) (err error) {
	ctx, span := s.startSpan(ctx, "ReplaceCode")
	defer func() { s.endSpan(span, err) }()

	err = s.mapError(s.query.UpsertCode(ctx, code))
	return err
}

func (s *DB) GetActiveCode(ctx context.Context, email string, p entity.Purpose, now time.Time) (_ *entity.VerificationCode, err error) {
	ctx, span := s.startSpan(ctx, "GetActiveCode")
	defer func() { s.endSpan(span, err) }()

	code, err := s.query.GetActiveCode(ctx, email, p, now)
	if err != nil {
		return nil, s.mapError(err)
	}

	return &code, nil
}

func (s *DB) PurgeExpiredCodes(ctx context.Context, email string, p entity.Purpose, now time.Time) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "PurgeExpiredCodes")
	defer func() { s.endSpan(span, err) }()

	n, err := s.query.DeleteExpiredCodesByPair(ctx, email, p, now)
	return n, s.mapError(err)
}

func (s *DB) DeleteCode(ctx context.Context, email string, p entity.Purpose, digest string) (_ bool, err error) {
	ctx, span := s.startSpan(ctx, "DeleteCode")
	defer func() { s.endSpan(span, err) }()

	n, err := s.query.DeleteCodeByDigest(ctx, email, p, digest)
	if err != nil {
		return false, s.mapError(err)
	}

	return n > 0, nil
}

func (s *DB) SweepExpired(ctx context.Context, now time.Time) (codes, grants int64, err error) {
	ctx, span := s.startSpan(ctx, "SweepExpired")
	defer func() { s.endSpan(span, err) }()

	if codes, err = s.query.DeleteExpiredCodes(ctx, now); err != nil {
		return 0, 0, s.mapError(err)
	}
	if grants, err = s.query.DeleteExpiredGrants(ctx, now); err != nil {
		return codes, 0, s.mapError(err)
	}

	return codes, grants, nil
}
