package db

import (
	"context"

	"github.com/productivefire/server/internal/auth/entity"
	"github.com/productivefire/server/internal/pkg/goerror"
)

// CreateAccount consumes the signup code (when in.CodeDigest is set), then
// inserts the account and its progress row, all in one transaction.
// A missing code is ErrNotFound and a taken email is ErrConflict.
func (s *DB) CreateAccount(ctx context.Context, in entity.NewAccount) (err error) {
	ctx, span := s.startSpan(ctx, "CreateAccount")
	defer func() { s.endSpan(span, err) }()

	err = s.inTx(ctx, func(q *Queries) error {
		if in.CodeDigest != "" {
			n, err := q.DeleteCodeByDigest(ctx, in.Email, entity.PurposeSignup, in.CodeDigest)
			if err != nil {
				return s.mapError(err)
			}
			if n == 0 {
				return goerror.ErrNotFound
			}
		}

		if err := q.InsertAccount(ctx, in); err != nil {
			return s.mapError(err)
		}

		return s.mapError(q.InsertProgress(ctx, in.ID, in.Now))
	})
	return err
}

// ResetPassword records the grant, swaps the hash and drops every code for
// the email. A reused grant is ErrConflict and a missing account ErrNotFound.
func (s *DB) ResetPassword(ctx context.Context, in entity.PasswordReset) (err error) {
	ctx, span := s.startSpan(ctx, "ResetPassword")
	defer func() { s.endSpan(span, err) }()

	err = s.inTx(ctx, func(q *Queries) error {
		if err := q.InsertUsedGrant(ctx, in.GrantID, in.Email, in.Now, in.GrantExpiresAt); err != nil {
			return s.mapError(err)
		}

		n, err := q.UpdatePasswordByEmail(ctx, in.Email, in.PasswordHash, in.Now)
		if err != nil {
			return s.mapError(err)
		}
		if n == 0 {
			return goerror.ErrNotFound
		}

		return s.mapError(q.DeleteCodesByEmail(ctx, in.Email))
	})
	return err
}
