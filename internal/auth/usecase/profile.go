package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/productivefire/server/internal/auth/entity"
	"github.com/productivefire/server/internal/pkg/goerror"
	"github.com/productivefire/server/internal/pkg/valueobject"
	"github.com/samber/lo"
)

func (s *Usecase) Profile(ctx context.Context) (*User, error) {
	ctx, span := s.startSpan(ctx, "Profile")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	return s.profile(ctx, clm.UserID)
}

func (s *Usecase) profile(ctx context.Context, id int64) (*User, error) {
	acc, err := s.repoDB.GetAccountByID(ctx, id)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "profile of missing account", "account_id", id)
		return nil, errUserNotFound()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account by id", "account_id", id, "error", err)
		return nil, goerror.NewServer(err)
	}

	u := newUser(acc)
	return &u, nil
}

type ProfileUpdateInput struct {
	Name     *string `validate:"omitnil,min=2,max=100"`
	Avatar   *string `validate:"omitnil,max=2048"`
	Settings map[string]any
}

// ProfileUpdate applies the present fields. Settings are merged key by key
// and an empty avatar clears it.
func (s *Usecase) ProfileUpdate(ctx context.Context, in ProfileUpdateInput) (*User, error) {
	ctx, span := s.startSpan(ctx, "ProfileUpdate")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		in.Name = lo.ToPtr(strings.TrimSpace(*in.Name))
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	acc, err := s.repoDB.GetAccountByID(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		return nil, errUserNotFound()
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get account by id", "account_id", clm.UserID, "error", err)
		return nil, goerror.NewServer(err)
	}

	var settings valueobject.JSONMap
	if len(in.Settings) > 0 {
		settings = acc.Settings.Merge(in.Settings)
	}

	if err := s.repoDB.UpdateProfile(ctx, entity.ProfileUpdate{
		ID:        acc.ID,
		Name:      in.Name,
		Avatar:    in.Avatar,
		Settings:  settings,
		UpdatedAt: s.clock.Now(),
	}); err != nil {
		if errors.Is(err, goerror.ErrNotFound) {
			return nil, errUserNotFound()
		}
		slog.ErrorContext(ctx, "failed to repo update profile", "account_id", acc.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	return s.profile(ctx, acc.ID)
}
