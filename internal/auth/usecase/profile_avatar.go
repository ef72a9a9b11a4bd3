package usecase

import (
	"context"
	"log/slog"
	"path"
	"strconv"

	"github.com/productivefire/server/internal/auth/entity"
	"github.com/productivefire/server/internal/pkg/goerror"
	"github.com/productivefire/server/internal/pkg/storage"
	"github.com/samber/lo"
)

// AvatarMaxBytes bounds an avatar upload.
const AvatarMaxBytes = 2 << 20

var avatarExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

type ProfileUpdateAvatarInput struct {
	ContentType string `validate:"required"`
	Data        []byte `validate:"required"`
}

// ProfileUpdateAvatar stores the image and points the account avatar at it.
// The previous stored avatar is removed on a best effort basis.
func (s *Usecase) ProfileUpdateAvatar(ctx context.Context, in ProfileUpdateAvatarInput) (*User, error) {
	ctx, span := s.startSpan(ctx, "ProfileUpdateAvatar")
	defer span.End()

	clm, err := s.authenticated(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	ext, ok := avatarExt[in.ContentType]
	if !ok {
		return nil, goerror.NewInvalidInput(nil, "avatar", "avatar must be a JPEG, PNG or WebP image")
	}
	if len(in.Data) > AvatarMaxBytes {
		return nil, goerror.NewInvalidInput(nil, "avatar", "avatar must be at most 2MB")
	}

	current, err := s.profile(ctx, clm.UserID)
	if err != nil {
		return nil, err
	}

	key := path.Join("avatars", strconv.FormatInt(clm.UserID, 10), s.uuid.Generate()+ext)
	if err := s.storage.Put(ctx, storage.Object{Key: key, ContentType: in.ContentType, Data: in.Data}); err != nil {
		slog.ErrorContext(ctx, "failed to storage put avatar", "account_id", clm.UserID, "key", key, "error", err)
		return nil, goerror.NewServer(err)
	}

	base := s.cfg.GetString("storage.public_base_url")
	if err := s.repoDB.UpdateProfile(ctx, entity.ProfileUpdate{
		ID:        clm.UserID,
		Avatar:    lo.ToPtr(storage.PublicURL(base, key)),
		UpdatedAt: s.clock.Now(),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo update avatar", "account_id", clm.UserID, "error", err)
		if dErr := s.storage.Delete(ctx, key); dErr != nil {
			slog.WarnContext(ctx, "failed to storage delete orphan avatar", "key", key, "error", dErr)
		}
		return nil, goerror.NewServer(err)
	}

	if current.Avatar != nil {
		if oldKey, ok := storage.KeyFromURL(base, *current.Avatar); ok {
			if err := s.storage.Delete(ctx, oldKey); err != nil {
				slog.WarnContext(ctx, "failed to storage delete previous avatar", "key", oldKey, "error", err)
			}
		}
	}

	return s.profile(ctx, clm.UserID)
}
