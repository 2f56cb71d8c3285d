package jobs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/geocoder89/contacts/internal/avatar"
	"github.com/geocoder89/contacts/internal/notifications"
)

// SendVerificationEmailHandler mails the confirmation link carried by the job.
func SendVerificationEmailHandler(n notifications.Notifier, baseURL string) HandlerFunc {
	return func(ctx context.Context, j Job) error {
		decoded, err := DecodePayload(j)
		if err != nil {
			return err
		}

		p, ok := decoded.(SendVerificationEmailPayload)
		if !ok {
			return ErrPayloadTypeMismatch
		}

		msg := notifications.VerificationMessage(baseURL, p.Email, p.VerificationToken)
		if err := n.Send(ctx, msg); err != nil {
			if errors.Is(err, notifications.ErrRejected) {
				return fmt.Errorf("%w: send verification email: %w", ErrPermanent, err)
			}
			return fmt.Errorf("send verification email: %w", err)
		}

		return nil
	}
}

// ResizeAvatarHandler squares an uploaded avatar to size pixels.
func ResizeAvatarHandler(size int, log *slog.Logger) HandlerFunc {
	return func(ctx context.Context, j Job) error {
		decoded, err := DecodePayload(j)
		if err != nil {
			return err
		}

		p, ok := decoded.(ResizeAvatarPayload)
		if !ok {
			return ErrPayloadTypeMismatch
		}

		if err := avatar.Resize(p.Path, size); err != nil {
			// the upload was replaced or is not an image; nothing to retry
			if errors.Is(err, avatar.ErrUndecodable) || errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("%w: resize avatar: %w", ErrPermanent, err)
			}
			return fmt.Errorf("resize avatar: %w", err)
		}

		log.InfoContext(ctx, "avatar resized", "user_id", p.UserID, "path", p.Path, "size", size)
		return nil
	}
}

// Handlers returns the handler for every known job type.
func Handlers(n notifications.Notifier, baseURL string, avatarSize int, log *slog.Logger) map[JobType]HandlerFunc {
	return map[JobType]HandlerFunc{
		JobSendVerificationEmail: SendVerificationEmailHandler(n, baseURL),
		JobResizeAvatar:          ResizeAvatarHandler(avatarSize, log),
	}
}
