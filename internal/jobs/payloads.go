package jobs

import "strings"

// payload is implemented by every job payload; pointer forms satisfy it too.
type payload interface {
	jobType() JobType
	validate() error
}

// SendVerificationEmailPayload carries what the mailer needs to build the confirmation link.
type SendVerificationEmailPayload struct {
	Email             string `json:"email"`
	VerificationToken string `json:"verificationToken"`
}

func (SendVerificationEmailPayload) jobType() JobType { return JobSendVerificationEmail }

func (p SendVerificationEmailPayload) validate() error {
	if blank(p.Email) || blank(p.VerificationToken) {
		return ErrInvalidJobPayload
	}
	return nil
}

// ResizeAvatarPayload points at an avatar file already moved into the public directory.
type ResizeAvatarPayload struct {
	UserID string `json:"userId"`
	Path   string `json:"path"`
}

func (ResizeAvatarPayload) jobType() JobType { return JobResizeAvatar }

func (p ResizeAvatarPayload) validate() error {
	if blank(p.UserID) || blank(p.Path) {
		return ErrInvalidJobPayload
	}
	return nil
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
