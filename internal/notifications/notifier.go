package notifications

import (
	"context"
	"fmt"
	"strings"
)

type Message struct {
	To      string
	Subject string
	HTML    string
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

const VerificationSubject = "Confirm your registration"

// VerificationLink is the confirmation URL mailed to a new user.
func VerificationLink(baseURL, token string) string {
	return strings.TrimRight(baseURL, "/") + "/users/verify/" + token
}

func VerificationMessage(baseURL, email, token string) Message {
	link := VerificationLink(baseURL, token)

	return Message{
		To:      email,
		Subject: VerificationSubject,
		HTML:    fmt.Sprintf(`<a target="_blank" href="%s">Click to confirm your registration</a>`, link),
	}
}
