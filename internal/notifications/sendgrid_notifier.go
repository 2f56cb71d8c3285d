package notifications

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
)

// ErrRejected marks a message the provider refused outright (bad recipient,
// bad request). Resending the same message will not help.
var ErrRejected = errors.New("message rejected by mail provider")

type SendGridNotifier struct {
	client *sendgrid.Client
	from   *mail.Email
}

func NewSendGridNotifier(apiKey, from string) *SendGridNotifier {
	return &SendGridNotifier{
		client: sendgrid.NewSendClient(apiKey),
		from:   mail.NewEmail("Contacts", from),
	}
}

func (n *SendGridNotifier) Send(ctx context.Context, msg Message) error {
	to := mail.NewEmail("", msg.To)
	m := mail.NewSingleEmail(n.from, msg.Subject, to, "", msg.HTML)

	resp, err := n.client.SendWithContext(ctx, m)
	if err != nil {
		return fmt.Errorf("sendgrid send: %w", err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests:
		return fmt.Errorf("%w: sendgrid status %d: %s", ErrRejected, resp.StatusCode, resp.Body)
	default:
		return fmt.Errorf("sendgrid send: status %d: %s", resp.StatusCode, resp.Body)
	}

	return nil
}
