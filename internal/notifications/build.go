package notifications

import "log/slog"

// FromConfig picks SendGrid when an API key is configured and the log notifier otherwise.
// Either way sends go through the circuit breaker.
func FromConfig(apiKey, from string, log *slog.Logger) *ProtectedNotifier {
	var inner Notifier = NewLogNotifier(log)
	if apiKey != "" {
		inner = NewSendGridNotifier(apiKey, from)
	}

	return NewProtectedNotifier(inner, ProtectedNotifierConfig{})
}
