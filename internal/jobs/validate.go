package jobs

// ValidatePayload checks that payload belongs to t and carries its required fields.
func ValidatePayload(t JobType, v any) error {
	_, err := payloadFor(t, v)
	return err
}

func payloadFor(t JobType, v any) (payload, error) {
	if !t.IsValid() {
		return nil, ErrInvalidJobType
	}

	p, ok := v.(payload)
	if !ok || p == nil || p.jobType() != t {
		return nil, ErrPayloadTypeMismatch
	}

	if err := p.validate(); err != nil {
		return nil, err
	}

	return p, nil
}
