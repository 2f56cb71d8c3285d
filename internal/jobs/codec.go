package jobs

import (
	"encoding/json"
	"fmt"
)

func EncodePayload(t JobType, v any) ([]byte, error) {
	p, err := payloadFor(t, v)
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}

	return b, nil
}

// DecodePayload returns the typed payload value (not a pointer) for j.Type.
func DecodePayload(j Job) (any, error) {
	decode, ok := decoders[j.Type]
	if !ok {
		return nil, ErrInvalidJobType
	}
	if len(j.Payload) == 0 {
		return nil, ErrInvalidJobPayload
	}

	p, err := decode(j.Payload)
	if err != nil {
		return nil, err
	}

	return p, nil
}

func decodeAs[P payload](raw []byte) (payload, error) {
	var p P
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidJobPayload, err)
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	return p, nil
}
