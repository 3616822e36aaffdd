package stage

import (
	"shortscout/internal/checkpoint"
	"shortscout/internal/services"
)

// ParsePayload parses a checkpoint payload string.
// On failure it returns a services.ErrValidation suitable for controller callers.
func ParsePayload(raw string) (checkpoint.Payload, error) {
	payload, err := checkpoint.Parse(raw)
	if err != nil {
		return checkpoint.Payload{}, services.Wrap(
			services.ErrValidation, "checkpoint", "parse payload",
			"Checkpoint payload missing or invalid; resend the payload returned by the previous step", err)
	}
	return payload, nil
}
