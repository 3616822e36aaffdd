package stage

import (
	"context"

	"shortscout/internal/checkpoint"
)

// Handler describes the contract the pipeline controller needs from each stage.
// Execute reads what earlier stages left in the payload and fills in its own
// fields; it must not touch fields owned by later stages.
type Handler interface {
	Name() string
	Execute(context.Context, *checkpoint.Payload) error
	HealthCheck(context.Context) Health
}
