package bus

import (
	"fmt"

	"github.com/phishguard/phishguard/internal/domain"
)

// New creates a new event bus based on configuration.
// Channel: in-process Go channels, single node.
// NATS: distributed bus for multi-node deployments.
func New(cfg domain.EventBusConfig) (domain.EventBus, error) {
	switch cfg.Type {
	case "channel":
		return NewChannelBus(cfg.ChannelBufferSize), nil

	case "nats":
		return NewNATSBus(cfg)

	default:
		return nil, fmt.Errorf("unsupported event bus type: %s", cfg.Type)
	}
}
