package mcp

import (
	"errors"

	"github.com/custodia-labs/taxadvisor/internal/core/ports/driving"
)

// ErrMissingAssistantService is returned by NewServer for a nil Ports or one
// without an assistant.
var ErrMissingAssistantService = errors.New("mcp: assistant service is required")

// Ports are the services behind the tools and resources. Index is optional;
// without it the resources describe an empty index.
type Ports struct {
	Assistant driving.AssistantService
	Index     driving.IndexService
}

func (p *Ports) Validate() error {
	if p == nil || p.Assistant == nil {
		return ErrMissingAssistantService
	}
	return nil
}
