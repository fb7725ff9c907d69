// Package tui is the full-screen chat front end. It depends only on the
// driving ports, so the same services back the CLI, the MCP server and this.
package tui

import (
	"errors"

	"github.com/custodia-labs/taxadvisor/internal/core/ports/driving"
)

var (
	// ErrInvalidPorts is returned for a nil Ports.
	ErrInvalidPorts = errors.New("tui: invalid ports configuration")
	// ErrMissingAssistantService is returned when Ports has no assistant.
	ErrMissingAssistantService = errors.New("tui: assistant service is required")
)

// Ports are the services the TUI drives. Index may be nil, in which case the
// sources screen says the index is unavailable.
type Ports struct {
	Assistant driving.AssistantService
	Index     driving.IndexService
}

// NewPorts bundles the services.
func NewPorts(assistant driving.AssistantService, index driving.IndexService) *Ports {
	return &Ports{Assistant: assistant, Index: index}
}

// Validate reports a missing required service.
func (p *Ports) Validate() error {
	switch {
	case p == nil:
		return ErrInvalidPorts
	case p.Assistant == nil:
		return ErrMissingAssistantService
	}
	return nil
}
