// Package driving lists what the CLI, TUI and MCP adapters may ask of the
// core. The services package implements every interface here.
package driving
