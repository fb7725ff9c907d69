// Package file keeps taxadvisor's settings and prompt templates under the
// config directory (~/.taxadvisor by default): config.toml for settings and
// prompts/*.txt for the router and advisor templates.
package file
