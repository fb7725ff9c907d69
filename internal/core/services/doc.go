// Package services wires the pipeline stages together: the indexer, router,
// researcher and advisor, and the settings service behind the setup commands.
// Everything outside the process is reached through ports/driven.
package services
