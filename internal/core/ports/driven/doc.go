// Package driven holds the interfaces the core needs from the outside world:
// document loading and normalising, chunking, embedding, vector storage,
// language model completion, configuration, prompts and file watching.
//
// Only the domain package may be imported from here; adapters implement
// these interfaces and the core never imports an adapter.
package driven
