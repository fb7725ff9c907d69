// Package domain is the vocabulary shared by every layer: documents and
// their chunks, index entries, retrieval results, routing decisions and the
// Turn that carries one question through the pipeline. It also defines the
// error kinds and settings. Nothing here imports another internal package.
package domain
