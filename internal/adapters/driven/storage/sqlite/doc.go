// Package sqlite keeps the vector index in a single SQLite file through the
// pure Go modernc.org/sqlite driver.
//
// The schema lives in schema/N_name.sql and is applied in order on open;
// PRAGMA user_version records the last file applied. Vectors are stored as
// little-endian float32 blobs and Nearest scans them all, which suits a few
// thousand chunks. Use the qdrant backend beyond that.
package sqlite
