// Package storage persists corpora, documents, chunks, vector records and
// indexing run history in SQLite.
//
// Two build modes exist. The default pure-Go build uses modernc.org/sqlite
// and computes vector similarity in Go. Building with the sqlite_vec tag
// switches to mattn/go-sqlite3 and pushes cosine distance into SQL via the
// sqlite-vec extension. Both modes store vectors as little-endian float32
// blobs, so databases are interchangeable between builds.
//
// Schema changes are applied through semver-ordered migrations; every run
// of NewSQLiteStore brings the database up to CurrentSchemaVersion.
package storage
