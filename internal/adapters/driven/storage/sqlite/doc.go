// Package sqlite persists users, notebooks, documents and chunk state in a
// single SQLite database using the pure Go modernc.org/sqlite driver.
//
// Store opens <data_dir>/metadata.db in WAL mode and exposes one adapter per
// driven port (UserStore, NotebookStore, DocumentStore, ChunkStore). Notebook
// document counts are computed on read. Deleting a user, notebook or
// document cascades through foreign keys to every dependent row.
//
// The schema lives in migrations/ and is applied at open, one transaction
// per version.
package sqlite
