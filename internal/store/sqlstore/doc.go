// Package sqlstore keeps a hierarchical directory tree in a SQL table so a
// single SQLite file or a PostgreSQL database can stand in for the
// commissaire key-value store.
//
// Every node is one row keyed by its full path. Create-if-absent relies on
// the primary key:
//
//	INSERT ... ON CONFLICT(path) DO NOTHING
//
// and RowsAffected tells a new row from an existing one, which is what
// makes repeated bootstraps report "already exists" instead of failing.
//
// # SQLite configuration
//
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000: wait for locks up to 5 seconds
//   - a single open connection, so concurrent creates are serialized
package sqlstore
