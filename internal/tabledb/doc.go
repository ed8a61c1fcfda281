// Package tabledb provides a single-process, typed table store persisted as one
// JSON document.
//
// # Overview
//
// A [Database] owns a set of named [Table] values. Each table has an ordered
// schema of [Attribute] descriptors, rows stored in insertion order, and one
// monotonic counter per AUTO_INCREMENT column.
//
// # Insertion
//
// [Table.Insert] resolves every schema column in priority order: explicit
// value, generated auto-increment value, declared default, failure if NOT
// NULL, otherwise null. Primary key uniqueness is checked last by a linear
// scan. Counters consumed by a rejected insert are not returned.
//
// # File Format
//
// [Serialize] writes one JSON object keyed by table name, each holding
// "schema" and "rows". Credentials live under the reserved "__meta" key.
// [Deserialize] replays stored rows through [Table.Insert] and then moves
// every auto-increment counter to one past the largest stored value. A
// stored value that leaves no room below the int64 limit fails the load.
//
// The package is not safe for concurrent use; callers serialize access.
package tabledb
