// Package ports is the single source of truth for which connections are
// legal in a curriculum graph. It holds the port/role table (every legal
// source-port/target-port pairing and its cardinality rule), the pure
// edge classifier, and the incremental connection validator the editor
// consults before committing each new edge.
//
// The batch compiler consults the same table, so edit-time and
// compile-time rules cannot diverge.
package ports
