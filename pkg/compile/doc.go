// Package compile turns an authoring-graph snapshot into the denormalized
// curriculum export the lesson runtime consumes. Compilation re-validates
// every invariant from scratch (the snapshot may come from a file import
// that bypassed the editor), accumulates all violations instead of
// stopping at the first, and is all-or-nothing: any error suppresses the
// export entirely.
//
// The pipeline is a linear three-phase gate: structural checks (keys
// and edge endpoints), relational checks (port legality, cardinality,
// and track membership including the transitive propagation along chain
// edges), then export assembly. A phase only runs when every earlier
// phase was clean.
package compile
