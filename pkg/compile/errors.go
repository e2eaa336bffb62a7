package compile

import "fmt"

// ErrorClass partitions compilation errors by the phase that found them.
type ErrorClass string

const (
	// ClassStructural covers duplicate keys, dangling edges, illegal
	// port pairings, and cardinality violations.
	ClassStructural ErrorClass = "structural"
	// ClassRelational covers conflicting or absent track membership.
	ClassRelational ErrorClass = "relational"
)

// CompilationError is one accumulated violation. It is a diagnostic
// value, not a Go error: the compiler returns the full list so an
// author can fix many problems from a single attempt.
type CompilationError struct {
	Class   ErrorClass `json:"class"`
	Message string     `json:"message"`
	// NodeID and EdgeID optionally tag the offending element for
	// editor highlighting.
	NodeID string `json:"nodeId,omitempty"`
	EdgeID string `json:"edgeId,omitempty"`
}

func (e CompilationError) String() string {
	return fmt.Sprintf("%s: %s", e.Class, e.Message)
}

func structuralNode(nodeID, format string, args ...any) CompilationError {
	return CompilationError{Class: ClassStructural, NodeID: nodeID, Message: fmt.Sprintf(format, args...)}
}

func structuralEdge(edgeID, format string, args ...any) CompilationError {
	return CompilationError{Class: ClassStructural, EdgeID: edgeID, Message: fmt.Sprintf(format, args...)}
}

func relationalNode(nodeID, format string, args ...any) CompilationError {
	return CompilationError{Class: ClassRelational, NodeID: nodeID, Message: fmt.Sprintf(format, args...)}
}
