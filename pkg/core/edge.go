package core

import "fmt"

// Port is a named, directional attachment point on a node type.
type Port string

// Source-side ports.
const (
	PortTrackOut         Port = "track-out"
	PortTrackRequired    Port = "track-required"
	PortLessonOut        Port = "lesson-out"
	PortLessonRequired   Port = "lesson-required"
	PortLessonUnlockable Port = "lesson-unlockable"
	PortTuneOut          Port = "tune-out"
	PortTuneRequired     Port = "tune-required"
	PortTuneUnlockable   Port = "tune-unlockable"
)

// Target-side ports.
const (
	PortLessonIn           Port = "lesson-in"
	PortLessonPrerequisite Port = "lesson-prerequisite"
	PortTuneIn             Port = "tune-in"
	PortSkillRequired      Port = "skill-required"
	PortSkillUnlockable    Port = "skill-unlockable"
)

// EdgeKind is the semantic classification of an edge, derived purely
// from its port pair.
type EdgeKind string

const (
	// KindDefault marks chain edges (track/lesson/tune sequencing)
	KindDefault EdgeKind = "default"
	// KindRequirement marks prerequisite relations (required skill or lesson)
	KindRequirement EdgeKind = "requirement"
	// KindUnlockable marks skill-award relations
	KindUnlockable EdgeKind = "unlockable"
)

// Edge is a typed, directional connection between two nodes.
type Edge struct {
	// ID is the edge identifier, conventionally built by EdgeID
	ID string
	// Source and Target are node IDs
	Source string
	Target string
	// SourcePort and TargetPort name the attachment points
	SourcePort Port
	TargetPort Port
	// Kind is the classification of the port pair
	Kind EdgeKind
}

// EdgeID builds the conventional edge identifier the editor assigns on
// an accepted connection.
func EdgeID(sourceID, targetID string, kind EdgeKind) string {
	return fmt.Sprintf("edge-%s-%s-%s", sourceID, targetID, kind)
}
