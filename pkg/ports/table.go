package ports

import (
	"github.com/notatio-labs/curricc/pkg/core"
)

// Rule is one row of the port/role table: a legal pairing of
// (source type, source port) with (target type, target port) and the
// cardinality constraints that apply to it.
type Rule struct {
	SourceType core.NodeType
	SourcePort core.Port
	TargetType core.NodeType
	TargetPort core.Port

	// SingleSource means the source node may have at most one edge
	// leaving this port, counted across every rule that shares the
	// port (a track-out edge to a Lesson and one to a Tune still
	// conflict).
	SingleSource bool
	// SingleTarget means the target node may have at most one edge
	// arriving at this port, counted the same way.
	SingleTarget bool
}

// table is the full registry of legal connections. No pairing outside
// this table is ever accepted or compiled.
var table = []Rule{
	// Chain topology: a track heads a sequence of lessons/tunes, and
	// lessons/tunes chain onward to the next activity.
	{core.NodeTypeTrack, core.PortTrackOut, core.NodeTypeLesson, core.PortLessonIn, true, true},
	{core.NodeTypeTrack, core.PortTrackOut, core.NodeTypeTune, core.PortTuneIn, true, true},
	{core.NodeTypeLesson, core.PortLessonOut, core.NodeTypeLesson, core.PortLessonIn, true, true},
	{core.NodeTypeLesson, core.PortLessonOut, core.NodeTypeTune, core.PortTuneIn, true, true},
	{core.NodeTypeTune, core.PortTuneOut, core.NodeTypeTune, core.PortTuneIn, true, true},
	{core.NodeTypeTune, core.PortTuneOut, core.NodeTypeLesson, core.PortLessonIn, true, true},

	// Requirements: unbounded many-to-many.
	{core.NodeTypeTrack, core.PortTrackRequired, core.NodeTypeSkill, core.PortSkillRequired, false, false},
	{core.NodeTypeLesson, core.PortLessonRequired, core.NodeTypeSkill, core.PortSkillRequired, false, false},
	{core.NodeTypeLesson, core.PortLessonRequired, core.NodeTypeLesson, core.PortLessonPrerequisite, false, false},
	{core.NodeTypeTune, core.PortTuneRequired, core.NodeTypeSkill, core.PortSkillRequired, false, false},

	// Unlocks: a skill is awarded by exactly one activity, so the
	// skill side accepts at most one inbound edge.
	{core.NodeTypeLesson, core.PortLessonUnlockable, core.NodeTypeSkill, core.PortSkillUnlockable, false, true},
	{core.NodeTypeTune, core.PortTuneUnlockable, core.NodeTypeSkill, core.PortSkillUnlockable, false, true},
}

// Lookup finds the table row matching the proposed connection. The
// second return is false when no such pairing is legal.
func Lookup(sourceType core.NodeType, sourcePort core.Port, targetType core.NodeType, targetPort core.Port) (Rule, bool) {
	for _, r := range table {
		if r.SourceType == sourceType && r.SourcePort == sourcePort &&
			r.TargetType == targetType && r.TargetPort == targetPort {
			return r, true
		}
	}
	return Rule{}, false
}

// LookupEdge is Lookup keyed by an existing edge and its endpoint types.
func LookupEdge(sourceType, targetType core.NodeType, e core.Edge) (Rule, bool) {
	return Lookup(sourceType, e.SourcePort, targetType, e.TargetPort)
}

// Rules returns a copy of the full table, for documentation tooling.
func Rules() []Rule {
	out := make([]Rule, len(table))
	copy(out, table)
	return out
}
