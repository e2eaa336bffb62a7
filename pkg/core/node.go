package core

import (
	"fmt"
	"strings"
)

// NodeType identifies the kind of a curriculum node.
type NodeType string

// Node type constants.
const (
	NodeTypeTrack  NodeType = "track"
	NodeTypeLesson NodeType = "lesson"
	NodeTypeSkill  NodeType = "skill"
	NodeTypeTune   NodeType = "tune"
)

// Valid reports whether t is one of the four known node types.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTypeTrack, NodeTypeLesson, NodeTypeSkill, NodeTypeTune:
		return true
	}
	return false
}

// Position is the node's authoring position on the editor canvas.
// It is carried through to the export's debug metadata so runtime
// entries can be traced back to the editor.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Node is a single curriculum node. Exactly one of the variant fields
// (Track, Lesson, Skill, Tune) is non-nil, matching Type. The variant
// carries only the fields that exist for that node type, so there is no
// "maybe this field exists" ambiguity downstream.
type Node struct {
	// ID is the editor-assigned node identifier
	ID string
	// Type is the node type; it selects which variant field is set
	Type NodeType
	// Key is the human-authored key (trackKey/lessonKey/skillKey/tuneKey).
	// Must be non-empty, whitespace-free, and unique within its type.
	Key string
	// Title is the display title
	Title string
	// Position is the authoring canvas position
	Position Position

	Track  *TrackFields
	Lesson *LessonFields
	Skill  *SkillFields
	Tune   *TuneFields
}

// TrackFields holds Track-specific authoring fields.
type TrackFields struct {
	// Order is the track's position among all tracks
	Order int
	// Description is an optional author-facing description
	Description string
}

// LessonFields holds Lesson-specific authoring fields.
type LessonFields struct {
	Goal               string
	SetupGuidance      string
	EvaluationGuidance string
	DifficultyGuidance string
	// Level is an optional difficulty level; zero means unset
	Level int
}

// SkillFields holds Skill-specific authoring fields.
type SkillFields struct {
	Description    string
	UnlockGuidance string
}

// TuneFields holds Tune-specific authoring fields.
type TuneFields struct {
	// MusicRef references the external sheet-music asset for this tune
	MusicRef           string
	Description        string
	EvaluationGuidance string
	// Level is an optional difficulty level; zero means unset
	Level int
}

// ValidateKey checks the key rules shared by every node type: non-empty
// and free of whitespace. Uniqueness is checked against the whole graph
// by the compiler, not here.
func ValidateKey(key string) error {
	if key == "" {
		return fmt.Errorf("key is empty")
	}
	if strings.ContainsAny(key, " \t\n\r") {
		return fmt.Errorf("key %q contains whitespace", key)
	}
	return nil
}
