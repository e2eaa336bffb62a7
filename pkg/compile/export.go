package compile

import (
	"github.com/notatio-labs/curricc/pkg/core"
)

// Debug traces an export entry back to the editor node it came from.
type Debug struct {
	NodeID   string        `json:"nodeId" yaml:"nodeId"`
	Position core.Position `json:"position" yaml:"position"`
}

// TrackExport is the runtime view of a track: its descriptive fields
// plus the resolved, alphabetically sorted keys of its members.
type TrackExport struct {
	TrackKey    string `json:"trackKey" yaml:"trackKey"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	// LessonKeys lists every lesson belonging to the track, directly
	// wired or discovered via chain propagation.
	LessonKeys     []string `json:"lessonKeys" yaml:"lessonKeys"`
	RequiresSkills []string `json:"requiresSkills,omitempty" yaml:"requiresSkills,omitempty"`
	Debug          Debug    `json:"debug" yaml:"debug"`
}

// LessonExport is the runtime view of a lesson with all of its
// cross-references resolved to keys.
type LessonExport struct {
	LessonKey          string `json:"lessonKey" yaml:"lessonKey"`
	Title              string `json:"title" yaml:"title"`
	Goal               string `json:"goal,omitempty" yaml:"goal,omitempty"`
	SetupGuidance      string `json:"setupGuidance,omitempty" yaml:"setupGuidance,omitempty"`
	EvaluationGuidance string `json:"evaluationGuidance,omitempty" yaml:"evaluationGuidance,omitempty"`
	DifficultyGuidance string `json:"difficultyGuidance,omitempty" yaml:"difficultyGuidance,omitempty"`
	Level              int    `json:"level,omitempty" yaml:"level,omitempty"`
	// TrackKey is the single track the lesson belongs to.
	TrackKey        string   `json:"trackKey" yaml:"trackKey"`
	RequiresSkills  []string `json:"requiresSkills" yaml:"requiresSkills"`
	RequiresLessons []string `json:"requiresLessons,omitempty" yaml:"requiresLessons,omitempty"`
	AwardsSkills    []string `json:"awardsSkills" yaml:"awardsSkills"`
	NextLessons     []string `json:"nextLessons,omitempty" yaml:"nextLessons,omitempty"`
	Debug           Debug    `json:"debug" yaml:"debug"`
}

// SkillExport is the runtime view of a skill with reverse references to
// the lessons and tracks that mention it.
type SkillExport struct {
	SkillKey          string   `json:"skillKey" yaml:"skillKey"`
	Title             string   `json:"title" yaml:"title"`
	Description       string   `json:"description,omitempty" yaml:"description,omitempty"`
	UnlockGuidance    string   `json:"unlockGuidance,omitempty" yaml:"unlockGuidance,omitempty"`
	RequiredByLessons []string `json:"requiredByLessons" yaml:"requiredByLessons"`
	AwardedByLessons  []string `json:"awardedByLessons" yaml:"awardedByLessons"`
	RequiredByTracks  []string `json:"requiredByTracks" yaml:"requiredByTracks"`
	Debug             Debug    `json:"debug" yaml:"debug"`
}

// Export is the complete compiled artifact. Each list is sorted by key
// and every cross-reference list is sorted alphabetically, so compiling
// the same snapshot twice yields byte-identical output.
type Export struct {
	Tracks  []TrackExport  `json:"tracks" yaml:"tracks"`
	Lessons []LessonExport `json:"lessons" yaml:"lessons"`
	Skills  []SkillExport  `json:"skills" yaml:"skills"`
}
