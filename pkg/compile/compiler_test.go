package compile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notatio-labs/curricc/pkg/core"
	"github.com/notatio-labs/curricc/pkg/ports"
)

func track(id, key string, order int) core.Node {
	return core.Node{ID: id, Type: core.NodeTypeTrack, Key: key, Title: key, Track: &core.TrackFields{Order: order}}
}

func lesson(id, key string) core.Node {
	return core.Node{ID: id, Type: core.NodeTypeLesson, Key: key, Title: key, Lesson: &core.LessonFields{}}
}

func skill(id, key string) core.Node {
	return core.Node{ID: id, Type: core.NodeTypeSkill, Key: key, Title: key, Skill: &core.SkillFields{}}
}

func tune(id, key string) core.Node {
	return core.Node{ID: id, Type: core.NodeTypeTune, Key: key, Title: key, Tune: &core.TuneFields{MusicRef: key + ".musicxml"}}
}

// edge builds a classified edge the way the editor does on acceptance.
func edge(srcID string, sp core.Port, tgtID string, tp core.Port) core.Edge {
	kind := ports.Classify(sp, tp)
	return core.Edge{
		ID:     core.EdgeID(srcID, tgtID, kind),
		Source: srcID, Target: tgtID,
		SourcePort: sp, TargetPort: tp,
		Kind: kind,
	}
}

func classes(errs []CompilationError) map[ErrorClass]int {
	out := make(map[ErrorClass]int)
	for _, e := range errs {
		out[e.Class]++
	}
	return out
}

func TestCompile_EndToEndExample(t *testing.T) {
	nodes := []core.Node{
		track("n1", "beginner-piano", 1),
		lesson("n2", "A1.1"),
		skill("n3", "posture"),
	}
	edges := []core.Edge{
		edge("n1", core.PortTrackOut, "n2", core.PortLessonIn),
		edge("n2", core.PortLessonUnlockable, "n3", core.PortSkillUnlockable),
	}

	export, errs := Compile(nodes, edges)
	require.Empty(t, errs)
	require.NotNil(t, export)

	require.Len(t, export.Tracks, 1)
	assert.Equal(t, "beginner-piano", export.Tracks[0].TrackKey)
	assert.Equal(t, []string{"A1.1"}, export.Tracks[0].LessonKeys)
	assert.Equal(t, "n1", export.Tracks[0].Debug.NodeID)

	require.Len(t, export.Lessons, 1)
	l := export.Lessons[0]
	assert.Equal(t, "A1.1", l.LessonKey)
	assert.Equal(t, "beginner-piano", l.TrackKey)
	assert.Equal(t, []string{"posture"}, l.AwardsSkills)
	assert.Equal(t, []string{}, l.RequiresSkills)
	assert.Nil(t, l.NextLessons)

	require.Len(t, export.Skills, 1)
	s := export.Skills[0]
	assert.Equal(t, "posture", s.SkillKey)
	assert.Equal(t, []string{"A1.1"}, s.AwardedByLessons)
	assert.Equal(t, []string{}, s.RequiredByLessons)
	assert.Equal(t, []string{}, s.RequiredByTracks)
}

func TestCompile_Idempotent(t *testing.T) {
	nodes := []core.Node{
		track("t1", "beginner-piano", 1),
		lesson("l1", "A1.1"),
		lesson("l2", "A1.2"),
		skill("s1", "posture"),
	}
	edges := []core.Edge{
		edge("t1", core.PortTrackOut, "l1", core.PortLessonIn),
		edge("l1", core.PortLessonOut, "l2", core.PortLessonIn),
		edge("l2", core.PortLessonUnlockable, "s1", core.PortSkillUnlockable),
		edge("l2", core.PortLessonRequired, "s1", core.PortSkillRequired),
	}

	first, errs := Compile(nodes, edges)
	require.Empty(t, errs)
	second, errs := Compile(nodes, edges)
	require.Empty(t, errs)
	assert.Equal(t, first, second)

	firstJSON, err := EncodeJSON(first)
	require.NoError(t, err)
	secondJSON, err := EncodeJSON(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
}

func TestCompile_LessonsWithoutTrack(t *testing.T) {
	nodes := []core.Node{
		lesson("l1", "A1.1"),
		lesson("l2", "A1.2"),
		lesson("l3", "A1.3"),
	}

	export, errs := Compile(nodes, nil)
	assert.Nil(t, export)
	require.Len(t, errs, 3)
	seen := make(map[string]bool)
	for _, e := range errs {
		assert.Equal(t, ClassRelational, e.Class)
		assert.Contains(t, e.Message, "belongs to no track")
		seen[e.NodeID] = true
	}
	assert.Len(t, seen, 3, "one error per lesson")
}

func TestCompile_TransitiveClosure(t *testing.T) {
	nodes := []core.Node{
		track("t1", "beginner-piano", 1),
		lesson("lc", "A1.3"),
		lesson("la", "A1.1"),
		lesson("lb", "A1.2"),
	}
	edges := []core.Edge{
		edge("t1", core.PortTrackOut, "la", core.PortLessonIn),
		edge("la", core.PortLessonOut, "lb", core.PortLessonIn),
		edge("lb", core.PortLessonOut, "lc", core.PortLessonIn),
	}

	export, errs := Compile(nodes, edges)
	require.Empty(t, errs)
	require.NotNil(t, export)

	assert.Equal(t, []string{"A1.1", "A1.2", "A1.3"}, export.Tracks[0].LessonKeys)
	for _, l := range export.Lessons {
		assert.Equal(t, "beginner-piano", l.TrackKey, "lesson %s", l.LessonKey)
	}
	// Chain cross-references survive the closure.
	assert.Equal(t, []string{"A1.2"}, export.Lessons[0].NextLessons)
	assert.Equal(t, []string{"A1.3"}, export.Lessons[1].NextLessons)
	assert.Nil(t, export.Lessons[2].NextLessons)
}

func TestCompile_ClosureFlowsThroughTunes(t *testing.T) {
	nodes := []core.Node{
		track("t1", "beginner-piano", 1),
		lesson("la", "A1.1"),
		tune("x1", "ode-to-joy"),
		lesson("lb", "A1.2"),
	}
	edges := []core.Edge{
		edge("t1", core.PortTrackOut, "la", core.PortLessonIn),
		edge("la", core.PortLessonOut, "x1", core.PortTuneIn),
		edge("x1", core.PortTuneOut, "lb", core.PortLessonIn),
	}

	export, errs := Compile(nodes, edges)
	require.Empty(t, errs)
	require.NotNil(t, export)

	assert.Equal(t, []string{"A1.1", "A1.2"}, export.Tracks[0].LessonKeys)
	// The tune is not part of the export and does not appear as a next
	// lesson.
	assert.Nil(t, export.Lessons[0].NextLessons)
}

func TestCompile_MembershipConflict_Transitive(t *testing.T) {
	nodes := []core.Node{
		track("t1", "beginner-piano", 1),
		track("t2", "advanced-piano", 2),
		lesson("la", "A1.1"),
		lesson("lb", "B1.1"),
	}
	edges := []core.Edge{
		edge("t1", core.PortTrackOut, "la", core.PortLessonIn),
		edge("t2", core.PortTrackOut, "lb", core.PortLessonIn),
		edge("lb", core.PortLessonOut, "la", core.PortLessonIn),
	}

	export, errs := Compile(nodes, edges)
	assert.Nil(t, export)
	require.NotEmpty(t, errs)

	var conflict *CompilationError
	for i := range errs {
		if errs[i].Class == ClassRelational {
			conflict = &errs[i]
		}
	}
	require.NotNil(t, conflict, "expected a relational conflict error")
	assert.Equal(t, "la", conflict.NodeID)
	assert.Contains(t, conflict.Message, "A1.1")
}

func TestCompile_MembershipConflict_Direct(t *testing.T) {
	nodes := []core.Node{
		track("t1", "beginner-piano", 1),
		track("t2", "advanced-piano", 2),
		lesson("la", "A1.1"),
	}
	edges := []core.Edge{
		edge("t1", core.PortTrackOut, "la", core.PortLessonIn),
		edge("t2", core.PortTrackOut, "la", core.PortLessonIn),
	}

	export, errs := Compile(nodes, edges)
	assert.Nil(t, export)
	byClass := classes(errs)
	// The doubled in-edge is a cardinality violation and the membership
	// conflict is reported alongside it.
	assert.GreaterOrEqual(t, byClass[ClassStructural], 1)
	assert.GreaterOrEqual(t, byClass[ClassRelational], 1)
}

func TestCompile_DuplicateKey(t *testing.T) {
	nodes := []core.Node{
		track("t1", "x", 1),
		track("t2", "x", 2),
	}

	export, errs := Compile(nodes, nil)
	assert.Nil(t, export)
	require.Len(t, errs, 1)
	assert.Equal(t, ClassStructural, errs[0].Class)
	assert.Contains(t, errs[0].Message, `"x"`)
	assert.Equal(t, "t2", errs[0].NodeID)
}

func TestCompile_SameKeyAcrossTypesIsFine(t *testing.T) {
	nodes := []core.Node{
		track("t1", "x", 1),
		lesson("l1", "x"),
	}
	edges := []core.Edge{
		edge("t1", core.PortTrackOut, "l1", core.PortLessonIn),
	}

	export, errs := Compile(nodes, edges)
	assert.Empty(t, errs)
	require.NotNil(t, export)
	assert.Equal(t, "x", export.Tracks[0].TrackKey)
	assert.Equal(t, "x", export.Lessons[0].LessonKey)
}

func TestCompile_InvalidKeys(t *testing.T) {
	nodes := []core.Node{
		{ID: "l1", Type: core.NodeTypeLesson, Key: "", Lesson: &core.LessonFields{}},
		{ID: "l2", Type: core.NodeTypeLesson, Key: "has space", Lesson: &core.LessonFields{}},
	}

	export, errs := Compile(nodes, nil)
	assert.Nil(t, export)
	require.Len(t, errs, 2)
	for _, e := range errs {
		assert.Equal(t, ClassStructural, e.Class)
	}
}

func TestCompile_DanglingEdgeStopsBeforeRelationalPhase(t *testing.T) {
	nodes := []core.Node{
		lesson("l1", "A1.1"),
	}
	edges := []core.Edge{
		{ID: "e1", Source: "l1", Target: "ghost", SourcePort: core.PortLessonOut, TargetPort: core.PortLessonIn, Kind: core.KindDefault},
	}

	export, errs := Compile(nodes, edges)
	assert.Nil(t, export)
	require.NotEmpty(t, errs)
	for _, e := range errs {
		assert.Equal(t, ClassStructural, e.Class)
	}
}

func TestCompile_UnrecognizedPortPairingIsError(t *testing.T) {
	nodes := []core.Node{
		track("t1", "beginner-piano", 1),
		lesson("l1", "A1.1"),
		skill("s1", "posture"),
	}
	edges := []core.Edge{
		edge("t1", core.PortTrackOut, "l1", core.PortLessonIn),
		// lesson-out into skill-required matches no table row.
		{ID: "e-bad", Source: "l1", Target: "s1", SourcePort: core.PortLessonOut, TargetPort: core.PortSkillRequired},
	}

	export, errs := Compile(nodes, edges)
	assert.Nil(t, export)
	require.NotEmpty(t, errs)
	var found bool
	for _, e := range errs {
		if e.EdgeID == "e-bad" {
			found = true
			assert.Equal(t, ClassStructural, e.Class)
			assert.Contains(t, e.Message, "not a legal pairing")
		}
	}
	assert.True(t, found)
}

func TestCompile_KindMismatchIsError(t *testing.T) {
	nodes := []core.Node{
		track("t1", "beginner-piano", 1),
		lesson("l1", "A1.1"),
		skill("s1", "posture"),
	}
	e := edge("l1", core.PortLessonRequired, "s1", core.PortSkillRequired)
	e.Kind = core.KindDefault
	edges := []core.Edge{
		edge("t1", core.PortTrackOut, "l1", core.PortLessonIn),
		e,
	}

	export, errs := Compile(nodes, edges)
	assert.Nil(t, export)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Message, "classify")
}

func TestCompile_CrossReferences(t *testing.T) {
	nodes := []core.Node{
		track("t1", "beginner-piano", 1),
		lesson("la", "A1.1"),
		lesson("lb", "A1.2"),
		skill("s1", "posture"),
		skill("s2", "c-position"),
		skill("s3", "steady-beat"),
	}
	edges := []core.Edge{
		edge("t1", core.PortTrackOut, "la", core.PortLessonIn),
		edge("la", core.PortLessonOut, "lb", core.PortLessonIn),
		edge("t1", core.PortTrackRequired, "s3", core.PortSkillRequired),
		edge("la", core.PortLessonUnlockable, "s1", core.PortSkillUnlockable),
		edge("lb", core.PortLessonRequired, "s1", core.PortSkillRequired),
		edge("lb", core.PortLessonRequired, "s2", core.PortSkillRequired),
		edge("lb", core.PortLessonRequired, "la", core.PortLessonPrerequisite),
	}

	export, errs := Compile(nodes, edges)
	require.Empty(t, errs)
	require.NotNil(t, export)

	assert.Equal(t, []string{"steady-beat"}, export.Tracks[0].RequiresSkills)

	lb := export.Lessons[1]
	require.Equal(t, "A1.2", lb.LessonKey)
	assert.Equal(t, []string{"c-position", "posture"}, lb.RequiresSkills)
	assert.Equal(t, []string{"A1.1"}, lb.RequiresLessons)

	// Skills are sorted by key: c-position, posture, steady-beat.
	require.Len(t, export.Skills, 3)
	assert.Equal(t, "c-position", export.Skills[0].SkillKey)
	assert.Equal(t, []string{"A1.2"}, export.Skills[0].RequiredByLessons)
	assert.Equal(t, "posture", export.Skills[1].SkillKey)
	assert.Equal(t, []string{"A1.1"}, export.Skills[1].AwardedByLessons)
	assert.Equal(t, []string{"A1.2"}, export.Skills[1].RequiredByLessons)
	assert.Equal(t, "steady-beat", export.Skills[2].SkillKey)
	assert.Equal(t, []string{"beginner-piano"}, export.Skills[2].RequiredByTracks)
}

func TestCompile_TuneSkillEdgesStayOutOfExport(t *testing.T) {
	nodes := []core.Node{
		track("t1", "beginner-piano", 1),
		tune("x1", "ode-to-joy"),
		skill("s1", "legato"),
	}
	edges := []core.Edge{
		edge("t1", core.PortTrackOut, "x1", core.PortTuneIn),
		edge("x1", core.PortTuneUnlockable, "s1", core.PortSkillUnlockable),
		edge("x1", core.PortTuneRequired, "s1", core.PortSkillRequired),
	}

	export, errs := Compile(nodes, edges)
	require.Empty(t, errs)
	require.NotNil(t, export)

	// The export schema references lessons only; tune-sourced skill
	// relations are represented nowhere in it.
	require.Len(t, export.Skills, 1)
	assert.Equal(t, []string{}, export.Skills[0].AwardedByLessons)
	assert.Equal(t, []string{}, export.Skills[0].RequiredByLessons)
}

func TestCompile_NoPartialExport(t *testing.T) {
	nodes := []core.Node{
		track("t1", "beginner-piano", 1),
		lesson("la", "A1.1"),
		lesson("orphan", "Z9.9"),
	}
	edges := []core.Edge{
		edge("t1", core.PortTrackOut, "la", core.PortLessonIn),
	}

	export, errs := Compile(nodes, edges)
	assert.Nil(t, export, "one orphan lesson must suppress the whole export")
	require.Len(t, errs, 1)
	assert.Equal(t, "orphan", errs[0].NodeID)
}
