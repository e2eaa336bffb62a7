package compile

import (
	"sort"

	"github.com/notatio-labs/curricc/pkg/core"
	"github.com/notatio-labs/curricc/pkg/ports"
)

// Compile re-validates the snapshot from scratch and assembles the
// runtime export. It returns either a non-nil export with no errors, or
// a nil export with at least one error; never both, never a partial
// export. Compiling the same snapshot twice yields deep-equal output.
func Compile(nodes []core.Node, edges []core.Edge) (*Export, []CompilationError) {
	c := newCompiler(nodes, edges)

	c.checkStructure()
	if len(c.errs) > 0 {
		return nil, c.errs
	}

	// Port legality and cardinality are re-checked here even though the
	// editor enforces them incrementally: an imported snapshot is
	// untrusted. These findings accumulate with the relational phase so
	// a single attempt reports both a cardinality violation and the
	// membership conflict it causes.
	c.checkPorts()
	c.buildRelations()
	c.propagateMembership()
	c.checkMembership()
	if len(c.errs) > 0 {
		return nil, c.errs
	}

	return c.assemble(), nil
}

type compiler struct {
	nodes []core.Node
	edges []core.Edge

	byID map[string]*core.Node
	// keys maps, per node type, each key to the node that owns it
	keys map[core.NodeType]map[string]string

	// memberOf assigns lessons and tunes to their track (node IDs).
	// Tunes carry membership so it can flow through them, but only
	// lessons are required to end up with one.
	memberOf map[string]string
	// chainNext holds chain successors for lessons and tunes
	chainNext map[string][]string

	nextLessons    map[string][]string // lesson -> next lessons
	prereqLessons  map[string][]string // lesson -> prerequisite lessons
	requiredSkills map[string][]string // lesson -> required skills
	awardsSkills   map[string][]string // lesson -> awarded skills
	trackSkills    map[string][]string // track -> required skills

	conflicted map[string]bool
	errs       []CompilationError
}

func newCompiler(nodes []core.Node, edges []core.Edge) *compiler {
	return &compiler{
		nodes:          nodes,
		edges:          edges,
		byID:           make(map[string]*core.Node, len(nodes)),
		keys:           make(map[core.NodeType]map[string]string),
		memberOf:       make(map[string]string),
		chainNext:      make(map[string][]string),
		nextLessons:    make(map[string][]string),
		prereqLessons:  make(map[string][]string),
		requiredSkills: make(map[string][]string),
		awardsSkills:   make(map[string][]string),
		trackSkills:    make(map[string][]string),
		conflicted:     make(map[string]bool),
	}
}

// checkStructure indexes nodes, verifies key rules, and verifies that
// every edge endpoint exists.
func (c *compiler) checkStructure() {
	for i := range c.nodes {
		n := &c.nodes[i]

		if !n.Type.Valid() {
			c.errs = append(c.errs, structuralNode(n.ID, "node %s has unknown type %q", n.ID, n.Type))
			continue
		}
		if _, dup := c.byID[n.ID]; dup {
			c.errs = append(c.errs, structuralNode(n.ID, "duplicate node id %s", n.ID))
			continue
		}
		c.byID[n.ID] = n

		if err := core.ValidateKey(n.Key); err != nil {
			c.errs = append(c.errs, structuralNode(n.ID, "%s node %s: %v", n.Type, n.ID, err))
			continue
		}
		byKey := c.keys[n.Type]
		if byKey == nil {
			byKey = make(map[string]string)
			c.keys[n.Type] = byKey
		}
		if _, taken := byKey[n.Key]; taken {
			c.errs = append(c.errs, structuralNode(n.ID, "duplicate %s key %q", n.Type, n.Key))
			continue
		}
		byKey[n.Key] = n.ID
	}

	for i := range c.edges {
		e := &c.edges[i]
		if _, ok := c.byID[e.Source]; !ok {
			c.errs = append(c.errs, structuralEdge(e.ID, "edge %s references missing source node %s", e.ID, e.Source))
		}
		if _, ok := c.byID[e.Target]; !ok {
			c.errs = append(c.errs, structuralEdge(e.ID, "edge %s references missing target node %s", e.ID, e.Target))
		}
	}
}

// checkPorts verifies each edge against the port/role table and re-runs
// the cardinality rules over the whole snapshot.
func (c *compiler) checkPorts() {
	type slot struct {
		node string
		port core.Port
	}
	sourceCount := make(map[slot]int)
	targetCount := make(map[slot]int)

	for i := range c.edges {
		e := &c.edges[i]
		src, tgt := c.byID[e.Source], c.byID[e.Target]

		rule, ok := ports.LookupEdge(src.Type, tgt.Type, *e)
		if !ok {
			c.errs = append(c.errs, structuralEdge(e.ID,
				"edge %s connects %s %q to %s %q via %s -> %s, which is not a legal pairing",
				e.ID, src.Type, src.Key, tgt.Type, tgt.Key, e.SourcePort, e.TargetPort))
			continue
		}
		if want := ports.Classify(e.SourcePort, e.TargetPort); e.Kind != "" && e.Kind != want {
			c.errs = append(c.errs, structuralEdge(e.ID,
				"edge %s carries kind %q but its ports classify as %q", e.ID, e.Kind, want))
		}
		if rule.SingleSource {
			sourceCount[slot{e.Source, e.SourcePort}]++
		}
		if rule.SingleTarget {
			targetCount[slot{e.Target, e.TargetPort}]++
		}
	}

	reported := make(map[slot]bool)
	for i := range c.edges {
		e := &c.edges[i]
		if s := (slot{e.Source, e.SourcePort}); sourceCount[s] > 1 && !reported[s] {
			reported[s] = true
			n := c.byID[s.node]
			c.errs = append(c.errs, structuralNode(s.node,
				"%s %q has %d edges leaving %s; only one is allowed", n.Type, n.Key, sourceCount[s], s.port))
		}
		if s := (slot{e.Target, e.TargetPort}); targetCount[s] > 1 && !reported[s] {
			reported[s] = true
			n := c.byID[s.node]
			c.errs = append(c.errs, structuralNode(s.node,
				"%s %q has %d edges entering %s; only one is allowed", n.Type, n.Key, targetCount[s], s.port))
		}
	}
}

// buildRelations dispatches every edge into the forward relation maps
// in a single pass.
func (c *compiler) buildRelations() {
	for i := range c.edges {
		e := &c.edges[i]
		src, tgt := c.byID[e.Source], c.byID[e.Target]
		rule, ok := ports.LookupEdge(src.Type, tgt.Type, *e)
		if !ok {
			// Already reported by checkPorts; an unrecognized edge
			// joins no relation map.
			continue
		}

		switch ports.Classify(e.SourcePort, e.TargetPort) {
		case core.KindDefault:
			if src.Type == core.NodeTypeTrack {
				c.assignMembership(tgt, src.ID)
				continue
			}
			c.chainNext[src.ID] = append(c.chainNext[src.ID], tgt.ID)
			if src.Type == core.NodeTypeLesson && tgt.Type == core.NodeTypeLesson {
				c.nextLessons[src.ID] = append(c.nextLessons[src.ID], tgt.ID)
			}

		case core.KindUnlockable:
			if src.Type == core.NodeTypeLesson {
				c.awardsSkills[src.ID] = append(c.awardsSkills[src.ID], tgt.ID)
			}

		case core.KindRequirement:
			switch {
			case rule.TargetPort == core.PortLessonPrerequisite:
				c.prereqLessons[src.ID] = append(c.prereqLessons[src.ID], tgt.ID)
			case src.Type == core.NodeTypeTrack:
				c.trackSkills[src.ID] = append(c.trackSkills[src.ID], tgt.ID)
			case src.Type == core.NodeTypeLesson:
				c.requiredSkills[src.ID] = append(c.requiredSkills[src.ID], tgt.ID)
			}
		}
	}
}

// assignMembership records a directly wired track membership, flagging
// a conflict when the node is already owned by a different track.
func (c *compiler) assignMembership(n *core.Node, trackID string) {
	cur, ok := c.memberOf[n.ID]
	if !ok {
		c.memberOf[n.ID] = trackID
		return
	}
	if cur != trackID {
		c.reportConflict(n, cur, trackID)
	}
}

// propagateMembership is the transitive closure over chain edges:
// membership flows forward along a lesson/tune sequence even when the
// sequence is not directly wired to the track node. The loop runs until
// a full pass changes nothing; each pass can only extend membership, so
// it terminates within the number of chain nodes.
func (c *compiler) propagateMembership() {
	ids := make([]string, 0, len(c.chainNext))
	for id := range c.chainNext {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for changed := true; changed; {
		changed = false
		for _, id := range ids {
			trackID, ok := c.memberOf[id]
			if !ok {
				continue
			}
			for _, next := range c.chainNext[id] {
				cur, ok := c.memberOf[next]
				if !ok {
					c.memberOf[next] = trackID
					changed = true
					continue
				}
				if cur != trackID {
					c.reportConflict(c.byID[next], cur, trackID)
				}
			}
		}
	}
}

func (c *compiler) reportConflict(n *core.Node, trackA, trackB string) {
	if c.conflicted[n.ID] {
		return
	}
	c.conflicted[n.ID] = true
	c.errs = append(c.errs, relationalNode(n.ID,
		"%s %q belongs to both track %q and track %q", n.Type, n.Key, c.byID[trackA].Key, c.byID[trackB].Key))
}

// checkMembership requires every lesson to have resolved to a track.
func (c *compiler) checkMembership() {
	for i := range c.nodes {
		n := &c.nodes[i]
		if n.Type != core.NodeTypeLesson {
			continue
		}
		if _, ok := c.memberOf[n.ID]; !ok {
			c.errs = append(c.errs, relationalNode(n.ID, "lesson %q belongs to no track", n.Key))
		}
	}
}

// assemble builds the export lists with every cross-reference resolved
// to keys and sorted.
func (c *compiler) assemble() *Export {
	// Reverse indices from the forward maps.
	requiredBy := make(map[string][]string) // skill -> lesson keys
	awardedBy := make(map[string][]string)  // skill -> lesson keys
	trackReq := make(map[string][]string)   // skill -> track keys
	for lessonID, skillIDs := range c.requiredSkills {
		for _, s := range skillIDs {
			requiredBy[s] = append(requiredBy[s], c.byID[lessonID].Key)
		}
	}
	for lessonID, skillIDs := range c.awardsSkills {
		for _, s := range skillIDs {
			awardedBy[s] = append(awardedBy[s], c.byID[lessonID].Key)
		}
	}
	for trackID, skillIDs := range c.trackSkills {
		for _, s := range skillIDs {
			trackReq[s] = append(trackReq[s], c.byID[trackID].Key)
		}
	}

	trackLessons := make(map[string][]string) // track -> lesson keys
	for i := range c.nodes {
		n := &c.nodes[i]
		if n.Type != core.NodeTypeLesson {
			continue
		}
		trackID := c.memberOf[n.ID]
		trackLessons[trackID] = append(trackLessons[trackID], n.Key)
	}

	out := &Export{
		Tracks:  []TrackExport{},
		Lessons: []LessonExport{},
		Skills:  []SkillExport{},
	}

	for _, n := range sortedByKey(c.nodes, core.NodeTypeTrack) {
		t := TrackExport{
			TrackKey:       n.Key,
			Title:          n.Title,
			LessonKeys:     sortedCopy(trackLessons[n.ID]),
			RequiresSkills: c.resolveKeysOmitEmpty(c.trackSkills[n.ID]),
			Debug:          Debug{NodeID: n.ID, Position: n.Position},
		}
		if n.Track != nil {
			t.Description = n.Track.Description
		}
		out.Tracks = append(out.Tracks, t)
	}

	for _, n := range sortedByKey(c.nodes, core.NodeTypeLesson) {
		l := LessonExport{
			LessonKey:       n.Key,
			Title:           n.Title,
			TrackKey:        c.byID[c.memberOf[n.ID]].Key,
			RequiresSkills:  c.resolveKeys(c.requiredSkills[n.ID]),
			RequiresLessons: c.resolveKeysOmitEmpty(c.prereqLessons[n.ID]),
			AwardsSkills:    c.resolveKeys(c.awardsSkills[n.ID]),
			NextLessons:     c.resolveKeysOmitEmpty(c.nextLessons[n.ID]),
			Debug:           Debug{NodeID: n.ID, Position: n.Position},
		}
		if n.Lesson != nil {
			l.Goal = n.Lesson.Goal
			l.SetupGuidance = n.Lesson.SetupGuidance
			l.EvaluationGuidance = n.Lesson.EvaluationGuidance
			l.DifficultyGuidance = n.Lesson.DifficultyGuidance
			l.Level = n.Lesson.Level
		}
		out.Lessons = append(out.Lessons, l)
	}

	for _, n := range sortedByKey(c.nodes, core.NodeTypeSkill) {
		s := SkillExport{
			SkillKey:          n.Key,
			Title:             n.Title,
			RequiredByLessons: sortedCopy(requiredBy[n.ID]),
			AwardedByLessons:  sortedCopy(awardedBy[n.ID]),
			RequiredByTracks:  sortedCopy(trackReq[n.ID]),
			Debug:             Debug{NodeID: n.ID, Position: n.Position},
		}
		if n.Skill != nil {
			s.Description = n.Skill.Description
			s.UnlockGuidance = n.Skill.UnlockGuidance
		}
		out.Skills = append(out.Skills, s)
	}

	return out
}

// resolveKeys maps node IDs to their keys, sorted; always non-nil so the
// JSON encoding of a required list is [] rather than null.
func (c *compiler) resolveKeys(ids []string) []string {
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, c.byID[id].Key)
	}
	sort.Strings(keys)
	return keys
}

// resolveKeysOmitEmpty is resolveKeys for optional lists: nil when
// empty so the field is omitted from the encoding.
func (c *compiler) resolveKeysOmitEmpty(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	return c.resolveKeys(ids)
}

func sortedCopy(keys []string) []string {
	out := make([]string, 0, len(keys))
	out = append(out, keys...)
	sort.Strings(out)
	return out
}

func sortedByKey(nodes []core.Node, t core.NodeType) []*core.Node {
	var out []*core.Node
	for i := range nodes {
		if nodes[i].Type == t {
			out = append(out, &nodes[i])
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
