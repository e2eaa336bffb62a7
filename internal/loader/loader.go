// Package loader decodes the editor's persisted snapshot format into
// the core graph model. The snapshot is the JSON document the canvas
// editor saves: a flat node list with type-dependent optional fields,
// plus the edge list.
package loader

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/notatio-labs/curricc/pkg/core"
	"github.com/notatio-labs/curricc/pkg/ports"
)

// ErrSchema marks snapshot records that do not decode into the graph
// model. Check with errors.Is.
var ErrSchema = errors.New("snapshot schema error")

// RecordError describes one malformed node or edge record.
type RecordError struct {
	// RecordID is the offending node or edge id, when known
	RecordID string
	Msg      string
}

func (e *RecordError) Error() string {
	if e.RecordID != "" {
		return fmt.Sprintf("%v: record %s: %s", ErrSchema, e.RecordID, e.Msg)
	}
	return fmt.Sprintf("%v: %s", ErrSchema, e.Msg)
}

func (e *RecordError) Unwrap() error { return ErrSchema }

// NodeRecord is the editor's on-disk node shape: a uniform envelope
// with type-dependent optional fields.
type NodeRecord struct {
	ID       string        `json:"id"`
	Type     core.NodeType `json:"type"`
	Key      string        `json:"key"`
	Title    string        `json:"title"`
	Position core.Position `json:"position"`

	// Track fields
	Order       int    `json:"order,omitempty"`
	Description string `json:"description,omitempty"`

	// Lesson fields
	Goal               string `json:"goal,omitempty"`
	SetupGuidance      string `json:"setupGuidance,omitempty"`
	EvaluationGuidance string `json:"evaluationGuidance,omitempty"`
	DifficultyGuidance string `json:"difficultyGuidance,omitempty"`
	Level              int    `json:"level,omitempty"`

	// Skill fields
	UnlockGuidance string `json:"unlockGuidance,omitempty"`

	// Tune fields
	MusicRef string `json:"musicRef,omitempty"`
}

// EdgeRecord is the editor's on-disk edge shape.
type EdgeRecord struct {
	ID         string        `json:"id"`
	Source     string        `json:"source"`
	Target     string        `json:"target"`
	SourcePort core.Port     `json:"sourcePort"`
	TargetPort core.Port     `json:"targetPort"`
	Kind       core.EdgeKind `json:"kind,omitempty"`
}

// Snapshot is the persisted document: the same {nodes, edges} shape the
// editor round-trips through its persistence layer.
type Snapshot struct {
	Nodes []NodeRecord `json:"nodes"`
	Edges []EdgeRecord `json:"edges"`
}

// Load reads and parses a snapshot file.
func Load(path string) (*core.Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return Parse(data)
}

// Parse decodes snapshot JSON into a core graph. Schema problems are
// accumulated across all records and returned joined, so the author
// sees every malformed record at once. Graph-level invariants (key
// uniqueness, dangling edges, port legality) are left to the compiler.
func Parse(data []byte) (*core.Graph, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	var errs []error
	g := &core.Graph{
		Nodes: make([]core.Node, 0, len(snap.Nodes)),
		Edges: make([]core.Edge, 0, len(snap.Edges)),
	}

	for i, rec := range snap.Nodes {
		n, err := decodeNode(i, rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		g.Nodes = append(g.Nodes, n)
	}

	for i, rec := range snap.Edges {
		e, err := decodeEdge(i, rec)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		g.Edges = append(g.Edges, e)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return g, nil
}

// DecodeNode converts a single node record, for callers handling
// records outside a full snapshot (the editor API).
func DecodeNode(rec NodeRecord) (core.Node, error) {
	return decodeNode(0, rec)
}

// DecodeEdge converts a single edge record.
func DecodeEdge(rec EdgeRecord) (core.Edge, error) {
	return decodeEdge(0, rec)
}

func decodeNode(i int, rec NodeRecord) (core.Node, error) {
	if rec.ID == "" {
		return core.Node{}, &RecordError{Msg: fmt.Sprintf("node %d has no id", i)}
	}
	if !rec.Type.Valid() {
		return core.Node{}, &RecordError{RecordID: rec.ID, Msg: fmt.Sprintf("unknown node type %q", rec.Type)}
	}

	n := core.Node{
		ID:       rec.ID,
		Type:     rec.Type,
		Key:      rec.Key,
		Title:    rec.Title,
		Position: rec.Position,
	}
	switch rec.Type {
	case core.NodeTypeTrack:
		n.Track = &core.TrackFields{Order: rec.Order, Description: rec.Description}
	case core.NodeTypeLesson:
		n.Lesson = &core.LessonFields{
			Goal:               rec.Goal,
			SetupGuidance:      rec.SetupGuidance,
			EvaluationGuidance: rec.EvaluationGuidance,
			DifficultyGuidance: rec.DifficultyGuidance,
			Level:              rec.Level,
		}
	case core.NodeTypeSkill:
		n.Skill = &core.SkillFields{Description: rec.Description, UnlockGuidance: rec.UnlockGuidance}
	case core.NodeTypeTune:
		n.Tune = &core.TuneFields{
			MusicRef:           rec.MusicRef,
			Description:        rec.Description,
			EvaluationGuidance: rec.EvaluationGuidance,
			Level:              rec.Level,
		}
	}
	return n, nil
}

func decodeEdge(i int, rec EdgeRecord) (core.Edge, error) {
	if rec.ID == "" {
		return core.Edge{}, &RecordError{Msg: fmt.Sprintf("edge %d has no id", i)}
	}
	if rec.Source == "" || rec.Target == "" {
		return core.Edge{}, &RecordError{RecordID: rec.ID, Msg: "edge is missing an endpoint"}
	}
	if rec.SourcePort == "" || rec.TargetPort == "" {
		return core.Edge{}, &RecordError{RecordID: rec.ID, Msg: "edge is missing a port"}
	}

	kind := rec.Kind
	if kind == "" {
		// Older snapshots predate the stored kind; derive it.
		kind = ports.Classify(rec.SourcePort, rec.TargetPort)
	}
	return core.Edge{
		ID:         rec.ID,
		Source:     rec.Source,
		Target:     rec.Target,
		SourcePort: rec.SourcePort,
		TargetPort: rec.TargetPort,
		Kind:       kind,
	}, nil
}
