package ports

import (
	"fmt"

	"github.com/notatio-labs/curricc/pkg/core"
)

// Decision is the outcome of validating a single proposed connection.
type Decision struct {
	// Allowed reports whether the edge may be added
	Allowed bool
	// Reason explains a rejection in author-facing terms; empty on accept
	Reason string
	// Kind is the classification the edge carries when accepted
	Kind core.EdgeKind
}

func reject(format string, args ...any) Decision {
	return Decision{Reason: fmt.Sprintf(format, args...)}
}

// ValidateConnection decides whether an edge from sourcePort on source
// to targetPort on target may be added given the current edge set. It
// only reads its inputs, so it can be re-run for every candidate
// connection on the interactive edit path.
//
// On acceptance the caller appends the edge with ID
// core.EdgeID(source.ID, target.ID, decision.Kind).
func ValidateConnection(source, target *core.Node, sourcePort, targetPort core.Port, existing []core.Edge) Decision {
	rule, ok := Lookup(source.Type, sourcePort, target.Type, targetPort)
	if !ok {
		return reject("cannot connect %s %q to %s %q: no connection %s -> %s is defined for these node types",
			source.Type, source.Key, target.Type, target.Key, sourcePort, targetPort)
	}

	if rule.SingleSource {
		for _, e := range existing {
			if e.Source == source.ID && e.SourcePort == sourcePort {
				return reject("%s %q already has a connection from %s; only one is allowed",
					source.Type, source.Key, sourcePort)
			}
		}
	}

	if rule.SingleTarget {
		kind := Classify(sourcePort, targetPort)
		for _, e := range existing {
			if e.Target != target.ID || e.TargetPort != targetPort {
				continue
			}
			// Chain "in" ports hold one edge of any kind; the skill
			// unlockable port holds one unlockable edge.
			if targetPort != core.PortSkillUnlockable || e.Kind == kind {
				return reject("%s %q already has a connection into %s; only one is allowed",
					target.Type, target.Key, targetPort)
			}
		}
	}

	return Decision{Allowed: true, Kind: Classify(sourcePort, targetPort)}
}
