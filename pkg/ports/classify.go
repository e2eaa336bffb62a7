package ports

import (
	"strings"

	"github.com/notatio-labs/curricc/pkg/core"
)

// Classify maps a port pair to its semantic edge kind. It is total and
// pure: any pair not recognized as a requirement or an unlock is a
// default (chain) edge, including pairs that no table row allows.
func Classify(sourcePort, targetPort core.Port) core.EdgeKind {
	if targetPort == core.PortSkillUnlockable {
		return core.KindUnlockable
	}
	if targetPort == core.PortSkillRequired || targetPort == core.PortLessonPrerequisite {
		if strings.HasSuffix(string(sourcePort), "-required") {
			return core.KindRequirement
		}
	}
	return core.KindDefault
}
