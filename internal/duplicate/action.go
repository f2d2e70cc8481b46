package duplicate

import (
	"fmt"
	"strings"
	"time"

	"github.com/todmy/doc-integrity/internal/fault"
)

// Action is the caller's resolution of a duplicate finding. The detector
// itself never acts on a result; what happens next is the upload
// pipeline's decision.
type Action string

const (
	ActionSkip     Action = "skip"
	ActionReplace  Action = "replace"
	ActionKeepBoth Action = "keep-both"
)

// ParseAction validates a user-supplied duplicate action.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionSkip, ActionReplace, ActionKeepBoth:
		return Action(s), nil
	default:
		return "", fault.New(fault.Validation, "invalid duplicate action %q", s)
	}
}

// KeepBothName derives a unique file name for a keep-both resolution by
// suffixing a timestamp before the extension.
func KeepBothName(fileName string, now time.Time) string {
	suffix := fmt.Sprintf("_%d", now.UnixMilli())
	if idx := strings.LastIndex(fileName, "."); idx > 0 {
		return fileName[:idx] + suffix + fileName[idx:]
	}
	return fileName + suffix
}
