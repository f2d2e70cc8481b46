package version

import (
	"reflect"
	"sort"

	"github.com/todmy/doc-integrity/pkg/models"
)

// FieldChange reports one changed field between two snapshots of the
// same logical document.
type FieldChange struct {
	Field    string `json:"field"`
	OldValue any    `json:"old_value"`
	NewValue any    `json:"new_value"`
	Type     string `json:"type"`
}

// Diff compares two snapshots field by field. Scalars compare strictly;
// set-valued fields compare as sorted sequences so order never counts as
// a change; nested records report one aggregate change. Output order is
// fixed regardless of which fields changed.
func Diff(a, b models.Fields) []FieldChange {
	changes := make([]FieldChange, 0)

	if a.Title != b.Title {
		changes = append(changes, FieldChange{Field: "title", OldValue: a.Title, NewValue: b.Title, Type: "changed"})
	}
	if a.Description != b.Description {
		changes = append(changes, FieldChange{Field: "description", OldValue: a.Description, NewValue: b.Description, Type: "changed"})
	}
	if a.Category != b.Category {
		changes = append(changes, FieldChange{Field: "category", OldValue: a.Category, NewValue: b.Category, Type: "changed"})
	}
	if a.Include != b.Include {
		changes = append(changes, FieldChange{Field: "include", OldValue: a.Include, NewValue: b.Include, Type: "changed"})
	}
	if !sameMembers(a.People, b.People) {
		changes = append(changes, FieldChange{Field: "people", OldValue: a.People, NewValue: b.People, Type: "changed"})
	}
	if !sameMembers(a.Laws, b.Laws) {
		changes = append(changes, FieldChange{Field: "laws", OldValue: a.Laws, NewValue: b.Laws, Type: "changed"})
	}
	if !reflect.DeepEqual(normalizeFindings(a.Findings), normalizeFindings(b.Findings)) {
		changes = append(changes, FieldChange{Field: "findings", OldValue: a.Findings, NewValue: b.Findings, Type: "changed"})
	}
	if a.Placement != b.Placement {
		changes = append(changes, FieldChange{Field: "placement", OldValue: a.Placement, NewValue: b.Placement, Type: "changed"})
	}
	if a.TextContent != b.TextContent {
		changes = append(changes, FieldChange{Field: "content", OldValue: a.TextContent, NewValue: b.TextContent, Type: "changed"})
	}

	return changes
}

// DiffVersions compares two version snapshots of the same document.
func DiffVersions(a, b models.DocumentVersion) []FieldChange {
	return Diff(a.Fields, b.Fields)
}

// sameMembers reports whether two slices hold the same members,
// ignoring order. Both nil and empty count as equal.
func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	sa := append([]string(nil), a...)
	sb := append([]string(nil), b...)
	sort.Strings(sa)
	sort.Strings(sb)
	for i := range sa {
		if sa[i] != sb[i] {
			return false
		}
	}
	return true
}

// normalizeFindings maps nil to empty so omitted-on-both-sides never
// synthesizes a change.
func normalizeFindings(f []models.Finding) []models.Finding {
	if len(f) == 0 {
		return nil
	}
	return f
}
