package votes

import "fmt"

// subjectSpec locates the counter columns for one subject kind. Adding a
// votable entity means adding a row here and nothing else; the toggle
// logic itself is kind-agnostic.
type subjectSpec struct {
	table string
	// extra WHERE fragment for subjects that can be soft-deleted.
	visibleCond string
}

var subjects = map[SubjectKind]subjectSpec{
	KindReview:     {table: "reviews", visibleCond: "AND NOT is_hidden"},
	KindSuggestion: {table: "edit_suggestions"},
}

func subjectFor(kind SubjectKind) (subjectSpec, error) {
	spec, ok := subjects[kind]
	if !ok {
		return subjectSpec{}, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
	return spec, nil
}
