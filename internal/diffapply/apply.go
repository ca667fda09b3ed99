package diffapply

import (
	"fmt"

	"prato/internal/domain/restaurants"
)

// ApplyError names the first field whose value could not be coerced.
type ApplyError struct {
	Field string
	Err   error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("cannot apply field %q: %v", e.Field, e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// Apply stages the change set against a copy of the entity and returns
// the new state plus the names of fields actually written. It is
// all-or-nothing: on any coercion failure the input entity is returned
// unchanged alongside an *ApplyError.
func Apply(entity *restaurants.Restaurant, set ChangeSet) (*restaurants.Restaurant, []string, error) {
	staged := *entity
	staged.WhatsIncluded = append([]string(nil), entity.WhatsIncluded...)
	staged.Dishes = append([]string(nil), entity.Dishes...)
	staged.Photos = append([]string(nil), entity.Photos...)

	var applied []string
	for _, ch := range set {
		write, ok := fieldTable[ch.Field]
		if !ok {
			continue
		}
		if err := write(&staged, ch.To); err != nil {
			return entity, nil, &ApplyError{Field: ch.Field, Err: err}
		}
		applied = append(applied, ch.Field)
	}
	return &staged, applied, nil
}
