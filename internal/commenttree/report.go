package commenttree

import (
	"errors"
	"fmt"
	"strings"
)

// Report summarizes how a flat list was turned into a forest.
type Report struct {
	Nodes        int        `json:"nodes"`
	Roots        int        `json:"roots"`
	Orphans      []string   `json:"orphans,omitempty"`
	SelfParented []string   `json:"self_parented,omitempty"`
	DuplicateIDs []string   `json:"duplicate_ids,omitempty"`
	Cycles       [][]string `json:"cycles,omitempty"`
}

// DuplicateIDError reports an id carried by more than one record.
type DuplicateIDError struct{ ID string }

// SelfParentError reports a record that names itself as its parent.
type SelfParentError struct{ ID string }

// CycleError reports records whose parent chain loops back on itself.
type CycleError struct{ IDs []string }

func (e *DuplicateIDError) Error() string { return fmt.Sprintf("duplicate comment id %q", e.ID) }
func (e *SelfParentError) Error() string  { return fmt.Sprintf("comment %q is its own parent", e.ID) }
func (e *CycleError) Error() string {
	return fmt.Sprintf("reply cycle: %s", strings.Join(e.IDs, " -> "))
}

// Err returns the contract violations found while building, or nil.
// Orphans are not violations: parents are routinely on another page.
func (r Report) Err() error {
	var errs []error
	for _, id := range r.DuplicateIDs {
		errs = append(errs, &DuplicateIDError{ID: id})
	}
	for _, id := range r.SelfParented {
		errs = append(errs, &SelfParentError{ID: id})
	}
	for _, ids := range r.Cycles {
		errs = append(errs, &CycleError{IDs: ids})
	}
	return errors.Join(errs...)
}

// Validate checks items for duplicate ids, self-parented records and reply
// cycles. Build tolerates all three; Validate lets callers reject them.
func Validate[T any](items []T, key KeyFunc[T]) error {
	_, report := BuildWithReport(items, key)
	return report.Err()
}
