package service

import (
	"encoding/json"
	"fmt"

	"github.com/minegate/minegate/internal/registry"
)

// Kind partitions registration failures by who is at fault and whether the
// local merge was committed.
type Kind int

const (
	// KindValidation: malformed descriptor, nothing mutated.
	KindValidation Kind = iota + 1
	// KindStore: projects document unreadable or unwritable, nothing
	// partially written.
	KindStore
	// KindRejected: downstream reachable but refused the update; the local
	// merge is already committed.
	KindRejected
	// KindUnreachable: downstream connection failed; the local merge is
	// already committed.
	KindUnreachable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindStore:
		return "store"
	case KindRejected:
		return "downstream_rejected"
	case KindUnreachable:
		return "downstream_unreachable"
	default:
		return "unknown"
	}
}

// Error is a failed registration. For downstream failures Before and After
// carry the committed snapshots so the caller can decide whether to retry
// propagation on its own.
type Error struct {
	Kind    Kind
	Message string
	Details json.RawMessage
	Before  registry.Registry
	After   registry.Registry
	err     error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.err }

// Committed reports whether the projects document was mutated before the
// failure.
func (e *Error) Committed() bool {
	return e.Kind == KindRejected || e.Kind == KindUnreachable
}
