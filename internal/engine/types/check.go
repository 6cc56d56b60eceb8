package types

import "fmt"

// CheckState tracks the lazy type computation of an object.
type CheckState int

const (
	CheckNotStarted CheckState = iota
	CheckInProgress
	CheckCompleted
)

func (s CheckState) String() string {
	switch s {
	case CheckNotStarted:
		return "not-started"
	case CheckInProgress:
		return "in-progress"
	case CheckCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// Type is the result of a type computation performed outside this package.
type Type = any

// ObjectType returns the memoized type of obj, computing it once with
// compute. Requesting the type of an object whose computation is still in
// progress is a cycle: it is reported at the object and yields false.
func (rs *ResolveState) ObjectType(obj *Object, compute func(*Object) Type) (Type, bool) {
	switch obj.state {
	case CheckCompleted:
		return obj.typ, true
	case CheckInProgress:
		rs.report(obj.Range, fmt.Sprintf("cycle detected while computing type of %s", obj.DisplayName()))
		return nil, false
	}

	obj.state = CheckInProgress
	defer func() {
		// A panicking compute leaves the object retryable.
		if obj.state == CheckInProgress {
			obj.state = CheckNotStarted
		}
	}()
	t := compute(obj)
	obj.typ = t
	obj.state = CheckCompleted
	return t, true
}
