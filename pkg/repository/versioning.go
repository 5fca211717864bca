package repository

import "fmt"

// Versioned is implemented by entities carrying a version counter for
// optimistic locking. A successful update bumps the version; an update whose
// stored version no longer matches fails with OptimisticLockError.
type Versioned interface {
	GetVersion() int64
	SetVersion(version int64)
}

// OptimisticLockError reports a concurrent modification: the stored version
// moved past the one the entity was read at.
type OptimisticLockError struct {
	EntityID string
	Expected int64
	Actual   int64
}

// NewOptimisticLockError creates an OptimisticLockError for the given entity.
func NewOptimisticLockError(entityID string, expected, actual int64) *OptimisticLockError {
	return &OptimisticLockError{EntityID: entityID, Expected: expected, Actual: actual}
}

func (e *OptimisticLockError) Error() string {
	return fmt.Sprintf("optimistic lock failed for entity %s: expected version %d, got %d",
		e.EntityID, e.Expected, e.Actual)
}
