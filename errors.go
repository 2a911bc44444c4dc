package kizuna

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports a handle that resolves to nothing, or a lookup for
	// something that is not registered or not attached.
	ErrNotFound = errors.New("kizuna: not found")

	// ErrAlreadyExists reports a duplicate registration, such as attaching a
	// second component of the same type to one entity.
	ErrAlreadyExists = errors.New("kizuna: already exists")

	// ErrInvalidOperation reports a request that would break a structural
	// invariant (removing the null id, parenting an entity into its own
	// subtree, mutating a doomed entity). The request is rejected as a whole.
	ErrInvalidOperation = errors.New("kizuna: invalid operation")
)

// HandlerError wraps a failure returned (or panicked) by an event handler.
// Publish keeps delivering after a failure and returns every HandlerError
// joined once delivery is complete.
type HandlerError struct {
	Event        TypeKey
	Subscription SubscriptionID
	Err          error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("kizuna: handler %d for event %s failed: %v",
		e.Subscription, TypeName(RoleEvent, e.Event), e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}
