package viewvalues

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownKey      = errors.New("unknown key")
	ErrConflictingKey  = errors.New("conflicting key")
	ErrUndefinedHelper = errors.New("undefined helper")
)

// KeyError reports a problem with a single key. Kind is one of the sentinel
// errors above and is what errors.Is matches against.
type KeyError struct {
	Kind     error
	Key      string
	Accessor string
}

func (e *KeyError) Error() string {
	switch e.Kind {
	case ErrUnknownKey:
		return fmt.Sprintf("undefined root key '%s' for %s", e.Key, e.Accessor)
	case ErrConflictingKey:
		return fmt.Sprintf("conflicting key '%s' (declared as data and helper)", e.Key)
	case ErrUndefinedHelper:
		return fmt.Sprintf("undefined helper '%s'", e.Key)
	default:
		return fmt.Sprintf("%v: %s", e.Kind, e.Key)
	}
}

func (e *KeyError) Unwrap() error {
	return e.Kind
}
