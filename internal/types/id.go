// README: Opaque identifiers shared across modules.
package types

import "github.com/google/uuid"

type ID string

// NewID returns a random identifier for trips and riders.
func NewID() ID {
	return ID(uuid.NewString())
}

func (id ID) String() string {
	return string(id)
}
