package actor

import "fmt"

// Key identifies one logical entity instance. At most one activation per key
// processes messages at any time.
type Key struct {
	Kind           string
	OrganizationID string
	EntityID       string
}

// NewKey builds a key for the given kind and identifiers.
func NewKey(kind, organizationID, entityID string) Key {
	return Key{Kind: kind, OrganizationID: organizationID, EntityID: entityID}
}

// Validate checks that every key component is present.
func (k Key) Validate() error {
	if k.Kind == "" || k.OrganizationID == "" || k.EntityID == "" {
		return fmt.Errorf("%w: kind, organization id and entity id are required", ErrInvalidKey)
	}
	return nil
}

func (k Key) String() string {
	return k.Kind + "/" + k.OrganizationID + "/" + k.EntityID
}
