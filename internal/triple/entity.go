package triple

import (
	"errors"
	"strings"
)

// ErrMalformedEntityID is returned when an entity id is not of the form
// "<collection>#<external_id>".
var ErrMalformedEntityID = errors.New("triple: malformed entity id")

// EntityID identifies an entity as "<collection>#<external_id>".
type EntityID string

// NewEntityID builds an EntityID from its parts.
func NewEntityID(collection, externalID string) EntityID {
	return EntityID(collection + "#" + externalID)
}

// Split returns the collection name and external id encoded in id.
func (id EntityID) Split() (collection, externalID string, err error) {
	s := string(id)
	i := strings.IndexByte(s, '#')
	if i < 0 {
		return "", "", ErrMalformedEntityID
	}
	return s[:i], s[i+1:], nil
}

// Collection returns the collection portion of id, or "" if malformed.
func (id EntityID) Collection() string {
	collection, _, err := id.Split()
	if err != nil {
		return ""
	}
	return collection
}

// ExternalID returns the external-id portion of id, or "" if malformed.
func (id EntityID) ExternalID() string {
	_, ext, err := id.Split()
	if err != nil {
		return ""
	}
	return ext
}
