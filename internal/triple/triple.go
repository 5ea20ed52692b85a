package triple

// Triple is the unit of state in the log: an entity, an attribute path
// within that entity, the value written at that path, and the causal
// timestamp of the write. Retraction triples carry Value == nil and
// Retraction == true; a retraction of the special "_collection" leaf
// tombstones the whole entity (see EntityView.Tombstoned).
type Triple struct {
	Entity     EntityID  `msgpack:"e"`
	Path       Path      `msgpack:"p"`
	Value      any       `msgpack:"v"`
	Timestamp  Timestamp `msgpack:"ts"`
	Retraction bool      `msgpack:"r,omitempty"`
}

// CollectionPath is the reserved leaf that carries an entity's collection
// name, or nil when the entity has been tombstoned.
var CollectionPath = Path{"_collection"}

// IsSetMember reports whether t writes a single member of a set-typed
// attribute, i.e. Path has more than one segment and the last segment is
// the member value itself rather than a further scalar key. Callers that
// know the schema type of Path[:len(Path)-1] use this together with
// schema lookups; triple.Triple itself only records the shape.
func (t Triple) IsSetMember() bool {
	return len(t.Path) > 1
}
