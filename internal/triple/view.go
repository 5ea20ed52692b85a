package triple

// Leaf is the value that won last-write-wins at some attribute path,
// together with the timestamp that produced it.
type Leaf struct {
	Value      any
	Timestamp  Timestamp
	Retraction bool
}

// EntityView is a materialized, last-write-wins snapshot of one entity's
// triples: a flat map from attribute path to the winning Leaf. Relation
// attributes (paths the schema types as "query") are not stored
// here directly; the Sub-query Loader (C6) populates them on demand into
// a side table (see Relations).
type EntityView struct {
	ID        EntityID
	leaves    map[string]Leaf
	paths     map[string]Path // canonical key -> path, for iteration
	Relations map[string]any  // alias -> loaded sub-query result, filled lazily
}

// NewEntityView creates an empty view for id.
func NewEntityView(id EntityID) *EntityView {
	return &EntityView{
		ID:     id,
		leaves: make(map[string]Leaf),
		paths:  make(map[string]Path),
	}
}

// Apply folds a single triple into the view under last-write-wins: the
// triple's value is kept only if its timestamp is strictly later than
// whatever is currently stored at that path. A later call with an equal
// timestamp never displaces an earlier-applied value, so callers should
// apply triples in non-decreasing timestamp order for determinism; the
// engine always does (see materialize.go).
func (v *EntityView) Apply(t Triple) {
	key := t.Path.key()
	if existing, ok := v.leaves[key]; ok && !t.Timestamp.After(existing.Timestamp) {
		return
	}
	v.leaves[key] = Leaf{Value: t.Value, Timestamp: t.Timestamp, Retraction: t.Retraction}
	v.paths[key] = t.Path
}

// Get returns the winning leaf at path, if any.
func (v *EntityView) Get(path Path) (Leaf, bool) {
	if v == nil {
		return Leaf{}, false
	}
	l, ok := v.leaves[path.key()]
	return l, ok
}

// Value returns the winning value at path, or nil if undefined.
func (v *EntityView) Value(path Path) any {
	l, ok := v.Get(path)
	if !ok || l.Retraction {
		return nil
	}
	return l.Value
}

// SetMembers returns the member values present under a set-typed
// attribute rooted at path (i.e. leaves whose path is path+[member]).
// Retracted members are excluded.
func (v *EntityView) SetMembers(path Path) []any {
	var out []any
	for key, p := range v.paths {
		if len(p) != len(path)+1 || !p[:len(path)].Equal(path) {
			continue
		}
		leaf := v.leaves[key]
		if leaf.Retraction {
			continue
		}
		present, _ := leaf.Value.(bool)
		if present {
			out = append(out, p[len(p)-1])
		}
	}
	return out
}

// Paths returns every attribute path the view has a leaf for, in no
// particular order.
func (v *EntityView) Paths() []Path {
	out := make([]Path, 0, len(v.paths))
	for _, p := range v.paths {
		out = append(out, p)
	}
	return out
}

// Tombstoned reports whether the entity's "_collection" leaf won a null
// value, per spec §3's tombstone rule.
func (v *EntityView) Tombstoned() bool {
	l, ok := v.Get(CollectionPath)
	return ok && l.Value == nil
}

// IsDefined reports whether path has any recorded value that is not a
// retraction (an explicit null written without the retraction flag
// counts as defined).
func (v *EntityView) IsDefined(path Path) bool {
	l, ok := v.Get(path)
	return ok && !l.Retraction
}
