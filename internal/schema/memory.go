package schema

import (
	"triplequery/internal/querymodel"
	"triplequery/internal/triple"
)

// collectionSchema is one collection's declared attributes and rules.
type collectionSchema struct {
	attributes map[string]Attribute // keyed by triple.Path.String()
	rules      *Rules
	relations  map[string]Relation
}

// MemoryService is an in-memory Service used by tests and by the
// in-repository conformance fixtures; it is not meant for production
// use (spec §1 places schema definition out of scope).
type MemoryService struct {
	collections map[string]*collectionSchema
	// cacheable lists collections whose queries are always reported
	// cacheable by CanCacheQuery, for tests that want to exercise the
	// cache path deterministically.
	cacheable map[string]bool
}

// NewMemoryService returns an empty schema with no declared
// collections; use Declare to populate it.
func NewMemoryService() *MemoryService {
	return &MemoryService{
		collections: make(map[string]*collectionSchema),
		cacheable:   make(map[string]bool),
	}
}

// Declare registers collection with the given attribute map and
// optional rules. Declare is not safe for concurrent use with reads;
// callers must finish declaring before handing the service to the
// engine.
func (s *MemoryService) Declare(collection string, attrs map[string]Attribute, rules *Rules) {
	s.collections[collection] = &collectionSchema{attributes: attrs, rules: rules, relations: make(map[string]Relation)}
}

// DeclareRelation registers a named relation on an already-declared
// collection.
func (s *MemoryService) DeclareRelation(collection, name string, rel Relation) {
	c, ok := s.collections[collection]
	if !ok {
		c = &collectionSchema{attributes: make(map[string]Attribute), relations: make(map[string]Relation)}
		s.collections[collection] = c
	}
	if c.relations == nil {
		c.relations = make(map[string]Relation)
	}
	c.relations[name] = rel
}

// SetCacheable marks collection's queries as cacheable for
// CanCacheQuery; the zero value is not cacheable.
func (s *MemoryService) SetCacheable(collection string, cacheable bool) {
	s.cacheable[collection] = cacheable
}

func (s *MemoryService) GetAttribute(collection string, path triple.Path) (Attribute, bool) {
	c, ok := s.collections[collection]
	if !ok {
		return Attribute{}, false
	}
	attr, ok := c.attributes[path.String()]
	return attr, ok
}

func (s *MemoryService) ScalarAttributePaths(collection string) []triple.Path {
	c, ok := s.collections[collection]
	if !ok {
		return nil
	}
	paths := make([]triple.Path, 0, len(c.attributes))
	for key, attr := range c.attributes {
		if attr.Type == TypeQuery {
			continue
		}
		paths = append(paths, triple.ParsePath(key))
	}
	return paths
}

func (s *MemoryService) GetRelation(collection, name string) (Relation, bool) {
	c, ok := s.collections[collection]
	if !ok {
		return Relation{}, false
	}
	rel, ok := c.relations[name]
	return rel, ok
}

func (s *MemoryService) GetCollectionRules(collection string) (Rules, bool) {
	c, ok := s.collections[collection]
	if !ok || c.rules == nil {
		return Rules{}, false
	}
	return *c.rules, true
}

func (s *MemoryService) ConvertDBValueToJS(value any, attr Attribute) any {
	switch attr.Type {
	case TypeDate:
		// Triples store dates as their wire-native representation
		// already (no on-disk date type in this engine's data model);
		// coercion is a no-op placeholder for a real schema's
		// timestamp parsing.
		return value
	default:
		return value
	}
}

func (s *MemoryService) CanCacheQuery(q *querymodel.Query, collection string) bool {
	return s.cacheable[collection]
}
