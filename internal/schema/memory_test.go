package schema

import (
	"testing"

	"triplequery/internal/querymodel"
	"triplequery/internal/triple"
)

func TestMemoryServiceDeclareAndGetAttribute(t *testing.T) {
	s := NewMemoryService()
	s.Declare("users", map[string]Attribute{
		"name": {Type: TypeString},
		"age":  {Type: TypeNumber},
	}, nil)

	attr, ok := s.GetAttribute("users", triple.Path{"name"})
	if !ok || attr.Type != TypeString {
		t.Fatalf("GetAttribute(users, name) = %+v, %v", attr, ok)
	}
	if _, ok := s.GetAttribute("users", triple.Path{"missing"}); ok {
		t.Errorf("GetAttribute should report false for an undeclared path")
	}
	if _, ok := s.GetAttribute("unknown", triple.Path{"name"}); ok {
		t.Errorf("GetAttribute should report false for an undeclared collection")
	}
}

func TestMemoryServiceScalarAttributePathsExcludesRelations(t *testing.T) {
	s := NewMemoryService()
	s.Declare("posts", map[string]Attribute{
		"title":  {Type: TypeString},
		"author": {Type: TypeQuery},
	}, nil)

	paths := s.ScalarAttributePaths("posts")
	if len(paths) != 1 || paths[0].String() != "title" {
		t.Errorf("ScalarAttributePaths() = %v, want only [title]", paths)
	}
}

func TestMemoryServiceRelationsAndRules(t *testing.T) {
	s := NewMemoryService()
	s.Declare("posts", map[string]Attribute{"author_id": {Type: TypeString}}, &Rules{
		Read: []querymodel.Filter{&querymodel.BooleanLiteralFilter{Value: true}},
	})
	s.DeclareRelation("posts", "author", Relation{Collection: "users", Cardinality: querymodel.CardinalityOne})

	rel, ok := s.GetRelation("posts", "author")
	if !ok || rel.Collection != "users" {
		t.Fatalf("GetRelation() = %+v, %v", rel, ok)
	}
	if _, ok := s.GetRelation("posts", "missing"); ok {
		t.Errorf("GetRelation should report false for an undeclared relation")
	}

	rules, ok := s.GetCollectionRules("posts")
	if !ok || len(rules.Read) != 1 {
		t.Fatalf("GetCollectionRules() = %+v, %v", rules, ok)
	}
	if _, ok := s.GetCollectionRules("users"); ok {
		t.Errorf("GetCollectionRules should report false for a collection with no declared rules")
	}
}

func TestMemoryServiceCanCacheQuery(t *testing.T) {
	s := NewMemoryService()
	s.SetCacheable("posts", true)
	if !s.CanCacheQuery(&querymodel.Query{Collection: "posts"}, "posts") {
		t.Errorf("CanCacheQuery(posts) should be true after SetCacheable")
	}
	if s.CanCacheQuery(&querymodel.Query{Collection: "users"}, "users") {
		t.Errorf("CanCacheQuery(users) should default to false")
	}
}
