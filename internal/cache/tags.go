package cache

import "fmt"

// ListID is the virtual id a list query is tagged with so that mutations
// changing list membership can invalidate it.
const ListID = "LIST"

// Tag is an invalidation label attached to cached query results and declared
// by mutations.
type Tag struct {
	Type string
	ID   string
}

func (t Tag) String() string {
	return fmt.Sprintf("%s:%s", t.Type, t.ID)
}

// Key identifies one cached query result.
type Key struct {
	Resource string
	ID       string
}

func (k Key) String() string {
	return fmt.Sprintf("%s/%s", k.Resource, k.ID)
}

type tagSet map[Tag]struct{}

func newTagSet(tags []Tag) tagSet {
	s := make(tagSet, len(tags))
	for _, t := range tags {
		s[t] = struct{}{}
	}
	return s
}

func (s tagSet) intersects(tags []Tag) bool {
	for _, t := range tags {
		if _, ok := s[t]; ok {
			return true
		}
	}
	return false
}

func (s tagSet) list() []Tag {
	out := make([]Tag, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	return out
}
