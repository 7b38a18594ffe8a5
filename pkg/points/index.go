// Package points builds fast membership sets over per-object reference
// point ids, partitioned by point kind. The index is read-only during
// validation; building it is a pure function of the supplied metadata.
package points

import "github.com/robotwin-lab/plancheck/pkg/schema"

// Kind is a reference point kind.
type Kind string

const (
	KindContact    Kind = "contact_point"
	KindFunctional Kind = "functional_point"
)

// KindForFrame derives the expected point kind from a step frame.
// WORLD imposes no kind constraint.
func KindForFrame(f schema.Frame) (Kind, bool) {
	switch f {
	case schema.FrameContact:
		return KindContact, true
	case schema.FrameFunctional:
		return KindFunctional, true
	}
	return "", false
}

// Set is a membership set of point ids.
type Set map[int]struct{}

func (s Set) add(id int) { s[id] = struct{}{} }

// Has reports whether id is in the set.
func (s Set) Has(id int) bool {
	_, ok := s[id]
	return ok
}

// Len returns the set size.
func (s Set) Len() int { return len(s) }

// ObjectSets holds one object's ids partitioned by kind, plus their union.
type ObjectSets struct {
	Contact    Set
	Functional Set
	Any        Set
}

// ByKind returns the set for a point kind.
func (o ObjectSets) ByKind(k Kind) Set {
	switch k {
	case KindContact:
		return o.Contact
	case KindFunctional:
		return o.Functional
	}
	return o.Any
}

func newObjectSets() ObjectSets {
	return ObjectSets{Contact: Set{}, Functional: Set{}, Any: Set{}}
}

// Index is the per-object point-id index with a cross-object union.
type Index struct {
	objects map[string]ObjectSets
	union   ObjectSets
}

// Build constructs an index from per-object metadata. Entries with no
// usable ids contribute nothing (malformed metadata is skipped upstream).
func Build(infos map[string]schema.ObjectPoints) *Index {
	ix := &Index{
		objects: make(map[string]ObjectSets, len(infos)),
		union:   newObjectSets(),
	}
	for name, info := range infos {
		sets := newObjectSets()
		for _, entry := range info.ContactPoints {
			for _, id := range entry.IDs {
				sets.Contact.add(id)
				sets.Any.add(id)
				ix.union.Contact.add(id)
				ix.union.Any.add(id)
			}
		}
		for _, entry := range info.FunctionalPoints {
			for _, id := range entry.IDs {
				sets.Functional.add(id)
				sets.Any.add(id)
				ix.union.Functional.add(id)
				ix.union.Any.add(id)
			}
		}
		ix.objects[name] = sets
	}
	return ix
}

// Object returns the sets for a named object.
func (ix *Index) Object(name string) (ObjectSets, bool) {
	sets, ok := ix.objects[name]
	return sets, ok
}

// Union returns the cross-object union sets. It is the explicit
// lower-confidence fallback tier used when a step names no object.
func (ix *Index) Union() ObjectSets {
	return ix.union
}

// Objects returns the number of indexed objects.
func (ix *Index) Objects() int { return len(ix.objects) }
