package openapi

import (
	"cmp"
	"fmt"
	"slices"
)

// Resource holds the operations of one controller keyed by method and path.
type Resource map[string]Record

// Registry groups documented operations by controller service name.
type Registry map[string]Resource

func toKey(method string, path string) string {
	return method + ":" + path
}

// Add registers record. Two controllers cannot document the same method and
// path.
func (reg Registry) Add(record Record) error {
	key := toKey(record.Method, record.Path)
	if existing, ok := reg.FindOp(record.Method, record.Path); ok && existing.Controller != record.Controller {
		return fmt.Errorf("%s %s is documented by both %s and %s", record.Method, record.Path, existing.Controller, record.Controller)
	}

	grp, ok := reg[record.Controller]
	if !ok {
		grp = Resource{}
		reg[record.Controller] = grp
	}
	grp[key] = record
	return nil
}

func (reg Registry) FindOp(method string, path string) (Record, bool) {
	key := toKey(method, path)
	for _, grp := range reg {
		if r, ok := grp[key]; ok {
			return r, true
		}
	}
	return Record{}, false
}

// TaggedOps returns the operations carrying every tag given.
func (reg Registry) TaggedOps(tags ...string) []Record {
	var records []Record
	for _, r := range reg.Ops() {
		hasAll := true
		for _, tag := range tags {
			if !slices.Contains(r.Tags, tag) {
				hasAll = false
				break
			}
		}
		if hasAll {
			records = append(records, r)
		}
	}
	return records
}

// Ops returns every operation ordered by path, then method.
func (reg Registry) Ops() []Record {
	var records []Record
	for _, grp := range reg {
		for _, r := range grp {
			records = append(records, r)
		}
	}
	slices.SortFunc(records, func(a, b Record) int {
		return cmp.Or(cmp.Compare(a.Path, b.Path), cmp.Compare(a.Method, b.Method))
	})
	return records
}
