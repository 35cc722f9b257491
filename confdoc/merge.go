package confdoc

import (
	"fmt"
	"strings"
)

type MergeStrategy int

const (
	OverwriteDuplicates MergeStrategy = iota
	ErrorOnDuplicates
	KeepExisting
)

// Merge deep merges src into dst. Nested maps are merged key by key, any
// other duplicate is resolved by strategy. Lists are values, they are never
// concatenated.
func Merge(dst, src *Map, strategy MergeStrategy) error {
	return merge(dst, src, strategy, nil)
}

func merge(dst, src *Map, strategy MergeStrategy, path []string) error {
	for _, k := range src.Keys() {
		v, _ := src.Get(k)

		existing, exists := dst.Get(k)
		if !exists {
			dst.Set(k, cloneValue(v))
			continue
		}

		dstMap, dstIsMap := existing.(*Map)
		srcMap, srcIsMap := v.(*Map)
		if dstIsMap && srcIsMap {
			if err := merge(dstMap, srcMap, strategy, append(path, k)); err != nil {
				return err
			}
			continue
		}

		switch strategy {
		case ErrorOnDuplicates:
			return fmt.Errorf("duplicate key found: %s", strings.Join(append(path, k), "."))
		case KeepExisting:
			continue
		}
		dst.Set(k, cloneValue(v))
	}
	return nil
}
