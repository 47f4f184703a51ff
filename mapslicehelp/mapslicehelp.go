package mapslicehelp

import (
	"github.com/umpc/go-sortedmap"
	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/exp/constraints"
)

func LastElement[T any](elements []T) *T {
	length := len(elements)
	if length > 0 {
		return &elements[length-1]
	}
	return nil
}

func OrderedMapKeys[K comparable, V any](m *orderedmap.OrderedMap[K, V]) []K {
	l := make([]K, m.Len())
	i := 0
	for p := m.Oldest(); p != nil; p = p.Next() {
		l[i] = p.Key
		i++
	}
	return l
}

// NewSortedSet makes a sortedmap whose keys of type K are ordered by an ordered value.
func NewSortedSet[V constraints.Ordered](capacity int) *sortedmap.SortedMap {
	return sortedmap.New(capacity, func(x, y interface{}) bool {
		return x.(V) < y.(V)
	})
}

// SortedKeys returns the keys of a sortedmap in value order.
func SortedKeys[K any](sm *sortedmap.SortedMap) []K {
	keys := sm.Keys()
	l := make([]K, len(keys))
	for i, key := range keys {
		l[i] = key.(K)
	}
	return l
}

func ReverseClone[S ~[]E, E any](s S) S {
	if s == nil {
		return nil
	}
	l := len(s)
	c := make(S, l)
	for i := 0; i < l; i++ {
		c[l-1-i] = s[i]
	}
	return c
}
