package docstore

import (
	"cmp"
	"slices"
)

// Direction is the sort direction of a query.
type Direction int

const (
	// Asc sorts ascending.
	Asc Direction = iota
	// Desc sorts descending.
	Desc
)

// Filter is an equality condition on a top-level field.
type Filter struct {
	Field string
	Value any
}

// Query selects documents of one collection by equality filters, ordered by
// at most one field.
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Direction  Direction
}

// Collection starts a query over every document of the collection.
func Collection(path string) Query {
	return Query{Collection: path}
}

// Where adds an equality filter.
func (q Query) Where(field string, value any) Query {
	q.Filters = append(slices.Clone(q.Filters), Filter{Field: field, Value: value})
	return q
}

// Order sets the ordering field and direction.
func (q Query) Order(field string, dir Direction) Query {
	q.OrderBy = field
	q.Direction = dir
	return q
}

func (q Query) matches(f Fields) bool {
	for _, flt := range q.Filters {
		if !valuesEqual(normalize(f[flt.Field]), normalize(flt.Value)) {
			return false
		}
	}
	return true
}

// evaluate filters and sorts docs in memory. Ties, and every document when
// no order field is set, fall back to id order.
func (q Query) evaluate(docs []Document) []Document {
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		if q.matches(d.Fields) {
			out = append(out, d)
		}
	}
	slices.SortStableFunc(out, func(a, b Document) int {
		if q.OrderBy != "" {
			c := compareValues(a.Fields[q.OrderBy], b.Fields[q.OrderBy])
			if q.Direction == Desc {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out
}
