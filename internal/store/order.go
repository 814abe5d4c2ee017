package store

import (
	"fmt"
	"slices"
	"strings"
)

type OrderField int

const (
	ByDate OrderField = iota
	ByName
)

type Direction int

const (
	Descending Direction = iota
	Ascending
)

// Order is the (field, direction) policy used to sort the counter list.
type Order struct {
	Field     OrderField
	Direction Direction
}

// DefaultOrder lists the newest counters first.
func DefaultOrder() Order {
	return Order{Field: ByDate, Direction: Descending}
}

func (o Order) String() string {
	field := "date"
	if o.Field == ByName {
		field = "name"
	}
	dir := "desc"
	if o.Direction == Ascending {
		dir = "asc"
	}
	return field + "_" + dir
}

// ParseOrder parses the String form ("name_asc", "date_desc", ...).
func ParseOrder(s string) (Order, error) {
	field, dir, ok := strings.Cut(strings.TrimSpace(s), "_")
	if !ok {
		return Order{}, fmt.Errorf("parse order %q: missing direction", s)
	}

	var o Order
	switch field {
	case "date":
		o.Field = ByDate
	case "name":
		o.Field = ByName
	default:
		return Order{}, fmt.Errorf("parse order %q: unknown field %q", s, field)
	}
	switch dir {
	case "asc":
		o.Direction = Ascending
	case "desc":
		o.Direction = Descending
	default:
		return Order{}, fmt.Errorf("parse order %q: unknown direction %q", s, dir)
	}
	return o, nil
}

// SortCounters returns a sorted copy of counters. The sort is stable in both
// directions: equal keys keep their incoming relative order.
func SortCounters(counters []Counter, o Order) []Counter {
	sorted := slices.Clone(counters)

	cmp := func(a, b Counter) int {
		if o.Field == ByName {
			return strings.Compare(a.Name, b.Name)
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	if o.Direction == Descending {
		asc := cmp
		cmp = func(a, b Counter) int { return asc(b, a) }
	}

	slices.SortStableFunc(sorted, cmp)
	return sorted
}
