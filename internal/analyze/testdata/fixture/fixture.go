// Package fixture holds types exercising every layout case.
package fixture

import (
	"serialcompat/examples/shadow/base"
)

type Inner struct {
	base.Base

	depth int
}

type Outer struct {
	*Inner
	*base.Base `serial:"-"`

	_     struct{}
	cache map[string]int `serial:"-"`
	depth int
	Label string
}

type Remote struct {
	*base.Base

	ID int
}

type Box[T any] struct {
	Value T
}

type Holder struct {
	Box[int]
}

type Count int
