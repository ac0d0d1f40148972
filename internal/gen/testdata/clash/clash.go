// Package clash declares identifiers that collide with the default import
// names of generated code.
package clash

import (
	b "serialcompat/examples/shadow/base"
)

var fields = []string{"a"}

func base() {}

func base2() {}

type Record struct {
	*b.Base

	fields []string
}

type Spec[T any] struct {
	Value T
}

var _, _ = base, base2
