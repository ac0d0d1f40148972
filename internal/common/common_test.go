package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPkgAlias(t *testing.T) {
	assert.Equal(t, "base", PkgAlias("serialcompat/examples/shadow/base"))
	assert.Equal(t, "fields", PkgAlias("fields"))
	assert.Empty(t, PkgAlias(""))
}

func TestUniqueAlias(t *testing.T) {
	used := map[string]bool{"base": true, "base2": true}

	assert.Equal(t, "base3", UniqueAlias("a/base", func(a string) bool { return used[a] }))
	assert.Equal(t, "other", UniqueAlias("a/other", func(a string) bool { return used[a] }))
}

func TestAppend(t *testing.T) {
	s := make([]string, 1, 4)
	s[0] = "a"

	b := Append(s, "b")
	c := Append(s, "c")

	assert.Equal(t, []string{"a", "b"}, b)
	assert.Equal(t, []string{"a", "c"}, c)
	assert.True(t, IsEmpty([]int{}))
	assert.False(t, IsEmpty(s))
}
