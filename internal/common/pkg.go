package common

import (
	"path"
	"strconv"
)

// UnknownStr is the String() of enum values outside their declared range.
const UnknownStr = "unknown"

// PkgAlias returns the package alias (last element of path) for a given package path.
// Returns empty string if pkgPath is empty.
func PkgAlias(pkgPath string) string {
	if pkgPath == "" {
		return ""
	}

	return path.Base(pkgPath)
}

// UniqueAlias returns PkgAlias(pkgPath), suffixed with a number when taken
// reports the plain alias as already used.
func UniqueAlias(pkgPath string, taken func(alias string) bool) string {
	base := PkgAlias(pkgPath)

	alias := base
	for i := 2; taken(alias); i++ {
		alias = base + strconv.Itoa(i)
	}

	return alias
}
