// Package testutils provides fixtures and helpers shared by the tests of several packages.
package testutils

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"go.viam.com/test"
)

// TempDir creates a temporary directory and fails the test if it cannot. It is removed when the test ends.
func TempDir(t *testing.T, pattern string) string {
	t.Helper()
	dir, err := os.MkdirTemp("", pattern)
	test.That(t, err, test.ShouldBeNil)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}

// ResolveFile returns the absolute path of a file given relative to the module root.
func ResolveFile(fn string) string {
	_, thisFilePath, _, ok := runtime.Caller(0)
	if !ok {
		panic("cannot resolve test file path")
	}
	return filepath.Join(filepath.Dir(thisFilePath), "..", fn)
}
