package testutils

import (
	"go.uber.org/goleak"
)

// VerifyTestMain runs the package's tests and then fails if any goroutine was leaked. opts name goroutines that
// are known to outlive the tests.
func VerifyTestMain(m goleak.TestingM, opts ...goleak.Option) {
	goleak.VerifyTestMain(m, opts...)
}
