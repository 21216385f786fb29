// Package testutil provides shared test utilities for loopgate.
//
// This package consolidates common test helpers, fixtures, and assertions
// used across the loopgate codebase to reduce duplication and ensure
// consistent test patterns.
//
// # Fixtures
//
// The fixtures.go file provides sample data for testing:
//
//   - SampleSteps() - a typical ordered verification step list
//   - PassingVerdict(), FailingVerdict(), BlockedVerdict() - canned verdicts
//   - SampleState() - a populated loop state ready for a store round-trip
//   - SampleHistory() - iteration records spanning pass and fail outcomes
//   - OutputWithPromise(token) - agent output carrying a completion marker
//
// # Environment Helpers
//
// The env.go file provides test environment setup:
//
//   - SetupTestDir(t) - creates a temp directory with .loopgate structure
//   - WriteTestFile(t, base, path, content) - writes a file in test dir
//
// # Assertions
//
// The assertions.go file provides custom test assertions:
//
//   - AssertVerdictPass(t, v), AssertVerdictFail(t, v), AssertVerdictBlocked(t, v)
//   - AssertStepRan(t, v, name) - a named step appears in the verdict
//   - AssertStateIteration(t, st, n) - loop state iteration check
//   - AssertHistoryLength(t, records, n) - history length check
//
// # Usage
//
// Import the package in your test files:
//
//	import "github.com/okelly/loopgate/internal/testutil"
//
// Then use the helpers:
//
//	func TestSomething(t *testing.T) {
//	    tmpDir, store := testutil.SetupTestDir(t)
//	    st := testutil.SampleState()
//	    // ... run test ...
//	    testutil.AssertStateIteration(t, st, 1)
//	}
package testutil
