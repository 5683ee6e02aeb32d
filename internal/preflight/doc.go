// Package preflight checks that personalvault can run before it serves
// requests: the data directory is writable, the disk has room, the
// database is intact, credentials are present and the embedding provider
// answers.
//
// Use the Checker type to run all validations:
//
//	checker := preflight.New(preflight.WithOutput(os.Stdout))
//	results := checker.RunAll(ctx, preflight.Target{DataDir: dir, DBPath: db})
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
//
// A marker file in the data directory records the last passing run so
// that startup can skip the checks.
package preflight
