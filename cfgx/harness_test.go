package cfgx

import (
	"testing"

	"github.com/goliatone/go-confmerge/value"
)

// testCase standardises table-driven tests across cfgx.
type testCase struct {
	name string
	run  func(t *testing.T)
}

// runTestCases executes the provided cases using t.Run, guarding against nil funcs.
func runTestCases(t *testing.T, cases []testCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.run == nil {
				t.Skip("no-op test case")
				return
			}
			tc.run(t)
		})
	}
}

// tree converts a literal into a value tree, failing the test on error.
func tree(t *testing.T, in any) value.Value {
	t.Helper()
	v, err := value.From(in)
	if err != nil {
		t.Fatalf("invalid test tree: %v", err)
	}
	return v
}
