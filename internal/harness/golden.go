package harness

import (
	"bytes"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// AssertGolden compares the text report of the scenario's last run
// against testdata/golden/<name>.golden.
//
// Regenerate with: go test ./internal/harness -update
func AssertGolden(t *testing.T, name string, result *Result) {
	t.Helper()

	last := result.Last()
	if last == nil {
		t.Fatalf("scenario %s produced no report", name)
	}

	var buf bytes.Buffer
	if err := last.WriteText(&buf); err != nil {
		t.Fatalf("render report: %v", err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, buf.Bytes())
}
