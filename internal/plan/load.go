package plan

import (
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

// schema constrains plan files before their entries are validated in Go.
const schema = `
entries: [...string & =~"^[^/]+$"]
`

// LoadFile reads a plan from a CUE file of the form:
//
//	entries: ["clusters", "hosts", "networks"]
//
// The result goes through the same validation as New.
func LoadFile(path string) (Plan, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Plan{}, fmt.Errorf("read plan file: %w", err)
	}
	return LoadCUE(path, src)
}

// LoadCUE compiles src (named filename in diagnostics) and builds a Plan.
func LoadCUE(filename string, src []byte) (Plan, error) {
	ctx := cuecontext.New()

	schemaVal := ctx.CompileString(schema, cue.Filename("plan-schema.cue"))
	if err := schemaVal.Err(); err != nil {
		return Plan{}, fmt.Errorf("compile plan schema: %w", err)
	}

	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return Plan{}, fmt.Errorf("compile plan %s: %w", filename, err)
	}

	if !v.LookupPath(cue.ParsePath("entries")).Exists() {
		return Plan{}, fmt.Errorf("plan %s: missing entries", filename)
	}

	unified := schemaVal.Unify(v)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return Plan{}, fmt.Errorf("validate plan %s: %w", filename, err)
	}

	iter, err := unified.LookupPath(cue.ParsePath("entries")).List()
	if err != nil {
		return Plan{}, fmt.Errorf("plan %s: entries: %w", filename, err)
	}

	var entries []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return Plan{}, fmt.Errorf("plan %s: entries[%d]: %w", filename, len(entries), err)
		}
		entries = append(entries, s)
	}

	return New(entries...)
}
