// Package harness runs bootstrap scenarios described in YAML.
//
// A scenario seeds an in-memory store, scripts store faults, runs the
// bootstrap one or more times and checks the outcome. It exercises the
// same code path as the command, with a fixed run ID and a clock that
// never sleeps.
//
// # Scenario Format
//
//	name: transient_retry
//	description: "A create that times out twice still succeeds"
//	root_prefix: commissaire        # optional, default "commissaire"
//	entries: [hosts, networks]      # optional, default plan when absent
//	concurrency: 1                  # optional, default 1 (plan order)
//	runs: 1                         # optional, default 1
//	run_id: run-transient           # optional
//	setup:
//	  directories: [commissaire/hosts]
//	  values: [commissaire/hosts/10.2.0.2]
//	faults:
//	  - op: create
//	    path: commissaire/networks
//	    kind: transient
//	    times: 2
//	assertions:
//	  - type: phase
//	    phase: done
//	  - type: entry_status
//	    entry: networks
//	    status: created
//	    attempts: 3
//
// # Assertion Types
//
//   - phase: terminal phase, and failed_phase when given
//   - entry_status: status (and attempts when non-zero) of one entry
//   - tree: exact listing; directories end with "/"
//   - call_count: store calls per op, per path for creates
//   - error_kind: store.Kind of the run error; "none" for success
//
// All assertions look at the last run.
//
// # Usage
//
//	scenario, err := harness.LoadScenario("testdata/scenarios/fresh_store.yaml")
//	if err != nil {
//	    t.Fatal(err)
//	}
//	result, err := harness.Run(scenario)
//	if err != nil {
//	    t.Fatal(err)
//	}
//	if !result.Pass {
//	    t.Errorf("scenario failed: %v", result.Errors)
//	}
//	harness.AssertGolden(t, scenario.Name, result)
package harness
