// Package harness runs scripted editing sessions against a real editor and
// checks the outcome.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: reorder_packages
//	description: "Dragging a package below another swaps their order"
//	app_id: scoring
//	runtime_id: prod
//	initial: docs/two_packages.json   # optional, relative to the scenario
//	steps:
//	  - action:
//	      type: ADD_PACKAGE
//	      package: { name: discounts, rules: [] }
//	  - drag: { package: discounts, to: 60, result: reorder }
//	  - undo: true
//	  - expect:
//	      packages: [package_initialisations, discounts]
//	      can_redo: true
//	expect:
//	  modified: true
//
// A step does exactly one thing: action, undo, redo, drag, save or reload.
// A step holding only expect checks the session at that point; expect
// attached to another step is checked after that step runs.
//
// Action bodies use the wire form of actions. Strings of the form
// "@pkg:<package name>" and "@rule:<package name>/<rule name>" are replaced
// with the matching id before decoding, so scenarios never hard-code ids.
//
// # Deterministic Execution
//
// Every scenario runs on a fresh in-memory SQLite store with a step clock
// (testutil.StepClock) and sequential ids (testutil.SequenceIDs), so the
// same scenario always produces a byte-identical final document. That
// document is what golden files capture.
//
// # Usage
//
//	sc, err := harness.LoadScenario("testdata/scenarios/reorder.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := harness.Run(ctx, sc)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if !result.Pass {
//	    for _, e := range result.Errors {
//	        log.Println(e)
//	    }
//	}
package harness
