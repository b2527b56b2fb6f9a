// Package harness runs conformance scenarios for query definitions.
//
// A scenario embeds a query definition, builds it, and checks the result
// against an expectation and a list of assertions.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	definition:
//	  name: movies
//	  params: { title: "The Matrix" }
//	  query:
//	    - match:
//	        patterns: ["(m:Movie {title: $title})"]
//	    - return:
//	        items: ["m"]
//	expect:
//	  cypher: |-
//	    MATCH (this0:`Movie` { title: $param0 })
//	    RETURN this0
//	  params: { param0: "The Matrix" }
//	assertions:
//	  - type: cypher_contains
//	    text: "RETURN this0"
//	  - type: param_count
//	    count: 1
//
// An expectation may name an error substring instead of cypher and params;
// the scenario then passes only when the build fails with that message.
//
// # Assertion Types
//
//   - cypher_contains: The built text contains a substring
//   - cypher_order: Substrings appear in the built text in the given order
//   - param_count: The parameter table has exactly N entries
//   - param_equals: A parameter key is bound to the given value
//
// # Deterministic Testing
//
// Builds are pure functions of the definition, so identical scenarios
// produce identical text and parameters. RunWithGolden snapshots the
// result as canonical JSON under testdata/golden.
package harness
