// Package harness runs realizability scenarios with expected verdicts.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: response_k1
//	description: "G(r -> F g) is realizable with one pending step"
//	game: ../games/response.yaml
//	mode: one            # one | many | dual
//	negation: neg.yaml   # dual only
//	options:
//	  k: 1
//	  workers: 2
//	expect: realizable   # realizable | unrealizable | unknown
//	assertions:
//	  - type: k_reached
//	    value: 1
//
// Game paths are relative to the scenario file.
//
// # Assertion Types
//
//   - k_reached: the bound of the last game solved
//   - max_iterations: an upper bound on CPre rounds
//   - states: the state count of the final game
//   - jobs: the number of scheduler jobs (mode many)
//   - race_winner: which contestant answered (mode dual)
//
// # Deterministic Testing
//
// Every run records its verdict in a verdict store before the report is
// built. Run IDs come from testutil.SequentialRunIDs and sequence numbers
// from testutil.DeterministicClock, so reports are byte-identical across
// runs and can be compared against golden files.
package harness
