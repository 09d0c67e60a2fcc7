// # Available Commands
//
//   - serve: run the reference evaluation and history service
//   - eval: evaluate an expression through the expression buffer
//   - keys: drive a calculator session one key per line
//   - history: list or clear recorded evaluations
//   - stats: show the evaluation counters
//   - mode: show or change the saved evaluation mode
//   - health: check that the service is reachable
//   - version: show build information
//
// # Command Examples
//
//	abacus serve --memory
//	abacus eval "2*(3+4)"
//	abacus history --output yaml
//	abacus mode toggle
package cmd
