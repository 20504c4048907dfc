package mcpserver

// Tool descriptions with interpretation guidance for LLMs.

func describeFindDeadCode() string {
	return `Scans a JavaScript/TypeScript tree for likely-dead code using text pattern matching.

USE WHEN:
- Cleaning up a codebase before a refactor
- Pruning package.json after a feature removal
- Looking for disabled or stale code paths left behind

INTERPRETING RESULTS:
- unusedExports: exported names that no import statement anywhere in the tree mentions.
  Matching is by name only, so a name imported from any module counts as used.
  Entry points (index, main, server, worker, app/, pages/, config files) and tests are exempt.
  "default" and Props/Config/Options/Schema/Type are never reported.
- unusedDependencies: declared dependencies never referenced by import, from or require.
  Build, lint and test tooling (typescript, eslint, jest, tailwindcss...) is never reported.
- unreachablePatterns: always-false-condition, infinite-loop, commented-code and stale-todo
  (a TODO/FIXME/HACK mentioning a year from 2020 to 2024). These are hints, not proofs.
- Findings are heuristic: verify each one before deleting code.

METRICS RETURNED:
- The report document with the three lists above
- filesScanned and totalIssues`
}
