// Package pipeline runs one generation per workspace: compile into a scratch directory,
// reshape the output into a module tree, optionally format it, diff it against the committed
// tree and either commit or report the difference.
//
// Runs are synchronous. RunAll processes workspaces in the order given and stops at the
// first failure.
package pipeline
