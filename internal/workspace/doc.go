// Package workspace describes one generation unit (schema inputs plus the committed output
// directory) and manages the scratch directory the compiler writes into.
//
// Ephemeral mode creates a unique directory (e.g., protogen-1234567) that is removed after the
// run. Persistent mode uses a caller-supplied directory that is emptied before the run and
// left in place afterwards so the raw output can be inspected.
package workspace
