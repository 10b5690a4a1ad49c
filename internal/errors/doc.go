// Package errors provides classified error primitives used across protogen.
//
// A ClassifiedError carries a category, a severity, a message, an optional cause and a
// context map (typically the offending path). Categories drive exit codes in the CLI:
//
//	err := errors.WrapError(ioErr, errors.CategoryFileSystem, "failed to write module file").
//		Fatal().
//		WithPath(path).
//		Build()
//
// Validate mode reports differences through CategoryDiff, which is an outcome rather
// than a defect and maps to its own exit code.
package errors
