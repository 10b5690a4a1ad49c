package toolchain

import "errors"

var (
	ErrCompilerNotFound  = errors.New("protobuf compiler binary not found")
	ErrCompilerFailed    = errors.New("protobuf compiler execution failed")
	ErrFormatterNotFound = errors.New("formatter binary not found")
	ErrFormatterFailed   = errors.New("formatter execution failed")
)
