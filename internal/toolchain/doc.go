// Package toolchain wraps the external programs a generation run depends on: the protobuf
// compiler with its Rust code plugin, and rustfmt.
//
// Both are modelled as small interfaces so runs can be exercised without the binaries
// installed. ProtocCompiler and RustfmtFormatter shell out; CompilerFunc and NoopFormatter
// stand in for them in tests or when formatting is disabled.
package toolchain
