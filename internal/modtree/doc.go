// Package modtree turns the flat set of files a protobuf code generator emits (one file per
// package, named by the dotted package path) into a directory tree of Rust modules.
//
// Every level of the tree gets an index file declaring its child modules. A package that has
// both its own generated code and sub-packages gets a single merged file: the child
// declarations followed by the generated code.
package modtree
