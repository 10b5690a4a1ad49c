// Package sanitize neutralizes documentation comment text that rustdoc would otherwise
// compile and run as doctests.
//
// Generated protobuf code copies schema comments verbatim into `///` comments. Schema
// authors indent freely, and rustdoc treats any doc line indented by four spaces as a code
// example. Content wraps such runs in ```ignore fences and tags existing fences as ignore.
// Residual re-parses doc comments with goldmark to report anything still runnable.
package sanitize
