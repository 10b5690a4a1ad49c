// Package config loads protogen.yaml, the optional project file holding default generation
// options and explicit workspaces.
package config
