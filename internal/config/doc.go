// Package config defines the format-agnostic run settings and the Loader
// interface that fills them from a configuration file. The concrete HCL
// loader lives in the hcl package; command-line flags are applied on top
// of whatever a loader returns.
package config
