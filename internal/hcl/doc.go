// Package hcl provides the concrete HCL implementation of config.Loader. It
// decodes an optional mitext.hcl file into the format-agnostic settings.
package hcl
