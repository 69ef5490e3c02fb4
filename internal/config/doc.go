// Package config defines the contract between authoring-file formats and the
// rest of the engine. A Loader reads graph assets from a filesystem and
// translates them into the format-agnostic model.Library.
//
// Concrete implementations live in separate packages: hcl_adapter for HCL
// and yaml_adapter for YAML. The engine never depends on either directly.
package config
