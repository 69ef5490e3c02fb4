// Package yaml_adapter loads graph assets from YAML documents. It is the
// second implementation of config.Loader next to hcl_adapter and produces
// the same model. Links are written as `{link: node.<name>.<pin>[.<member>]}`
// and split pins as `{members: {X: ..., Y: ...}}`; any other value is a
// literal.
package yaml_adapter

// fileRoot is the top level of a YAML graph document.
type fileRoot struct {
	Assets []assetDoc `yaml:"assets"`
}

type assetDoc struct {
	Name       string        `yaml:"name"`
	Base       string        `yaml:"base,omitempty"`
	Main       string        `yaml:"main,omitempty"`
	Parameters []declDoc     `yaml:"parameters,omitempty"`
	Inputs     []declDoc     `yaml:"inputs,omitempty"`
	Terminals  []terminalDoc `yaml:"terminals"`
}

type declDoc struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type,omitempty"`
	Default     any    `yaml:"default,omitempty"`
	Description string `yaml:"description,omitempty"`
	Guid        string `yaml:"guid,omitempty"`
}

type terminalDoc struct {
	Name     string    `yaml:"name"`
	Guid     string    `yaml:"guid,omitempty"`
	Function bool      `yaml:"function,omitempty"`
	Inputs   []declDoc `yaml:"inputs,omitempty"`
	Outputs  []declDoc `yaml:"outputs,omitempty"`
	Nodes    []nodeDoc `yaml:"nodes,omitempty"`
}

type nodeDoc struct {
	Name       string            `yaml:"name"`
	Type       string            `yaml:"type"`
	Promote    map[string]string `yaml:"promote,omitempty"`
	Variadic   map[string]int    `yaml:"variadic,omitempty"`
	Properties map[string]any    `yaml:"properties,omitempty"`
	Pins       map[string]any    `yaml:"pins,omitempty"`
}
