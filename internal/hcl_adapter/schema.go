// This file contains the gohcl decoding structs for authoring files.

package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Assets []*assetBlock `hcl:"asset,block"`
	Remain hcl.Body      `hcl:",remain"`
}

type assetBlock struct {
	Name       string           `hcl:"name,label"`
	Base       *string          `hcl:"base,optional"`
	Main       *string          `hcl:"main,optional"`
	Parameters []*declBlock     `hcl:"parameter,block"`
	Inputs     []*declBlock     `hcl:"input,block"`
	Terminals  []*terminalBlock `hcl:"terminal,block"`
	Functions  []*terminalBlock `hcl:"function,block"`
}

type declBlock struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
	Description *string        `hcl:"description,optional"`
	Guid        *string        `hcl:"guid,optional"`
}

type terminalBlock struct {
	Name    string       `hcl:"name,label"`
	Guid    *string      `hcl:"guid,optional"`
	Inputs  []*declBlock `hcl:"input,block"`
	Outputs []*declBlock `hcl:"output,block"`
	Nodes   []*nodeBlock `hcl:"node,block"`
}

// nodeBlock is `node "<Type>" "<name>" { ... }`. Every attribute that is not
// one of the reserved ones below assigns an input pin.
type nodeBlock struct {
	Type       string         `hcl:"type,label"`
	Name       string         `hcl:"name,label"`
	Promote    hcl.Expression `hcl:"promote,optional"`
	Variadic   hcl.Expression `hcl:"variadic,optional"`
	Properties hcl.Expression `hcl:"properties,optional"`
	Pins       []*pinBlock    `hcl:"pin,block"`
	Remain     hcl.Body       `hcl:",remain"`
}

// pinBlock assigns the members of a composite input pin one by one.
type pinBlock struct {
	Name   string   `hcl:"name,label"`
	Remain hcl.Body `hcl:",remain"`
}
