package model

import (
	"github.com/google/uuid"
	"github.com/specialistvlad/voxelflow/internal/pintype"
	"github.com/zclconf/go-cty/cty"
)

// guidNamespace seeds name-derived declaration guids.
var guidNamespace = uuid.MustParse("7d1c8a57-44a4-4ef5-9a6c-0b1f3c5e2a90")

// DeclKind tells which table of an asset or terminal a declaration lives in.
type DeclKind string

const (
	DeclParameter DeclKind = "parameter"
	DeclInput     DeclKind = "input"
	DeclOutput    DeclKind = "output"
)

// Declaration is a declared parameter, input or output.
type Declaration struct {
	Guid    uuid.UUID
	Name    string
	Kind    DeclKind
	Type    pintype.Type
	Default cty.Value // cty.NilVal when no default is declared
	Tooltip string
}

// HasDefault reports whether a default value was declared.
func (d *Declaration) HasDefault() bool {
	return d.Default != cty.NilVal
}

// DefaultOrZero returns the declared default or the typed empty value.
func (d *Declaration) DefaultOrZero() cty.Value {
	if d.HasDefault() {
		return d.Default
	}
	return d.Type.Zero()
}

// GuidFor derives a stable guid from the names locating a declaration, so
// that reloading an unchanged file yields the same guids.
func GuidFor(parts ...string) uuid.UUID {
	var b []byte
	for i, p := range parts {
		if i > 0 {
			b = append(b, '/')
		}
		b = append(b, p...)
	}
	return uuid.NewSHA1(guidNamespace, b)
}

// FindDecl looks a declaration up by guid.
func FindDecl(decls []*Declaration, guid uuid.UUID) (*Declaration, bool) {
	for _, d := range decls {
		if d.Guid == guid {
			return d, true
		}
	}
	return nil, false
}

// FindDeclByName looks a declaration up by name.
func FindDeclByName(decls []*Declaration, name string) (*Declaration, bool) {
	for _, d := range decls {
		if d.Name == name {
			return d, true
		}
	}
	return nil, false
}
