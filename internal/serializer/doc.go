// Package serializer turns one terminal of an authored asset into a
// serialized.Graph.
//
// It instantiates every authored node from the registry, sizes variadic
// groups, mirrors the declarations binding nodes refer to, applies explicit
// promotions, and infers wildcard pin types along links until nothing
// changes. Problems with individual nodes become node diagnostics; only a
// missing asset or terminal is returned as an error.
package serializer
