// Package pintype is the closed set of value types a pin can carry.
//
// A Type is a small comparable value: a Kind (scalar, buffer, buffer array,
// object or wildcard), the Inner element type for the numeric/vector kinds,
// and a Class name for objects. Wildcards are the only types that may be
// replaced after a pin has been created; the node package performs that
// replacement through PromotePin.
//
// Values flowing through pins are cty values. Each Type maps onto a cty type
// (CtyType), knows its typed empty value (Zero) and converts arbitrary cty
// input into its own shape (Convert).
package pintype
