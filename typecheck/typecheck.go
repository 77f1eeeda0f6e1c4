// Copyright 2024 the Gridslice authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package typecheck implements the dynamic typechecking performed by
// gridslice node constructors. Since Go cannot express the operator
// signatures generically, constructors verify user functions against their
// inputs' element types at graph construction time and panic with errors
// that carry the caller's location.
package typecheck

import (
	"reflect"

	"github.com/gridslice/gridslice/gridfunc"
)

// Func wraps fn as a gridfunc.Func. The returned bool indicates whether fn
// is a valid, non-variadic function.
func Func(fn interface{}) (gridfunc.Func, bool) {
	return gridfunc.Of(fn)
}

// CanApply returns whether fn accepts arguments of the provided types, in
// order.
func CanApply(fn gridfunc.Func, args ...reflect.Type) bool {
	if len(args) != len(fn.In) {
		return false
	}
	for i := range args {
		if !args[i].AssignableTo(fn.In[i]) {
			return false
		}
	}
	return true
}

// Pair deconstructs an element type used for keyed reduction with the
// identity extractor: a struct with exactly two fields, the first the key
// and the second the value. The returned bool indicates whether typ has
// that form.
func Pair(typ reflect.Type) (key, value reflect.Type, ok bool) {
	if typ.Kind() != reflect.Struct || typ.NumField() != 2 {
		return nil, nil, false
	}
	return typ.Field(0).Type, typ.Field(1).Type, true
}
