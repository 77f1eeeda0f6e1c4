// Copyright 2024 the Gridslice authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package gridfunc provides opaque callable values for user-defined
// functions within gridslice. A Func carries a fixed arity contract: its
// argument and result types are recorded at wrapping time, and all use of
// reflection is confined to this package. Node constructors typecheck
// against the recorded types; evaluation only ever calls Call.
package gridfunc

import (
	"context"
	"reflect"
)

// Nil is a nil Func. Operators that admit an identity function (Reduce,
// ReduceByKey) store Nil in place of a user function.
var Nil Func

var typeOfContext = reflect.TypeOf((*context.Context)(nil)).Elem()

// Func represents a user-defined function. Funcs are comparable to Nil and
// are otherwise opaque: callers may inspect the In and Out types and invoke
// the function with Call, and nothing else.
//
// A function may declare a leading context.Context argument, in which case
// the evaluation context is supplied on each call; the context argument is
// not part of In.
type Func struct {
	// In and Out are the function's argument and result types, in order.
	In, Out []reflect.Type

	fn          reflect.Value
	contextFunc bool
}

// Of creates a Func from the provided function, along with a bool
// indicating whether fn is a valid function. If it is not, the returned
// Func is invalid. Variadic functions are rejected: every gridslice
// operator has a fixed arity determined by its inputs.
func Of(fn interface{}) (Func, bool) {
	t := reflect.TypeOf(fn)
	if t == nil || t.Kind() != reflect.Func || t.IsVariadic() {
		return Func{}, false
	}
	in := make([]reflect.Type, t.NumIn())
	for i := range in {
		in[i] = t.In(i)
	}
	hasContext := len(in) > 0 && in[0] == typeOfContext
	if hasContext {
		in = in[1:]
	}
	out := make([]reflect.Type, t.NumOut())
	for i := range out {
		out[i] = t.Out(i)
	}
	return Func{
		In:          in,
		Out:         out,
		fn:          reflect.ValueOf(fn),
		contextFunc: hasContext,
	}, true
}

// Call invokes the function with the provided arguments and returns the
// reflected return values. The context is passed through to functions that
// declare a context argument and is otherwise unused.
func (f Func) Call(ctx context.Context, args []reflect.Value) []reflect.Value {
	if f.contextFunc {
		return f.fn.Call(append([]reflect.Value{reflect.ValueOf(ctx)}, args...))
	}
	return f.fn.Call(args)
}

// IsNil returns whether the Func f is nil.
func (f Func) IsNil() bool {
	return f.fn == reflect.Value{}
}
