// Copyright 2024 the Gridslice authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package gridfunc

import (
	"context"
	"reflect"
	"testing"
)

func TestFunc(t *testing.T) {
	ctx := context.Background()
	f, ok := Of(func(x, y int) int { return x + y })
	if !ok {
		t.Fatalf("unexpected bad func")
	}
	if got, want := len(f.In), 2; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	rv := f.Call(ctx, []reflect.Value{reflect.ValueOf(1), reflect.ValueOf(2)})
	if got, want := len(rv), 1; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	if got, want := rv[0].Int(), int64(3); got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestContextFunc(t *testing.T) {
	ctx := context.Background()
	f, ok := Of(func(fctx context.Context, x, y int) bool {
		return x+y == 3 && fctx == ctx
	})
	if !ok {
		t.Fatalf("unexpected bad func")
	}
	// The context argument is not part of the arity contract.
	if got, want := len(f.In), 2; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	rv := f.Call(ctx, []reflect.Value{reflect.ValueOf(1), reflect.ValueOf(2)})
	if got, want := len(rv), 1; got != want {
		t.Fatalf("got %v, want %v", got, want)
	}
	if !rv[0].Bool() {
		t.Error("!ok")
	}
}

func TestOfInvalid(t *testing.T) {
	for _, bad := range []interface{}{
		nil,
		42,
		"func",
		func(xs ...int) int { return 0 }, // variadic
	} {
		if _, ok := Of(bad); ok {
			t.Errorf("expected %T to be rejected", bad)
		}
	}
}

func TestIsNil(t *testing.T) {
	if !Nil.IsNil() {
		t.Error("Nil is not nil")
	}
	f, ok := Of(func() {})
	if !ok {
		t.Fatal("unexpected bad func")
	}
	if f.IsNil() {
		t.Error("valid func reported nil")
	}
}
