// Copyright 2024 the Gridslice authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package gridslice

import (
	"context"
	"reflect"

	"github.com/gridslice/gridslice/gridfunc"
)

// The combine step runs after the gather barrier, sequentially and in
// partition order, on the calling goroutine. Left-to-right combination is
// the default because the operators are only required to be associative,
// not commutative; a parallel tree reduction would need the latter.

// combinePartials left-folds the gathered per-partition partial
// accumulators with red, starting from seed.
func combinePartials(ctx context.Context, red gridfunc.Func, seed reflect.Value, partials []reflect.Value) reflect.Value {
	acc := seed
	for _, p := range partials {
		acc = red.Call(ctx, []reflect.Value{acc, p})[0]
	}
	return acc
}

// mergeByKey folds the gathered per-partition mappings into a single
// mapping of type mapType, re-running the grouped fold over mappings
// instead of raw elements: for every key present in an incoming mapping,
// red is applied against the accumulator's current value for that key,
// defaulting to seed when absent.
func mergeByKey(ctx context.Context, red gridfunc.Func, seed reflect.Value, mapType reflect.Type, gathered []reflect.Value) reflect.Value {
	out := reflect.MakeMap(mapType)
	for _, m := range gathered {
		iter := m.MapRange()
		for iter.Next() {
			cur := out.MapIndex(iter.Key())
			if !cur.IsValid() {
				cur = seed
			}
			out.SetMapIndex(iter.Key(), red.Call(ctx, []reflect.Value{cur, iter.Value()})[0])
		}
	}
	return out
}
