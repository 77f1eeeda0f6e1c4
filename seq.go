// Copyright 2024 the Gridslice authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package gridslice

import (
	"context"
	"fmt"
	"reflect"

	"github.com/grailbio/base/errors"
	"github.com/gridslice/gridslice/gridfunc"
)

// The sequential algorithms in this file are the single-partition
// building blocks that the compute protocol bottoms out in. They operate
// on the local chunks of one partition and are free of shared state, so
// the execution context may run them concurrently across partitions.

// zipLen checks that every chunk is a local collection and that all
// chunks have the same length, returning that length. Mismatched lengths
// are structural errors, never silently truncated.
func zipLen(op string, chunks []reflect.Value) (int, error) {
	for i, chunk := range chunks {
		if chunk.Kind() != reflect.Slice {
			return 0, errors.E(errors.Invalid, fmt.Sprintf("%s: chunk %d is a whole %s value, not a local collection", op, i, chunk.Type()))
		}
	}
	n := chunks[0].Len()
	for i := 1; i < len(chunks); i++ {
		if m := chunks[i].Len(); m != n {
			return 0, errors.E(errors.Invalid, fmt.Sprintf("%s: zipped chunks have differing lengths %d and %d", op, n, m))
		}
	}
	return n, nil
}

// seqEach invokes fn once per positional group of elements across the
// zipped chunks, in index order, for effect only.
func seqEach(ctx context.Context, fn gridfunc.Func, chunks []reflect.Value) error {
	n, err := zipLen("foreach", chunks)
	if err != nil {
		return err
	}
	args := make([]reflect.Value, len(chunks))
	for i := 0; i < n; i++ {
		for j := range chunks {
			args[j] = chunks[j].Index(i)
		}
		fn.Call(ctx, args)
	}
	return nil
}

// seqMapReduce maps fn over the zipped chunks and left-folds the results
// with red starting from seed. A nil fn is the identity, valid only for a
// single chunk. An empty partition yields seed.
func seqMapReduce(ctx context.Context, op string, fn, red gridfunc.Func, seed reflect.Value, chunks []reflect.Value) (reflect.Value, error) {
	n, err := zipLen(op, chunks)
	if err != nil {
		return reflect.Value{}, err
	}
	acc := seed
	args := make([]reflect.Value, len(chunks))
	for i := 0; i < n; i++ {
		for j := range chunks {
			args[j] = chunks[j].Index(i)
		}
		r := args[0]
		if !fn.IsNil() {
			r = fn.Call(ctx, args)[0]
		}
		acc = red.Call(ctx, []reflect.Value{acc, r})[0]
	}
	return acc, nil
}

// seqMapReduceByKey builds this partition's key to accumulator mapping:
// for each element, fn extracts (k, v) and the mapping is updated as
// m[k] = red(m.get(k, seed), v). A nil fn is the identity extractor over
// pair elements. The mapping has type mapType.
func seqMapReduceByKey(ctx context.Context, op string, fn, red gridfunc.Func, seed reflect.Value, mapType reflect.Type, chunk reflect.Value) (reflect.Value, error) {
	if chunk.Kind() != reflect.Slice {
		return reflect.Value{}, errors.E(errors.Invalid, fmt.Sprintf("%s: chunk is a whole %s value, not a local collection", op, chunk.Type()))
	}
	m := reflect.MakeMap(mapType)
	for i := 0; i < chunk.Len(); i++ {
		el := chunk.Index(i)
		var k, v reflect.Value
		if fn.IsNil() {
			k, v = el.Field(0), el.Field(1)
		} else {
			r := fn.Call(ctx, []reflect.Value{el})
			k, v = r[0], r[1]
		}
		cur := m.MapIndex(k)
		if !cur.IsValid() {
			cur = seed
		}
		m.SetMapIndex(k, red.Call(ctx, []reflect.Value{cur, v})[0])
	}
	return m, nil
}
