// Copyright 2024 the Gridslice authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package gridslice

import (
	"context"
	"fmt"
	"reflect"

	"github.com/grailbio/base/errors"
)

// A PartFunc is the per-partition primitive that every operator
// ultimately desugars to: it is invoked once per partition with the
// positionally-zipped local chunks of all inputs and returns the
// partition's result value. PartFuncs are issued to the execution
// context, which may run them concurrently across partitions.
type PartFunc func(ctx context.Context, partition int, chunks []reflect.Value) (reflect.Value, error)

// Executor is the execution context against which node graphs are
// realized. Implementations decide partition width, scheduling and
// placement; the core only expresses what must be computed.
// A reference in-process implementation is provided by package local.
type Executor interface {
	// Partition resolves a data source into a realized partitioned value
	// according to scheme. Unsupported schemes are reported here.
	Partition(ctx context.Context, data interface{}, scheme Scheme) (*Parts, error)

	// Apply invokes fn once per partition over the zipped chunks of the
	// inputs, which all have the same partition count, and returns the
	// per-partition results, in partition order, as a new Parts with
	// element type elem. Partitions are independent and may be evaluated
	// concurrently.
	Apply(ctx context.Context, elem reflect.Type, fn PartFunc, inputs []*Parts) (*Parts, error)

	// Gather collects one value per partition, in partition index order,
	// to the caller. Gather is a synchronization barrier: it observes the
	// completed result of every partition.
	Gather(ctx context.Context, parts *Parts) ([]reflect.Value, error)
}

// Compute realizes a node graph against the provided execution context.
// Evaluation is depth-first: a node's inputs are computed before the node
// itself, and each operator then desugars to the context's per-partition
// Apply primitive plus, for the aggregating operators, a gather-and-
// combine step. Compute is the only place side effects occur; graph
// construction never evaluates anything.
//
// The returned value depends on the node: *Parts for partitioned results
// (sources, MapPart, Map, Filter), a single accumulator value for
// MapReduce/Reduce, a map for MapReduceByKey/ReduceByKey, and nil for
// Foreach. Any error from the provider, from structural (partition or zip
// arity) violations, or from a failing partition aborts the whole
// computation; no partial results are returned.
func Compute(ctx context.Context, exec Executor, node Node) (interface{}, error) {
	return node.compute(ctx, exec)
}

// Collect computes node and returns its value with partitioned results
// gathered and concatenated, in partition order, into a single local
// collection. Non-partitioned results are returned as Compute returns
// them.
func Collect(ctx context.Context, exec Executor, node Node) (interface{}, error) {
	v, err := Compute(ctx, exec, node)
	if err != nil {
		return nil, err
	}
	parts, ok := v.(*Parts)
	if !ok {
		return v, nil
	}
	chunks, err := exec.Gather(ctx, parts)
	if err != nil {
		return nil, err
	}
	total := 0
	for i, chunk := range chunks {
		if chunk.Kind() != reflect.Slice {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("collect: partition %d holds a whole %s value, not a collection", i, chunk.Type()))
		}
		total += chunk.Len()
	}
	out := reflect.MakeSlice(reflect.SliceOf(parts.Elem), 0, total)
	for _, chunk := range chunks {
		out = reflect.AppendSlice(out, chunk)
	}
	return out.Interface(), nil
}

// computeParts computes the inputs of a multi-input node and checks the
// structural invariant that all non-broadcast inputs realize the same
// number of partitions. Broadcast inputs are width-flexible: their
// replicated value is realigned to the partition count of the cut
// inputs, so a broadcast always reaches every partition of the job no
// matter how the executor's width relates to the dataset sizes.
func computeParts(ctx context.Context, exec Executor, op string, deps []Node) ([]*Parts, error) {
	parts := make([]*Parts, len(deps))
	for i, dep := range deps {
		v, err := dep.compute(ctx, exec)
		if err != nil {
			return nil, err
		}
		p, ok := v.(*Parts)
		if !ok {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("%s: input %d (%s) did not compute to a partitioned value", op, i, dep.Op()))
		}
		parts[i] = p
	}
	npart, first := -1, 0
	for i, p := range parts {
		if _, ok := p.Scheme.(Bcast); ok {
			continue
		}
		if npart < 0 {
			npart, first = p.NumPart(), i
			continue
		}
		if got := p.NumPart(); got != npart {
			return nil, errors.E(errors.Invalid, fmt.Sprintf("%s: input %d has %d partitions, input %d has %d", op, i, got, first, npart))
		}
	}
	if npart < 0 {
		// All inputs are broadcast; they share the executor's width.
		npart = parts[0].NumPart()
	}
	for i, p := range parts {
		if _, ok := p.Scheme.(Bcast); !ok || p.NumPart() == npart {
			continue
		}
		chunks := make([]reflect.Value, npart)
		for j := range chunks {
			chunks[j] = p.Chunks[0]
		}
		parts[i] = &Parts{Elem: p.Elem, Scheme: p.Scheme, Chunks: chunks}
	}
	return parts, nil
}

// zipParts guards the element-zipped operators: a broadcast chunk is the
// whole value and has no element structure to zip, whatever its type.
func zipParts(op string, parts []*Parts) error {
	for i, p := range parts {
		if _, ok := p.Scheme.(Bcast); ok {
			return errors.E(errors.Invalid, fmt.Sprintf("%s: input %d is broadcast: a whole value cannot be zipped element-wise", op, i))
		}
	}
	return nil
}

func (p *partitionNode) compute(ctx context.Context, exec Executor) (interface{}, error) {
	parts, err := exec.Partition(ctx, p.data, p.scheme)
	if err != nil {
		return nil, err
	}
	return parts, nil
}

func (m *mappartNode) compute(ctx context.Context, exec Executor) (interface{}, error) {
	parts, err := computeParts(ctx, exec, m.Op(), m.deps)
	if err != nil {
		return nil, err
	}
	fn := func(ctx context.Context, _ int, chunks []reflect.Value) (reflect.Value, error) {
		return m.fn.Call(ctx, chunks)[0], nil
	}
	out, err := exec.Apply(ctx, m.out, fn, parts)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (m *mapNode) compute(ctx context.Context, exec Executor) (interface{}, error) {
	parts, err := computeParts(ctx, exec, m.Op(), m.deps)
	if err != nil {
		return nil, err
	}
	if err := zipParts(m.Op(), parts); err != nil {
		return nil, err
	}
	fn := func(ctx context.Context, _ int, chunks []reflect.Value) (reflect.Value, error) {
		n, err := zipLen(m.Op(), chunks)
		if err != nil {
			return reflect.Value{}, err
		}
		out := reflect.MakeSlice(reflect.SliceOf(m.out), n, n)
		args := make([]reflect.Value, len(chunks))
		for i := 0; i < n; i++ {
			for j := range chunks {
				args[j] = chunks[j].Index(i)
			}
			out.Index(i).Set(m.fn.Call(ctx, args)[0])
		}
		return out, nil
	}
	out, err := exec.Apply(ctx, m.out, fn, parts)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (f *foreachNode) compute(ctx context.Context, exec Executor) (interface{}, error) {
	parts, err := computeParts(ctx, exec, f.Op(), f.deps)
	if err != nil {
		return nil, err
	}
	if err := zipParts(f.Op(), parts); err != nil {
		return nil, err
	}
	fn := func(ctx context.Context, _ int, chunks []reflect.Value) (reflect.Value, error) {
		return reflect.Value{}, seqEach(ctx, f.fn, chunks)
	}
	if _, err := exec.Apply(ctx, nil, fn, parts); err != nil {
		return nil, err
	}
	return nil, nil
}

func (f *filterNode) compute(ctx context.Context, exec Executor) (interface{}, error) {
	parts, err := computeParts(ctx, exec, f.Op(), []Node{f.dep})
	if err != nil {
		return nil, err
	}
	if err := zipParts(f.Op(), parts); err != nil {
		return nil, err
	}
	elem := f.Out()
	fn := func(ctx context.Context, _ int, chunks []reflect.Value) (reflect.Value, error) {
		n, err := zipLen(f.Op(), chunks)
		if err != nil {
			return reflect.Value{}, err
		}
		chunk := chunks[0]
		out := reflect.MakeSlice(reflect.SliceOf(elem), 0, n)
		for i := 0; i < n; i++ {
			if f.pred.Call(ctx, []reflect.Value{chunk.Index(i)})[0].Bool() {
				out = reflect.Append(out, chunk.Index(i))
			}
		}
		return out, nil
	}
	out, err := exec.Apply(ctx, elem, fn, parts)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (m *mapreduceNode) compute(ctx context.Context, exec Executor) (interface{}, error) {
	parts, err := computeParts(ctx, exec, m.Op(), m.deps)
	if err != nil {
		return nil, err
	}
	if err := zipParts(m.Op(), parts); err != nil {
		return nil, err
	}
	fn := func(ctx context.Context, _ int, chunks []reflect.Value) (reflect.Value, error) {
		return seqMapReduce(ctx, m.Op(), m.fn, m.red, m.seed, chunks)
	}
	partials, err := exec.Apply(ctx, m.out, fn, parts)
	if err != nil {
		return nil, err
	}
	gathered, err := exec.Gather(ctx, partials)
	if err != nil {
		return nil, err
	}
	return combinePartials(ctx, m.red, m.seed, gathered).Interface(), nil
}

func (m *mapreducebykeyNode) compute(ctx context.Context, exec Executor) (interface{}, error) {
	parts, err := computeParts(ctx, exec, m.Op(), []Node{m.dep})
	if err != nil {
		return nil, err
	}
	if err := zipParts(m.Op(), parts); err != nil {
		return nil, err
	}
	fn := func(ctx context.Context, _ int, chunks []reflect.Value) (reflect.Value, error) {
		return seqMapReduceByKey(ctx, m.Op(), m.fn, m.red, m.seed, m.out, chunks[0])
	}
	grouped, err := exec.Apply(ctx, m.out, fn, parts)
	if err != nil {
		return nil, err
	}
	gathered, err := exec.Gather(ctx, grouped)
	if err != nil {
		return nil, err
	}
	return mergeByKey(ctx, m.red, m.seed, m.out, gathered).Interface(), nil
}
