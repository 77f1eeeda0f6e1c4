// Copyright 2024 the Gridslice authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

package gridslice

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/gridslice/gridslice/gridfunc"
	"github.com/gridslice/gridslice/typecheck"
)

// A Node is a deferred operation over partitioned data. Nodes form a
// closed family: data sources (Partition, Broadcast), per-partition
// transforms (MapPart, Map, Filter), the side-effecting Foreach, and the
// aggregations MapReduce and MapReduceByKey. Nodes are immutable value
// objects; construction is eager and side-effect free, and no provider or
// execution context is touched until Compute is called.
//
// Since Go does not support generic typing over the operator signatures,
// node constructors perform their own dynamic typechecking. Schematically
// we write a node with element type t as Node<t>.
type Node interface {
	// Out returns the node's element type, or nil for unit-valued nodes
	// (Foreach).
	Out() reflect.Type
	// Op is a descriptive name of the operation that this node
	// represents.
	Op() string

	// NumDep returns the number of input nodes of this node.
	NumDep() int
	// Dep returns the i'th input node.
	Dep(i int) Node

	// chunk returns the type of this node's per-partition chunk, or nil
	// if the node's computed value is not a partitioned collection and
	// hence cannot feed another node.
	chunk() reflect.Type

	// compute realizes the node against the execution context. See
	// Compute.
	compute(ctx context.Context, exec Executor) (interface{}, error)
}

type partitionNode struct {
	op     string
	data   interface{}
	scheme Scheme
	elem   reflect.Type
	chunkT reflect.Type
}

// Partition returns a data source node that splits data along its
// outermost dimension. It is shorthand for Partitioned(data, Cut{}).
//
// Schematically:
//
//	Partition([]t) Node<t>
func Partition(data interface{}) Node {
	return partitioned(data, Cut{})
}

// Partitioned returns a data source node wrapping data together with an
// explicit partitioning scheme. The node carries no behavior of its own:
// the scheme is resolved by the execution context's provider when the
// node is computed, and unsupported schemes are reported there.
func Partitioned(data interface{}, scheme Scheme) Node {
	return partitioned(data, scheme)
}

// Broadcast returns a data source node that replicates data, whole, to
// every partition.
//
// Schematically:
//
//	Broadcast(t) Node<t>
func Broadcast(data interface{}) Node {
	return partitioned(data, Bcast{})
}

func partitioned(data interface{}, scheme Scheme) Node {
	t := reflect.TypeOf(data)
	if t == nil {
		typecheck.Panic(2, "partition: nil dataset")
	}
	n := &partitionNode{data: data, scheme: scheme}
	switch scheme.(type) {
	case Bcast:
		n.op = "bcast"
		n.elem = t
		n.chunkT = t
	default:
		if t.Kind() != reflect.Slice {
			typecheck.Panicf(2, "partition: dataset of type %s cannot be cut: not a slice", t)
		}
		if _, ok := scheme.(ByKey); ok {
			if _, _, pair := typecheck.Pair(t.Elem()); !pair {
				typecheck.Panicf(2, "partition: element type %s is not a pair, cannot partition by key", t.Elem())
			}
		}
		n.op = fmt.Sprintf("partition(%s)", scheme)
		n.elem = t.Elem()
		n.chunkT = t
	}
	return n
}

func (p *partitionNode) Out() reflect.Type   { return p.elem }
func (p *partitionNode) Op() string          { return p.op }
func (*partitionNode) NumDep() int           { return 0 }
func (*partitionNode) Dep(i int) Node        { panic("no deps") }
func (p *partitionNode) chunk() reflect.Type { return p.chunkT }

type mappartNode struct {
	fn   gridfunc.Func
	deps []Node
	out  reflect.Type
}

// MapPart transforms whole partitions at a time: fn is invoked once per
// partition with the local chunk of every input, positionally zipped, and
// returns the partition's new local collection. All inputs must realize
// the same number of partitions; a mismatch is an evaluation error.
//
// Schematically:
//
//	MapPart(func(c1 []t1, ..., cn []tn) []r, Node<t1>, ..., Node<tn>) Node<r>
//
// Broadcast inputs present their whole value as the chunk:
//
//	MapPart(func(c1 []t1, c2 t2) []r, Node<t1>, Broadcast(t2)) Node<r>
func MapPart(fn interface{}, inputs ...Node) Node {
	m := new(mappartNode)
	m.deps = inputs
	if len(inputs) == 0 {
		typecheck.Panic(1, "mappart: need at least one input")
	}
	f, ok := typecheck.Func(fn)
	if !ok {
		typecheck.Panicf(1, "mappart: invalid function %T", fn)
	}
	chunks := make([]reflect.Type, len(inputs))
	for i, in := range inputs {
		chunks[i] = in.chunk()
		if chunks[i] == nil {
			typecheck.Panicf(1, "mappart: input %d (%s) is not a partitioned collection", i, in.Op())
		}
	}
	if !typecheck.CanApply(f, chunks...) {
		typecheck.Panicf(1, "mappart: function %T does not accept chunks %s", fn, typesString(chunks))
	}
	if len(f.Out) != 1 || f.Out[0].Kind() != reflect.Slice {
		typecheck.Panicf(1, "mappart: function %T must return a single slice", fn)
	}
	m.fn = f
	m.out = f.Out[0].Elem()
	return m
}

func (m *mappartNode) Out() reflect.Type   { return m.out }
func (*mappartNode) Op() string            { return "mappart" }
func (m *mappartNode) NumDep() int         { return len(m.deps) }
func (m *mappartNode) Dep(i int) Node      { return m.deps[i] }
func (m *mappartNode) chunk() reflect.Type { return reflect.SliceOf(m.out) }

type mapNode struct {
	fn   gridfunc.Func
	deps []Node
	out  reflect.Type
}

// Map transforms elements: fn is applied to each positional group of
// elements across the zipped local chunks of all inputs, producing a new
// collection per partition. The node's computed value remains
// partitioned. Zipped chunks must have equal lengths within every
// partition; a mismatch is an evaluation error.
//
// Schematically:
//
//	Map(func(v1 t1, ..., vn tn) r, Node<t1>, ..., Node<tn>) Node<r>
func Map(fn interface{}, inputs ...Node) Node {
	m := new(mapNode)
	m.deps = inputs
	f := elemFunc("map", fn, inputs)
	if len(f.Out) != 1 {
		typecheck.Panicf(1, "map: function %T must return a single value", fn)
	}
	m.fn = f
	m.out = f.Out[0]
	return m
}

func (m *mapNode) Out() reflect.Type   { return m.out }
func (*mapNode) Op() string            { return "map" }
func (m *mapNode) NumDep() int         { return len(m.deps) }
func (m *mapNode) Dep(i int) Node      { return m.deps[i] }
func (m *mapNode) chunk() reflect.Type { return reflect.SliceOf(m.out) }

type foreachNode struct {
	fn   gridfunc.Func
	deps []Node
}

// Foreach invokes fn once per positional group of elements across the
// zipped local chunks of all inputs, in index order within each
// partition, for side effects only; results of fn, if any, are
// discarded. The node's computed value is unit. Partitions may be
// visited concurrently by the execution context.
//
// Schematically:
//
//	Foreach(func(v1 t1, ..., vn tn), Node<t1>, ..., Node<tn>)
func Foreach(fn interface{}, inputs ...Node) Node {
	f := new(foreachNode)
	f.deps = inputs
	f.fn = elemFunc("foreach", fn, inputs)
	return f
}

func (*foreachNode) Out() reflect.Type   { return nil }
func (*foreachNode) Op() string          { return "foreach" }
func (f *foreachNode) NumDep() int       { return len(f.deps) }
func (f *foreachNode) Dep(i int) Node    { return f.deps[i] }
func (*foreachNode) chunk() reflect.Type { return nil }

type filterNode struct {
	pred gridfunc.Func
	dep  Node
}

// Filter returns a node whose partitions contain only the elements of the
// input for which the predicate is true. Relative element order is
// preserved and the partition count never changes; a partition may become
// empty.
//
// Schematically:
//
//	Filter(func(v t) bool, Node<t>) Node<t>
func Filter(pred interface{}, input Node) Node {
	f := new(filterNode)
	f.dep = input
	p := elemFunc("filter", pred, []Node{input})
	if len(p.Out) != 1 || p.Out[0].Kind() != reflect.Bool {
		typecheck.Panicf(1, "filter: predicate %T must return a single boolean value", pred)
	}
	f.pred = p
	return f
}

func (f *filterNode) Out() reflect.Type   { return f.dep.Out() }
func (*filterNode) Op() string            { return "filter" }
func (*filterNode) NumDep() int           { return 1 }
func (f *filterNode) Dep(i int) Node      { return singleDep(i, f.dep) }
func (f *filterNode) chunk() reflect.Type { return reflect.SliceOf(f.dep.Out()) }

type mapreduceNode struct {
	op   string
	fn   gridfunc.Func // Nil means identity.
	red  gridfunc.Func
	seed reflect.Value
	deps []Node
	out  reflect.Type
}

// MapReduce fuses an element-wise map with a two-stage fold. Within each
// partition, fn is applied to each positional group of zipped elements
// and the results are folded left-to-right with op starting from v0.
// The per-partition partials are then gathered, in partition order, and
// folded again with op starting from v0.
//
// op must be associative; commutativity is not required, as combination
// is ordered. v0 is a true fold seed, reused independently per partition
// and for the final combine: it contributes neutrally only if op treats
// it as an identity, which is the caller's responsibility. An empty
// partition yields the partial v0.
//
// Schematically:
//
//	MapReduce(func(v1 t1, ..., vn tn) r, func(acc a, v r) a, v0 a, Node<t1>, ..., Node<tn>) a
//
// Since the final combine re-applies op to per-partition partials, the
// accumulator type must itself be acceptable as op's value argument.
func MapReduce(fn, op interface{}, v0 interface{}, inputs ...Node) Node {
	m := new(mapreduceNode)
	m.op = "mapreduce"
	m.deps = inputs
	f := elemFunc("mapreduce", fn, inputs)
	if len(f.Out) != 1 {
		typecheck.Panicf(1, "mapreduce: function %T must return a single value", fn)
	}
	m.fn = f
	m.red, m.seed, m.out = reducer("mapreduce", op, v0, f.Out[0])
	return m
}

// Reduce is MapReduce with the identity function: it folds the elements
// of a single input with op, per partition and then across partitions in
// partition order, starting from v0.
//
// Schematically:
//
//	Reduce(func(acc a, v t) a, v0 a, Node<t>) a
func Reduce(op interface{}, v0 interface{}, input Node) Node {
	m := new(mapreduceNode)
	m.op = "reduce"
	m.deps = []Node{input}
	if input.chunk() == nil {
		typecheck.Panicf(1, "reduce: input (%s) is not a partitioned collection", input.Op())
	}
	m.fn = gridfunc.Nil
	m.red, m.seed, m.out = reducer("reduce", op, v0, input.Out())
	return m
}

func (m *mapreduceNode) Out() reflect.Type { return m.out }
func (m *mapreduceNode) Op() string        { return m.op }
func (m *mapreduceNode) NumDep() int       { return len(m.deps) }
func (m *mapreduceNode) Dep(i int) Node    { return m.deps[i] }
func (*mapreduceNode) chunk() reflect.Type { return nil }

type mapreducebykeyNode struct {
	op   string
	fn   gridfunc.Func // Nil means the identity pair extractor.
	red  gridfunc.Func
	seed reflect.Value
	dep  Node
	out  reflect.Type // map[key]acc
}

// MapReduceByKey performs a key-grouped fold. Within each partition, fn
// extracts a key and value from every element and the values are folded
// into a per-key accumulator: dict[k] = op(dict.get(k, v0), v). The
// per-partition mappings are then gathered and merged by re-running the
// same grouped fold over them, key by key, in partition order.
//
// The key type must be comparable. op must be associative; v0 is reused
// independently per key and per partition. As with MapReduce, the merge
// re-applies op to already-accumulated values, so the accumulator type
// must be acceptable as op's value argument.
//
// Schematically:
//
//	MapReduceByKey(func(v t) (k, u), func(acc a, v u) a, v0 a, Node<t>) map[k]a
func MapReduceByKey(fn, op interface{}, v0 interface{}, input Node) Node {
	m := new(mapreducebykeyNode)
	m.op = "mapreducebykey"
	m.dep = input
	f := elemFunc("mapreducebykey", fn, []Node{input})
	if len(f.Out) != 2 {
		typecheck.Panicf(1, "mapreducebykey: function %T must return a (key, value) pair", fn)
	}
	key, val := f.Out[0], f.Out[1]
	if !key.Comparable() {
		typecheck.Panicf(1, "mapreducebykey: key type %s is not comparable", key)
	}
	m.fn = f
	var acc reflect.Type
	m.red, m.seed, acc = reducer("mapreducebykey", op, v0, val)
	m.out = reflect.MapOf(key, acc)
	return m
}

// ReduceByKey is MapReduceByKey with the identity extractor: the input's
// elements must already be pairs (two-field structs, the first field the
// key and the second the value).
//
// Schematically:
//
//	ReduceByKey(func(acc a, v u) a, v0 a, Node<pair[k, u]>) map[k]a
func ReduceByKey(op interface{}, v0 interface{}, input Node) Node {
	m := new(mapreducebykeyNode)
	m.op = "reducebykey"
	m.dep = input
	if input.chunk() == nil {
		typecheck.Panicf(1, "reducebykey: input (%s) is not a partitioned collection", input.Op())
	}
	key, val, ok := typecheck.Pair(input.Out())
	if !ok {
		typecheck.Panicf(1, "reducebykey: element type %s is not a pair", input.Out())
	}
	if !key.Comparable() {
		typecheck.Panicf(1, "reducebykey: key type %s is not comparable", key)
	}
	m.fn = gridfunc.Nil
	var acc reflect.Type
	m.red, m.seed, acc = reducer("reducebykey", op, v0, val)
	m.out = reflect.MapOf(key, acc)
	return m
}

func (m *mapreducebykeyNode) Out() reflect.Type { return m.out }
func (m *mapreducebykeyNode) Op() string        { return m.op }
func (*mapreducebykeyNode) NumDep() int         { return 1 }
func (m *mapreducebykeyNode) Dep(i int) Node    { return singleDep(i, m.dep) }
func (*mapreducebykeyNode) chunk() reflect.Type { return nil }

// elemFunc typechecks a user function applied element-wise across the
// zipped inputs: its arity must match the number of inputs and each
// argument must accept the corresponding input's element type.
func elemFunc(op string, fn interface{}, inputs []Node) gridfunc.Func {
	if len(inputs) == 0 {
		typecheck.Panicf(2, "%s: need at least one input", op)
	}
	f, ok := typecheck.Func(fn)
	if !ok {
		typecheck.Panicf(2, "%s: invalid function %T", op, fn)
	}
	elems := make([]reflect.Type, len(inputs))
	for i, in := range inputs {
		if in.chunk() == nil {
			typecheck.Panicf(2, "%s: input %d (%s) is not a partitioned collection", op, i, in.Op())
		}
		elems[i] = in.Out()
	}
	if !typecheck.CanApply(f, elems...) {
		typecheck.Panicf(2, "%s: function %T does not match input element types %s", op, fn, typesString(elems))
	}
	return f
}

// reducer typechecks an associative combining operator against the value
// type it folds and the provided seed. It returns the wrapped operator,
// the seed converted to the accumulator type, and the accumulator type.
func reducer(op string, fn interface{}, v0 interface{}, val reflect.Type) (gridfunc.Func, reflect.Value, reflect.Type) {
	g, ok := typecheck.Func(fn)
	if !ok {
		typecheck.Panicf(2, "%s: invalid combining operator %T", op, fn)
	}
	if len(g.In) != 2 || len(g.Out) != 1 {
		typecheck.Panicf(2, "%s: combining operator %T must have the form func(acc, v) acc", op, fn)
	}
	acc := g.In[0]
	if !g.Out[0].AssignableTo(acc) {
		typecheck.Panicf(2, "%s: combining operator %T does not return its accumulator type %s", op, fn, acc)
	}
	if !val.AssignableTo(g.In[1]) {
		typecheck.Panicf(2, "%s: combining operator %T does not accept values of type %s", op, fn, val)
	}
	// The global combine folds per-partition accumulators with the same
	// operator, so accumulators must be acceptable as values themselves.
	if !acc.AssignableTo(g.In[1]) {
		typecheck.Panicf(2, "%s: accumulator type %s cannot be re-combined by operator %T", op, acc, fn)
	}
	if v0 == nil {
		typecheck.Panicf(2, "%s: nil seed", op)
	}
	st := reflect.TypeOf(v0)
	if !st.AssignableTo(acc) {
		typecheck.Panicf(2, "%s: seed of type %s is not assignable to accumulator type %s", op, st, acc)
	}
	seed := reflect.New(acc).Elem()
	seed.Set(reflect.ValueOf(v0))
	return g, seed, acc
}

// String returns a string describing the node and its type.
func String(node Node) string {
	if node.Out() == nil {
		return fmt.Sprintf("%s<>", node.Op())
	}
	return fmt.Sprintf("%s<%s>", node.Op(), node.Out())
}

func typesString(types []reflect.Type) string {
	strs := make([]string, len(types))
	for i, t := range types {
		strs[i] = fmt.Sprint(t)
	}
	return "(" + strings.Join(strs, ", ") + ")"
}

func singleDep(i int, node Node) Node {
	if i != 0 {
		panic(fmt.Sprintf("invalid dependency %d", i))
	}
	return node
}
