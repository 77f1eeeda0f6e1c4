// Copyright 2024 the Gridslice authors. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

/*
Package gridslice implements a lazily-evaluated, partition-parallel
computation graph. Users describe a data-parallel job as a tree of
deferred operations over partitioned collections, built from a small
algebra of combinators: Partition and Broadcast wrap datasets as
sources, MapPart, Map and Filter transform partitions, Foreach visits
elements for effect, and MapReduce and MapReduceByKey define
distributed aggregation. Construction is eager and side-effect free;
nothing is read or run until the graph is handed to Compute together
with an execution context.

The core stays agnostic to how data is stored, partitioned or
scheduled. Those concerns live behind the Executor interface: an
executor resolves partition schemes against datasets, applies
per-partition functions (possibly in parallel across partitions), and
gathers per-partition results in partition order. Package local
provides an in-process executor suitable for tests and small jobs.

Aggregating combinators take an associative combining operator and a
fold seed. Associativity is the only algebraic requirement:
per-partition folds run left-to-right, and the cross-partition
combine runs left-to-right in partition order after all partitions
have completed, so commutativity is never assumed. The seed is reused
independently per partition and per key; it contributes neutrally to
the result only if the operator treats it as an identity, which is
the caller's responsibility.

Because Go cannot express the combinator signatures generically,
constructors perform dynamic typechecking of user functions against
their inputs' element types and panic with errors attributed to the
offending call site. User functions may optionally declare a leading
context.Context argument, which receives the evaluation context.
*/
package gridslice
