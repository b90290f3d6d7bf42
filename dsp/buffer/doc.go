// Package buffer provides the fixed-capacity sample queue that connects
// execution contexts without locks.
//
// [Ring] is a single-producer/single-consumer ring of float64 values. One
// goroutine may call TryPush while another calls TryPop; neither side ever
// blocks or allocates after construction. Using more than one producer or
// more than one consumer is a caller error.
package buffer
