package base

// Chunk represents a unit of bytes accepted and flushed by a sink as a whole.
// Ownership of the backing array is transferred when a submit is accepted; the producer
// must not reuse or modify it afterwards. A chunk has no identity besides its position
// in submission order.
type Chunk []byte
