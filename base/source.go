package base

// ChunkSource produces the chunks a pump submits to a sink, e.g. a file reader or a
// synthetic generator
// NextChunk returns io.EOF after the last chunk; every returned chunk must be freshly
// allocated because the sink takes ownership of accepted chunks
// NextChunk and Close are only called from the pump goroutine
type ChunkSource interface {
	NextChunk() (Chunk, error)
	Close() error
}
