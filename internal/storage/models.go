package storage

// Record is one indexed chunk: its text, embedding vector, and the metadata
// needed to trace it back to a source file. Records are keyed implicitly by
// Path so a whole file can be removed in one call.
type Record struct {
	Path       string    // absolute source file path
	File       string    // base filename (scored separately from text)
	Chunk      string    // normalized chunk text
	ChunkIndex int       // zero-based position within the document
	Vector     []float32 // embedding
}

// Hit is one nearest-neighbor result with its distance from the query
// vector. Lower distance means closer.
type Hit struct {
	Path       string
	File       string
	Chunk      string
	ChunkIndex int
	Distance   float64
}

// DefaultCollection is the vector-store collection holding all file chunks.
const DefaultCollection = "file_chunks"
