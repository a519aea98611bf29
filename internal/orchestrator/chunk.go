package orchestrator

// Chunk splits items into consecutive groups of at most size, preserving order
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = 1
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}
