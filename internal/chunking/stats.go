package chunking

import (
	"github.com/mwhitfield/sdkdocs-mcp/pkg/types"
)

// Statistics aggregates descriptive metrics over a chunk set. Pure
// aggregation, no side effects.
type Statistics struct {
	TotalChunks           int
	AverageSize           float64
	SizeDistribution      map[string]int
	TypeDistribution      map[string]int
	NamespaceDistribution map[string]int
}

// ComputeStatistics summarizes a chunk set.
func ComputeStatistics(chunks []types.DocumentChunk) Statistics {
	stats := Statistics{
		TotalChunks:           len(chunks),
		SizeDistribution:      make(map[string]int),
		TypeDistribution:      make(map[string]int),
		NamespaceDistribution: make(map[string]int),
	}

	totalSize := 0
	for i := range chunks {
		c := &chunks[i]
		totalSize += len(c.Content)
		stats.SizeDistribution[sizeBucket(len(c.Content))]++
		stats.TypeDistribution[string(c.Metadata.Type)]++
		stats.NamespaceDistribution[c.Metadata.Namespace]++
	}

	if len(chunks) > 0 {
		stats.AverageSize = float64(totalSize) / float64(len(chunks))
	}

	return stats
}

func sizeBucket(size int) string {
	switch {
	case size <= 500:
		return "0-500"
	case size <= 1000:
		return "501-1000"
	case size <= 1500:
		return "1001-1500"
	default:
		return ">1500"
	}
}
