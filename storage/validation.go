package storage

import (
	"fmt"

	"github.com/poiesic/worldsignal/core"
)

// ValidateCollectionSpec checks a collection spec before it reaches a backend.
func ValidateCollectionSpec(spec CollectionSpec) error {
	if spec.Name == "" {
		return fmt.Errorf("%w: collection name is required", ErrInvalidQuery)
	}
	if spec.Dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive", ErrInvalidQuery)
	}
	if spec.Metric != "" && spec.Metric != MetricCosine {
		return fmt.Errorf("%w: %q", ErrUnsupportedMetric, spec.Metric)
	}
	return nil
}

// ValidateUpsert checks batch lengths and vector dimensions before any write.
func ValidateUpsert(collection string, dimension int, vectors [][]float32, payloads []core.ChunkPayload, ids []string) error {
	if err := core.CheckLengths(len(vectors), len(payloads), ids); err != nil {
		return err
	}
	for _, v := range vectors {
		if len(v) != dimension {
			return &core.DimensionMismatchError{Collection: collection, Existing: dimension, Requested: len(v)}
		}
	}
	for _, id := range ids {
		if !core.IsPointID(id) {
			return fmt.Errorf("%w: point id %q is not a UUID", ErrInvalidQuery, id)
		}
	}
	return nil
}

// ValidateSearch checks a search query against the collection dimension.
func ValidateSearch(collection string, dimension int, query SearchQuery) error {
	if query.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive", ErrInvalidQuery)
	}
	if len(query.Vector) != dimension {
		return &core.DimensionMismatchError{Collection: collection, Existing: dimension, Requested: len(query.Vector)}
	}
	return nil
}

// PointIDs returns ids unchanged, or n fresh identifiers when ids is nil.
func PointIDs(ids []string, n int) []string {
	if ids != nil {
		return ids
	}
	generated := make([]string, n)
	for i := range generated {
		generated[i] = core.NewPointID()
	}
	return generated
}
