package storage

import (
	"encoding/json"
	"fmt"

	"github.com/poiesic/worldsignal/core"
)

// PointRecord is the persisted form of one chunk vector.
type PointRecord struct {
	ID      string            `json:"id"`
	Vector  []float32         `json:"vector"`
	Payload core.ChunkPayload `json:"payload"`
}

// CollectionRecord is the persisted form of a collection's configuration.
type CollectionRecord struct {
	Name      string `json:"name"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
}

// MarshalPoint serializes a point record.
func MarshalPoint(p *PointRecord) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalPoint deserializes a point record.
func UnmarshalPoint(data []byte) (*PointRecord, error) {
	var p PointRecord
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &p, nil
}

// MarshalCollection serializes a collection record.
func MarshalCollection(c *CollectionRecord) ([]byte, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return data, nil
}

// UnmarshalCollection deserializes a collection record.
func UnmarshalCollection(data []byte) (*CollectionRecord, error) {
	var c CollectionRecord
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return &c, nil
}
