// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package badger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/worldsignal/ai"
	"github.com/poiesic/worldsignal/core"
	"github.com/poiesic/worldsignal/storage"
)

const maxConflictRetries = 3

// VectorIndex implements storage.VectorIndex on BadgerDB with exhaustive
// cosine search. It suits development and test corpora; large corpora belong
// in Qdrant.
type VectorIndex struct {
	backend *Backend
	owned   bool
}

var _ storage.VectorIndex = (*VectorIndex)(nil)

// NewVectorIndex creates a VectorIndex on an open backend. The caller keeps
// ownership of the backend.
func NewVectorIndex(backend *Backend) (*VectorIndex, error) {
	if backend == nil {
		return nil, errors.New("badger: backend is required")
	}
	return &VectorIndex{backend: backend}, nil
}

// OpenVectorIndex opens a backend at path and returns an index that closes
// it on Close.
func OpenVectorIndex(path string, inMemory bool) (*VectorIndex, error) {
	backend, err := OpenBackend(path, inMemory)
	if err != nil {
		return nil, err
	}
	return &VectorIndex{backend: backend, owned: true}, nil
}

// Close closes the backend if the index opened it.
func (x *VectorIndex) Close() error {
	if x.owned && !x.backend.IsClosed() {
		return x.backend.Close()
	}
	return nil
}

// EnsureCollection creates the collection if needed.
func (x *VectorIndex) EnsureCollection(ctx context.Context, spec storage.CollectionSpec) (bool, error) {
	if err := validateSpec(spec); err != nil {
		return false, err
	}

	var (
		created  bool
		recreate bool
		err      error
	)
	// A concurrent creator makes the commit conflict; the retry then sees
	// the committed record.
	for attempt := 0; attempt < maxConflictRetries; attempt++ {
		created, recreate, err = x.ensureOnce(spec)
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	if err != nil {
		return false, err
	}

	if recreate {
		if err := x.backend.DeletePrefix(makePointPrefix(spec.Name)); err != nil {
			return false, fmt.Errorf("badger: dropping points of %q: %w", spec.Name, err)
		}
	}
	return created, nil
}

func (x *VectorIndex) ensureOnce(spec storage.CollectionSpec) (created, recreate bool, err error) {
	err = x.backend.WithTx(func(tx *badger.Txn) error {
		existing, err := readCollection(tx, spec.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			if existing.Dimension == spec.Dimension {
				return nil
			}
			mismatch := &core.DimensionMismatchError{
				Collection: spec.Name,
				Existing:   existing.Dimension,
				Requested:  spec.Dimension,
			}
			if !spec.Force {
				return mismatch
			}
			x.backend.logger.Warn("recreating collection, existing vectors are discarded",
				"collection", spec.Name,
				"existing_dimension", existing.Dimension,
				"requested_dimension", spec.Dimension)
			recreate = true
		}
		if err := writeCollection(tx, spec); err != nil {
			return err
		}
		created = true
		return tx.Commit()
	}, true)
	if err != nil {
		return false, false, err
	}
	return created, recreate, nil
}

// Upsert writes points in a single transaction after validating the batch.
func (x *VectorIndex) Upsert(ctx context.Context, collection string, vectors [][]float32, payloads []core.ChunkPayload, ids []string) ([]string, error) {
	if err := core.CheckLengths(len(vectors), len(payloads), ids); err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return []string{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pointIDs := storage.PointIDs(ids, len(vectors))
	err := x.backend.WithTx(func(tx *badger.Txn) error {
		col, err := requireCollection(tx, collection)
		if err != nil {
			return err
		}
		if err := storage.ValidateUpsert(collection, col.Dimension, vectors, payloads, ids); err != nil {
			return err
		}
		for i := range vectors {
			value, err := storage.MarshalPoint(&storage.PointRecord{
				ID:      pointIDs[i],
				Vector:  vectors[i],
				Payload: payloads[i],
			})
			if err != nil {
				return err
			}
			if err := tx.Set(makePointKey(collection, pointIDs[i]), value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return nil, err
	}
	return pointIDs, nil
}

// Search scores every point in the collection against the query vector.
func (x *VectorIndex) Search(ctx context.Context, collection string, query storage.SearchQuery) ([]core.SearchHit, error) {
	var hits []core.SearchHit

	err := x.backend.WithTx(func(tx *badger.Txn) error {
		col, err := requireCollection(tx, collection)
		if err != nil {
			return err
		}
		if err := storage.ValidateSearch(collection, col.Dimension, query); err != nil {
			return err
		}

		opts := badger.DefaultIteratorOptions
		opts.Prefix = makePointPrefix(collection)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var point *storage.PointRecord
			err := iter.Item().Value(func(val []byte) error {
				var err error
				point, err = storage.UnmarshalPoint(val)
				return err
			})
			if err != nil {
				return err
			}
			if query.Category != "" && point.Payload.Category != query.Category {
				continue
			}
			// Stale points of another dimension cannot be compared.
			if len(point.Vector) != len(query.Vector) {
				continue
			}

			score := ai.CosineSimilarity(query.Vector, point.Vector)
			if query.ScoreThreshold != nil && score < *query.ScoreThreshold {
				continue
			}
			hits = append(hits, core.SearchHit{
				ID:      point.ID,
				Score:   score,
				Payload: point.Payload,
			})
		}
		return nil
	}, false)
	if err != nil {
		return nil, err
	}

	// Sort by similarity descending, ties by id so results are stable
	slices.SortFunc(hits, func(a, b core.SearchHit) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})

	if len(hits) > query.Limit {
		hits = hits[:query.Limit]
	}
	return hits, nil
}

// DeleteCollection removes the collection record and all of its points.
func (x *VectorIndex) DeleteCollection(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name is required", storage.ErrInvalidQuery)
	}
	err := x.backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Delete(makeCollectionKey(name)); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
	if err != nil {
		return err
	}
	return x.backend.DeletePrefix(makePointPrefix(name))
}

func validateSpec(spec storage.CollectionSpec) error {
	if err := storage.ValidateCollectionSpec(spec); err != nil {
		return err
	}
	if strings.Contains(spec.Name, ":") {
		return fmt.Errorf("%w: collection name %q contains ':'", storage.ErrInvalidQuery, spec.Name)
	}
	return nil
}

// readCollection returns nil when the collection does not exist.
func readCollection(tx *badger.Txn, name string) (*storage.CollectionRecord, error) {
	item, err := tx.Get(makeCollectionKey(name))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var col *storage.CollectionRecord
	err = item.Value(func(val []byte) error {
		var err error
		col, err = storage.UnmarshalCollection(val)
		return err
	})
	return col, err
}

func requireCollection(tx *badger.Txn, name string) (*storage.CollectionRecord, error) {
	col, err := readCollection(tx, name)
	if err != nil {
		return nil, err
	}
	if col == nil {
		return nil, fmt.Errorf("%w: %q", storage.ErrCollectionNotFound, name)
	}
	return col, nil
}

func writeCollection(tx *badger.Txn, spec storage.CollectionSpec) error {
	value, err := storage.MarshalCollection(&storage.CollectionRecord{
		Name:      spec.Name,
		Dimension: spec.Dimension,
		Metric:    storage.MetricCosine,
	})
	if err != nil {
		return err
	}
	return tx.Set(makeCollectionKey(spec.Name), value)
}
