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

package qdrant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"

	pb "github.com/qdrant/go-client/qdrant"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/poiesic/worldsignal/core"
	"github.com/poiesic/worldsignal/storage"
)

// DefaultPort is Qdrant's gRPC port.
const DefaultPort = 6334

// Index implements storage.VectorIndex against a Qdrant server.
type Index struct {
	conn        *grpc.ClientConn
	collections pb.CollectionsClient
	points      pb.PointsClient
	logger      *slog.Logger

	// dims caches collection dimensions seen by this client.
	dims sync.Map
}

var _ storage.VectorIndex = (*Index)(nil)

// Option is a functional option for configuring an Index.
type Option func(*Index)

// WithLogger sets a custom logger for the index.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Index) {
		if logger != nil {
			x.logger = logger
		}
	}
}

// Open creates a client for the Qdrant server at host:port. The connection
// is established lazily on first use.
func Open(host string, port int, opts ...Option) (*Index, error) {
	if host == "" {
		return nil, errors.New("qdrant: host is required")
	}
	if port <= 0 {
		port = DefaultPort
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("qdrant: connecting to %s: %w", addr, err)
	}
	return New(conn, opts...), nil
}

// New wraps an existing connection. The index closes conn on Close.
func New(conn *grpc.ClientConn, opts ...Option) *Index {
	x := &Index{
		conn:        conn,
		collections: pb.NewCollectionsClient(conn),
		points:      pb.NewPointsClient(conn),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(x)
	}
	x.logger = x.logger.With("component", "qdrant")
	return x
}

// Close closes the gRPC connection.
func (x *Index) Close() error {
	return x.conn.Close()
}

// EnsureCollection creates the collection with cosine distance and a keyword
// index on category when it does not exist.
func (x *Index) EnsureCollection(ctx context.Context, spec storage.CollectionSpec) (bool, error) {
	if err := storage.ValidateCollectionSpec(spec); err != nil {
		return false, err
	}

	existing, err := x.dimension(ctx, spec.Name)
	if err != nil {
		return false, err
	}
	switch {
	case existing == spec.Dimension:
		x.dims.Store(spec.Name, existing)
		return false, nil
	case existing > 0:
		mismatch := &core.DimensionMismatchError{
			Collection: spec.Name,
			Existing:   existing,
			Requested:  spec.Dimension,
		}
		if !spec.Force {
			return false, mismatch
		}
		x.logger.Warn("recreating collection, existing vectors are discarded",
			"collection", spec.Name,
			"existing_dimension", existing,
			"requested_dimension", spec.Dimension)
		if err := x.DeleteCollection(ctx, spec.Name); err != nil {
			return false, err
		}
	}

	_, err = x.collections.Create(ctx, &pb.CreateCollection{
		CollectionName: spec.Name,
		VectorsConfig: &pb.VectorsConfig{
			Config: &pb.VectorsConfig_Params{
				Params: &pb.VectorParams{
					Size:     uint64(spec.Dimension),
					Distance: pb.Distance_Cosine,
				},
			},
		},
	})
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			// Lost a creation race; the winner's dimension decides.
			return x.EnsureCollection(ctx, storage.CollectionSpec{Name: spec.Name, Dimension: spec.Dimension, Metric: spec.Metric})
		}
		return false, fmt.Errorf("qdrant: creating collection %q: %w", spec.Name, err)
	}

	wait := true
	fieldType := pb.FieldType_FieldTypeKeyword
	_, err = x.points.CreateFieldIndex(ctx, &pb.CreateFieldIndexCollection{
		CollectionName: spec.Name,
		Wait:           &wait,
		FieldName:      core.PayloadCategory,
		FieldType:      &fieldType,
	})
	if err != nil {
		// Filtering still works without the index, only slower.
		x.logger.Warn("creating category index failed", "collection", spec.Name, "err", err)
	}

	x.dims.Store(spec.Name, spec.Dimension)
	x.logger.Info("created collection", "collection", spec.Name, "dimension", spec.Dimension)
	return true, nil
}

// dimension returns the vector size of an existing collection, or 0 when it
// does not exist.
func (x *Index) dimension(ctx context.Context, name string) (int, error) {
	list, err := x.collections.List(ctx, &pb.ListCollectionsRequest{})
	if err != nil {
		return 0, fmt.Errorf("qdrant: listing collections: %w", err)
	}
	found := false
	for _, col := range list.GetCollections() {
		if col.GetName() == name {
			found = true
			break
		}
	}
	if !found {
		return 0, nil
	}

	info, err := x.collections.Get(ctx, &pb.GetCollectionInfoRequest{CollectionName: name})
	if err != nil {
		return 0, fmt.Errorf("qdrant: reading collection %q: %w", name, err)
	}
	size := info.GetResult().GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
	return int(size), nil
}

// Upsert validates the batch and writes all points in one request.
func (x *Index) Upsert(ctx context.Context, collection string, vectors [][]float32, payloads []core.ChunkPayload, ids []string) ([]string, error) {
	if err := core.CheckLengths(len(vectors), len(payloads), ids); err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return []string{}, nil
	}

	dim, err := x.requireDimension(ctx, collection)
	if err != nil {
		return nil, err
	}
	if err := storage.ValidateUpsert(collection, dim, vectors, payloads, ids); err != nil {
		return nil, err
	}

	pointIDs := storage.PointIDs(ids, len(vectors))
	points := make([]*pb.PointStruct, len(vectors))
	for i := range vectors {
		points[i] = &pb.PointStruct{
			Id: pointID(pointIDs[i]),
			Vectors: &pb.Vectors{
				VectorsOptions: &pb.Vectors_Vector{
					Vector: &pb.Vector{Data: vectors[i]},
				},
			},
			Payload: toValues(payloads[i]),
		}
	}

	wait := true
	_, err = x.points.Upsert(ctx, &pb.UpsertPoints{
		CollectionName: collection,
		Wait:           &wait,
		Points:         points,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: upserting %d points into %q: %w", len(points), collection, err)
	}
	return pointIDs, nil
}

// Search runs a filtered nearest-neighbor query with payloads.
func (x *Index) Search(ctx context.Context, collection string, query storage.SearchQuery) ([]core.SearchHit, error) {
	dim, err := x.requireDimension(ctx, collection)
	if err != nil {
		return nil, err
	}
	if err := storage.ValidateSearch(collection, dim, query); err != nil {
		return nil, err
	}

	resp, err := x.points.Search(ctx, &pb.SearchPoints{
		CollectionName: collection,
		Vector:         query.Vector,
		Limit:          uint64(query.Limit),
		Filter:         categoryFilter(query.Category),
		ScoreThreshold: query.ScoreThreshold,
		WithPayload: &pb.WithPayloadSelector{
			SelectorOptions: &pb.WithPayloadSelector_Enable{Enable: true},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: searching %q: %w", collection, err)
	}

	hits := make([]core.SearchHit, 0, len(resp.GetResult()))
	for _, point := range resp.GetResult() {
		hits = append(hits, core.SearchHit{
			ID:      point.GetId().GetUuid(),
			Score:   point.GetScore(),
			Payload: fromValues(point.GetPayload()),
		})
	}
	return hits, nil
}

// DeleteCollection drops the collection. A missing collection is not an error.
func (x *Index) DeleteCollection(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: collection name is required", storage.ErrInvalidQuery)
	}
	_, err := x.collections.Delete(ctx, &pb.DeleteCollection{CollectionName: name})
	x.dims.Delete(name)
	if err != nil && status.Code(err) != codes.NotFound {
		return fmt.Errorf("qdrant: deleting collection %q: %w", name, err)
	}
	return nil
}

func (x *Index) requireDimension(ctx context.Context, collection string) (int, error) {
	if dim, ok := x.dims.Load(collection); ok {
		return dim.(int), nil
	}
	dim, err := x.dimension(ctx, collection)
	if err != nil {
		return 0, err
	}
	if dim == 0 {
		return 0, fmt.Errorf("%w: %q", storage.ErrCollectionNotFound, collection)
	}
	x.dims.Store(collection, dim)
	return dim, nil
}
