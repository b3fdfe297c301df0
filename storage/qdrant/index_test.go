package qdrant

import (
	"context"
	"math"
	"net"
	"sort"
	"sync"
	"testing"

	pb "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/poiesic/worldsignal/core"
	"github.com/poiesic/worldsignal/storage"
)

type fakePoint struct {
	vector  []float32
	payload map[string]*pb.Value
}

type fakeCollection struct {
	size   uint64
	points map[string]fakePoint
}

// fakeQdrant holds the state behind the fake collections and points services.
type fakeQdrant struct {
	mu          sync.Mutex
	collections map[string]*fakeCollection
	indexed     []string
	lastSearch  *pb.SearchPoints
}

type fakeCollections struct {
	pb.UnimplementedCollectionsServer
	*fakeQdrant
}

type fakePoints struct {
	pb.UnimplementedPointsServer
	*fakeQdrant
}

func (f *fakeCollections) List(ctx context.Context, req *pb.ListCollectionsRequest) (*pb.ListCollectionsResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	resp := &pb.ListCollectionsResponse{}
	for name := range f.collections {
		resp.Collections = append(resp.Collections, &pb.CollectionDescription{Name: name})
	}
	return resp, nil
}

func (f *fakeCollections) Get(ctx context.Context, req *pb.GetCollectionInfoRequest) (*pb.GetCollectionInfoResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	col := f.collections[req.GetCollectionName()]
	return &pb.GetCollectionInfoResponse{
		Result: &pb.CollectionInfo{
			Config: &pb.CollectionConfig{
				Params: &pb.CollectionParams{
					VectorsConfig: &pb.VectorsConfig{
						Config: &pb.VectorsConfig_Params{Params: &pb.VectorParams{Size: col.size}},
					},
				},
			},
		},
	}, nil
}

func (f *fakeCollections) Create(ctx context.Context, req *pb.CreateCollection) (*pb.CollectionOperationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.collections[req.GetCollectionName()] = &fakeCollection{
		size:   req.GetVectorsConfig().GetParams().GetSize(),
		points: map[string]fakePoint{},
	}
	return &pb.CollectionOperationResponse{Result: true}, nil
}

func (f *fakeCollections) Delete(ctx context.Context, req *pb.DeleteCollection) (*pb.CollectionOperationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.collections[req.GetCollectionName()]
	delete(f.collections, req.GetCollectionName())
	return &pb.CollectionOperationResponse{Result: ok}, nil
}

func (f *fakePoints) CreateFieldIndex(ctx context.Context, req *pb.CreateFieldIndexCollection) (*pb.PointsOperationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, req.GetFieldName())
	return &pb.PointsOperationResponse{}, nil
}

func (f *fakePoints) Upsert(ctx context.Context, req *pb.UpsertPoints) (*pb.PointsOperationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	col := f.collections[req.GetCollectionName()]
	for _, p := range req.GetPoints() {
		col.points[p.GetId().GetUuid()] = fakePoint{
			vector:  p.GetVectors().GetVector().GetData(),
			payload: p.GetPayload(),
		}
	}
	return &pb.PointsOperationResponse{}, nil
}

func (f *fakePoints) Search(ctx context.Context, req *pb.SearchPoints) (*pb.SearchResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastSearch = req

	var category string
	for _, cond := range req.GetFilter().GetMust() {
		if cond.GetField().GetKey() == core.PayloadCategory {
			category = cond.GetField().GetMatch().GetKeyword()
		}
	}

	var result []*pb.ScoredPoint
	for id, p := range f.collections[req.GetCollectionName()].points {
		if category != "" && p.payload[core.PayloadCategory].GetStringValue() != category {
			continue
		}
		score := cosine(req.GetVector(), p.vector)
		if req.ScoreThreshold != nil && score < req.GetScoreThreshold() {
			continue
		}
		result = append(result, &pb.ScoredPoint{
			Id:      &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: id}},
			Payload: p.payload,
			Score:   score,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Score > result[j].Score })
	if uint64(len(result)) > req.GetLimit() {
		result = result[:req.GetLimit()]
	}
	return &pb.SearchResponse{Result: result}, nil
}

func cosine(a, b []float32) float32 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

func newTestIndex(t *testing.T) (*Index, *fakeQdrant) {
	t.Helper()
	fake := &fakeQdrant{collections: map[string]*fakeCollection{}}

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	pb.RegisterCollectionsServer(srv, &fakeCollections{fakeQdrant: fake})
	pb.RegisterPointsServer(srv, &fakePoints{fakeQdrant: fake})
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	index := New(conn)
	t.Cleanup(func() { index.Close() })
	return index, fake
}

func samplePayload(id int64, category, chunk string) core.ChunkPayload {
	return core.ChunkPayload{
		ArticleID: id,
		Category:  category,
		Timestamp: "2024-05-01T12:00:00Z",
		Chunk:     chunk,
		Title:     "Markets Rally",
		URL:       "https://example.com/rally",
	}
}

func TestPayloadRoundTrip(t *testing.T) {
	p := samplePayload(42, "finance", "stocks climbed")
	assert.Equal(t, p, fromValues(toValues(p)))
	assert.Equal(t, core.ChunkPayload{}, fromValues(nil))
}

func TestCategoryFilter(t *testing.T) {
	assert.Nil(t, categoryFilter(""))

	f := categoryFilter("finance")
	require.Len(t, f.GetMust(), 1)
	assert.Equal(t, core.PayloadCategory, f.GetMust()[0].GetField().GetKey())
	assert.Equal(t, "finance", f.GetMust()[0].GetField().GetMatch().GetKeyword())
}

func TestOpen_RequiresHost(t *testing.T) {
	_, err := Open("", 0)
	assert.Error(t, err)
}

func TestEnsureCollection(t *testing.T) {
	index, fake := newTestIndex(t)
	ctx := context.Background()
	spec := storage.CollectionSpec{Name: "world_signal_news", Dimension: 3}

	created, err := index.EnsureCollection(ctx, spec)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, []string{core.PayloadCategory}, fake.indexed)

	created, err = index.EnsureCollection(ctx, spec)
	require.NoError(t, err)
	assert.False(t, created)

	_, err = index.EnsureCollection(ctx, storage.CollectionSpec{Name: spec.Name, Dimension: 4})
	var dimErr *core.DimensionMismatchError
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 3, dimErr.Existing)

	created, err = index.EnsureCollection(ctx, storage.CollectionSpec{Name: spec.Name, Dimension: 4, Force: true})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint64(4), fake.collections[spec.Name].size)
}

func TestUpsertAndSearch(t *testing.T) {
	index, fake := newTestIndex(t)
	ctx := context.Background()

	_, err := index.EnsureCollection(ctx, storage.CollectionSpec{Name: "news", Dimension: 2})
	require.NoError(t, err)

	ids, err := index.Upsert(ctx, "news",
		[][]float32{{1, 0}, {0, 1}, {1, 1}},
		[]core.ChunkPayload{
			samplePayload(1, "finance", "a"),
			samplePayload(2, "geopolitics", "b"),
			samplePayload(3, "finance", "c"),
		},
		nil)
	require.NoError(t, err)
	require.Len(t, ids, 3)

	minScore := float32(0.3)
	hits, err := index.Search(ctx, "news", storage.SearchQuery{
		Vector:         []float32{1, 0},
		Limit:          5,
		Category:       "finance",
		ScoreThreshold: &minScore,
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a", hits[0].Payload.Chunk)
	assert.Equal(t, ids[0], hits[0].ID)
	assert.Equal(t, int64(1), hits[0].Payload.ArticleID)
	assert.Equal(t, "c", hits[1].Payload.Chunk)

	require.NotNil(t, fake.lastSearch)
	assert.Equal(t, uint64(5), fake.lastSearch.GetLimit())
	assert.True(t, fake.lastSearch.GetWithPayload().GetEnable())
}

func TestUpsert_ValidatesBeforeWriting(t *testing.T) {
	index, fake := newTestIndex(t)
	ctx := context.Background()

	_, err := index.EnsureCollection(ctx, storage.CollectionSpec{Name: "news", Dimension: 2})
	require.NoError(t, err)

	_, err = index.Upsert(ctx, "news", [][]float32{{1, 0}}, nil, nil)
	assert.ErrorIs(t, err, core.ErrLengthMismatch)

	_, err = index.Upsert(ctx, "news", [][]float32{{1, 0, 0}}, []core.ChunkPayload{samplePayload(1, "finance", "x")}, nil)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)

	assert.Empty(t, fake.collections["news"].points)
}

func TestUpsert_MissingCollection(t *testing.T) {
	index, _ := newTestIndex(t)

	_, err := index.Upsert(context.Background(), "missing", [][]float32{{1}}, []core.ChunkPayload{samplePayload(1, "finance", "x")}, nil)
	assert.ErrorIs(t, err, storage.ErrCollectionNotFound)
}

func TestDeleteCollection(t *testing.T) {
	index, fake := newTestIndex(t)
	ctx := context.Background()

	_, err := index.EnsureCollection(ctx, storage.CollectionSpec{Name: "news", Dimension: 2})
	require.NoError(t, err)

	require.NoError(t, index.DeleteCollection(ctx, "news"))
	assert.NotContains(t, fake.collections, "news")

	_, err = index.Search(ctx, "news", storage.SearchQuery{Vector: []float32{1, 0}, Limit: 1})
	assert.ErrorIs(t, err, storage.ErrCollectionNotFound)

	assert.NoError(t, index.DeleteCollection(ctx, "news"))
}
