// Package mock provides test doubles for the ai package interfaces.
//
// The mocks allow behavior injection through function fields:
//
//	mockEmbedder := mock.NewMockEmbedder()
//	mockEmbedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("backend down")
//	}
//
//	// Check call counts
//	count := mockEmbedder.CallCount()
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockGenerator: Streams the configured Tokens, one fragment at a time
//   - MockProvider: Aggregates mock embedder and generator
package mock
