package qdrant

import (
	pb "github.com/qdrant/go-client/qdrant"

	"github.com/poiesic/worldsignal/core"
)

func stringValue(s string) *pb.Value {
	return &pb.Value{Kind: &pb.Value_StringValue{StringValue: s}}
}

func integerValue(n int64) *pb.Value {
	return &pb.Value{Kind: &pb.Value_IntegerValue{IntegerValue: n}}
}

// toValues flattens a chunk payload into Qdrant payload fields.
func toValues(p core.ChunkPayload) map[string]*pb.Value {
	return map[string]*pb.Value{
		core.PayloadArticleID: integerValue(p.ArticleID),
		core.PayloadCategory:  stringValue(p.Category),
		core.PayloadTimestamp: stringValue(p.Timestamp),
		core.PayloadChunk:     stringValue(p.Chunk),
		core.PayloadTitle:     stringValue(p.Title),
		core.PayloadURL:       stringValue(p.URL),
	}
}

// fromValues rebuilds a chunk payload. Missing fields stay zero.
func fromValues(values map[string]*pb.Value) core.ChunkPayload {
	return core.ChunkPayload{
		ArticleID: values[core.PayloadArticleID].GetIntegerValue(),
		Category:  values[core.PayloadCategory].GetStringValue(),
		Timestamp: values[core.PayloadTimestamp].GetStringValue(),
		Chunk:     values[core.PayloadChunk].GetStringValue(),
		Title:     values[core.PayloadTitle].GetStringValue(),
		URL:       values[core.PayloadURL].GetStringValue(),
	}
}

func pointID(id string) *pb.PointId {
	return &pb.PointId{PointIdOptions: &pb.PointId_Uuid{Uuid: id}}
}

func categoryFilter(category string) *pb.Filter {
	if category == "" {
		return nil
	}
	return &pb.Filter{
		Must: []*pb.Condition{{
			ConditionOneOf: &pb.Condition_Field{
				Field: &pb.FieldCondition{
					Key: core.PayloadCategory,
					Match: &pb.Match{
						MatchValue: &pb.Match_Keyword{Keyword: category},
					},
				},
			},
		}},
	}
}
