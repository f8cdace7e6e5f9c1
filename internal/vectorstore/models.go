package vectorstore

import "github.com/qdrant/go-client/qdrant"

// toQdrantPayload converts pipeline metadata to a Qdrant payload.
//
// The metadata value union is string, int/int64, float64, bool, and
// []string; values of any other type are dropped at the boundary rather
// than stored with a lossy conversion.
func toQdrantPayload(metadata map[string]interface{}) map[string]*qdrant.Value {
	payload := make(map[string]*qdrant.Value, len(metadata)+1)
	for k, v := range metadata {
		switch val := v.(type) {
		case string:
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: val}}
		case int:
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: int64(val)}}
		case int64:
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_IntegerValue{IntegerValue: val}}
		case float64:
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_DoubleValue{DoubleValue: val}}
		case bool:
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_BoolValue{BoolValue: val}}
		case []string:
			values := make([]*qdrant.Value, len(val))
			for i, s := range val {
				values[i] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: s}}
			}
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_ListValue{
				ListValue: &qdrant.ListValue{Values: values},
			}}
		}
	}
	return payload
}

// fromQdrantPayload converts a Qdrant payload back to pipeline metadata.
func fromQdrantPayload(payload map[string]*qdrant.Value) map[string]interface{} {
	metadata := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		switch val := v.Kind.(type) {
		case *qdrant.Value_StringValue:
			metadata[k] = val.StringValue
		case *qdrant.Value_IntegerValue:
			metadata[k] = val.IntegerValue
		case *qdrant.Value_DoubleValue:
			metadata[k] = val.DoubleValue
		case *qdrant.Value_BoolValue:
			metadata[k] = val.BoolValue
		case *qdrant.Value_ListValue:
			strings := make([]string, 0, len(val.ListValue.GetValues()))
			for _, item := range val.ListValue.GetValues() {
				if s, ok := item.Kind.(*qdrant.Value_StringValue); ok {
					strings = append(strings, s.StringValue)
				}
			}
			metadata[k] = strings
		}
	}
	return metadata
}
