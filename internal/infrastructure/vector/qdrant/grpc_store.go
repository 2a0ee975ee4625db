package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"github.com/kirillkom/course-assistant/internal/core/domain"
)

// GRPCStore searches a collection through the official gRPC client.
type GRPCStore struct {
	client     *qdrant.Client
	collection string
}

// NewGRPCStore derives the gRPC endpoint from the REST URL: same host,
// HTTP port + 1 (6334 by default).
func NewGRPCStore(restURL, collection, apiKey string) (*GRPCStore, error) {
	host, port, err := grpcEndpoint(restURL)
	if err != nil {
		return nil, err
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create qdrant grpc client: %w", err)
	}
	return &GRPCStore{client: client, collection: collection}, nil
}

func grpcEndpoint(restURL string) (string, int, error) {
	parsed, err := url.Parse(restURL)
	if err != nil {
		return "", 0, fmt.Errorf("invalid qdrant url: %w", err)
	}

	host := parsed.Hostname()
	if host == "" {
		host = "localhost"
	}
	port := 6334
	if p := parsed.Port(); p != "" {
		httpPort, err := strconv.Atoi(p)
		if err != nil {
			return "", 0, fmt.Errorf("invalid qdrant port %q: %w", p, err)
		}
		port = httpPort + 1
	}
	return host, port, nil
}

func (s *GRPCStore) Search(ctx context.Context, queryVector []float32, k int) ([]domain.Passage, error) {
	limit := uint64(k)
	scored, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          &limit,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant grpc query: %w", err)
	}

	out := make([]domain.Passage, 0, len(scored))
	for _, point := range scored {
		out = append(out, domain.PassageFromPayload(convertPayload(point.GetPayload()), float64(point.GetScore())))
	}
	return out, nil
}

func (s *GRPCStore) Ping(ctx context.Context) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("qdrant grpc collection exists: %w", err)
	}
	if !exists {
		return fmt.Errorf("qdrant collection %q not found", s.collection)
	}
	return nil
}

func (s *GRPCStore) Close() error {
	return s.client.Close()
}

func convertPayload(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if v == nil {
			continue
		}
		out[k] = convertValue(v)
	}
	return out
}

func convertValue(v *qdrant.Value) any {
	switch val := v.GetKind().(type) {
	case *qdrant.Value_BoolValue:
		return val.BoolValue
	case *qdrant.Value_IntegerValue:
		return float64(val.IntegerValue)
	case *qdrant.Value_DoubleValue:
		return val.DoubleValue
	case *qdrant.Value_StringValue:
		return val.StringValue
	case *qdrant.Value_ListValue:
		list := make([]any, len(val.ListValue.GetValues()))
		for i, item := range val.ListValue.GetValues() {
			list[i] = convertValue(item)
		}
		return list
	case *qdrant.Value_StructValue:
		return convertPayload(val.StructValue.GetFields())
	default:
		return nil
	}
}
