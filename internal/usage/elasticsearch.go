// internal/usage/elasticsearch.go
package usage

import (
	"context"
	"encoding/json"
	"fmt"

	"capability-explorer/internal/common/database"
	"capability-explorer/internal/models"
)

// ElasticsearchSink mirrors usage events into a search index.
type ElasticsearchSink struct {
	client *database.ElasticsearchClient
	index  string
}

func NewElasticsearchSink(client *database.ElasticsearchClient, index string) *ElasticsearchSink {
	return &ElasticsearchSink{client: client, index: index}
}

func (s *ElasticsearchSink) Write(ctx context.Context, event models.UsageEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal usage event: %w", err)
	}
	return s.client.IndexDocument(ctx, s.index, event.ID, body)
}
