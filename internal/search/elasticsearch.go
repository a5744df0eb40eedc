package search

import (
	"bytes"
	"context"
	"encoding/json"

	"example.com/backstage/services/picking/config"
	"example.com/backstage/services/picking/internal/models"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// PickListIndexer projects pick lists into a search index
type PickListIndexer interface {
	IndexPickList(ctx context.Context, pickList *models.PickList) error
}

// ElasticClient indexes pick lists in Elasticsearch
type ElasticClient struct {
	client *elasticsearch.Client
	config config.ElasticConfig
}

// NewElasticClient creates a new Elasticsearch client
func NewElasticClient(cfg config.ElasticConfig) (*ElasticClient, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Elasticsearch client")
	}

	return &ElasticClient{client: client, config: cfg}, nil
}

// PickListDocument builds the indexed representation of a pick list
func PickListDocument(pickList *models.PickList) map[string]interface{} {
	picks := make([]map[string]interface{}, 0, len(pickList.Picks))
	total := 0
	for _, p := range pickList.Picks {
		picks = append(picks, map[string]interface{}{
			"id":         p.ID.String(),
			"product_id": p.ProductID.String(),
			"amount":     p.Amount,
		})
		total += p.Amount
	}

	doc := map[string]interface{}{
		"id":           pickList.ID.String(),
		"route":        pickList.Route,
		"destination":  pickList.Destination,
		"created_at":   pickList.CreatedAt,
		"pick_count":   len(pickList.Picks),
		"total_amount": total,
		"picks":        picks,
	}
	if pickList.WarehouseID != nil {
		doc["warehouse_id"] = pickList.WarehouseID.String()
	}
	if pickList.UserID != nil {
		doc["user_id"] = pickList.UserID.String()
	}
	if pickList.CarrierID != nil {
		doc["carrier_id"] = pickList.CarrierID.String()
	}
	if pickList.ConfirmedAt != nil {
		doc["confirmed_at"] = pickList.ConfirmedAt
	}
	if pickList.FinishedAt != nil {
		doc["finished_at"] = pickList.FinishedAt
	}
	return doc
}

// IndexPickList upserts the pick list document keyed by its ID
func (c *ElasticClient) IndexPickList(ctx context.Context, pickList *models.PickList) error {
	body, err := json.Marshal(PickListDocument(pickList))
	if err != nil {
		return errors.Wrap(err, "failed to marshal pick list document")
	}

	req := esapi.IndexRequest{
		Index:      config.FormatIndex(c.config, c.config.Index),
		DocumentID: pickList.ID.String(),
		Body:       bytes.NewReader(body),
		Refresh:    "true",
	}

	res, err := req.Do(ctx, c.client)
	if err != nil {
		return errors.Wrap(err, "failed to execute Elasticsearch index request")
	}
	defer res.Body.Close()

	if res.IsError() {
		var e map[string]interface{}
		if err := json.NewDecoder(res.Body).Decode(&e); err != nil {
			return errors.Wrap(err, "failed to parse Elasticsearch error response")
		}
		return errors.Errorf("Elasticsearch index error: %v", e)
	}

	log.Debug().Str("pick_list_id", pickList.ID.String()).Msg("pick list indexed")
	return nil
}
