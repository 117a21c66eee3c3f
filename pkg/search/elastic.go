package search

import (
	"context"
	"fmt"

	"sneaker-catalog/pkg/config"

	"github.com/olivere/elastic/v7"
)

// Client is a thin wrapper over one Elasticsearch index.
type Client struct {
	es    *elastic.Client
	index string
}

func NewClient(cfg config.ElasticConfig) (*Client, error) {
	es, err := elastic.NewClient(
		elastic.SetURL(cfg.URLs...),
		elastic.SetSniff(false),
		elastic.SetHealthcheck(false),
	)
	if err != nil {
		return nil, err
	}
	return &Client{es: es, index: cfg.Index}, nil
}

// EnsureIndex creates the index with mapping if it does not exist yet.
func (c *Client) EnsureIndex(ctx context.Context, mapping string) error {
	exists, err := c.es.IndexExists(c.index).Do(ctx)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	_, err = c.es.CreateIndex(c.index).BodyString(mapping).Do(ctx)
	if err != nil && !elastic.IsStatusCode(err, 400) {
		return err
	}
	return nil
}

func (c *Client) Index(ctx context.Context, id string, doc interface{}) error {
	_, err := c.es.Index().Index(c.index).Id(id).BodyJson(doc).Do(ctx)
	return err
}

// Delete removes a document; unknown ids are ignored.
func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.es.Delete().Index(c.index).Id(id).Do(ctx)
	if err != nil && !elastic.IsNotFound(err) {
		return err
	}
	return nil
}

// SearchIDs runs query and returns the matching document ids of one page
// together with the total hit count.
func (c *Client) SearchIDs(ctx context.Context, query elastic.Query, from, size int, sorters ...elastic.Sorter) ([]string, int64, error) {
	svc := c.es.Search(c.index).
		Query(query).
		FetchSource(false).
		TrackTotalHits(true).
		From(from)
	if size > 0 {
		svc = svc.Size(size)
	}
	if len(sorters) > 0 {
		svc = svc.SortBy(sorters...)
	}

	res, err := svc.Do(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("elastic search: %w", err)
	}

	ids := make([]string, 0, len(res.Hits.Hits))
	for _, hit := range res.Hits.Hits {
		ids = append(ids, hit.Id)
	}
	return ids, res.TotalHits(), nil
}
