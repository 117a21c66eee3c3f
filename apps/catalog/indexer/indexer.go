// Package indexer keeps the Elasticsearch shoe index in step with the
// database and answers advanced searches from it.
package indexer

import (
	"context"
	"strconv"
	"strings"
	"time"

	"sneaker-catalog/apps/catalog/model"
	"sneaker-catalog/apps/catalog/store"
	"sneaker-catalog/pkg/search"

	"github.com/olivere/elastic/v7"
)

// Mapping 使用 lowercase normalizer 的 keyword 子字段做不区分大小写的子串匹配.
// description 长度不限, keyword 会被 ignore_above 跳过, 所以小写后写入 wildcard 字段.
const Mapping = `{
  "settings": {
    "analysis": {
      "normalizer": {
        "lowercase": {"type": "custom", "filter": ["lowercase"]}
      }
    }
  },
  "mappings": {
    "properties": {
      "id":           {"type": "long"},
      "brand_id":     {"type": "long"},
      "brand_name":   {"type": "text", "fields": {"raw": {"type": "keyword", "normalizer": "lowercase", "ignore_above": 256}}},
      "model":        {"type": "text", "fields": {"raw": {"type": "keyword", "normalizer": "lowercase", "ignore_above": 256}}},
      "colorway":     {"type": "text", "fields": {"raw": {"type": "keyword", "normalizer": "lowercase", "ignore_above": 256}}},
      "description":  {"type": "text"},
      "description_search": {"type": "wildcard"},
      "category":     {"type": "keyword"},
      "sku":          {"type": "keyword"},
      "release_year": {"type": "integer"},
      "retail_price": {"type": "scaled_float", "scaling_factor": 100},
      "is_active":    {"type": "boolean"},
      "is_limited":   {"type": "boolean"},
      "created_at":   {"type": "date"}
    }
  }
}`

// maxResultWindow is the default index.max_result_window.
const maxResultWindow = 10000

var keywordFields = []string{"model.raw", "colorway.raw", "brand_name.raw", "description_search"}

type Document struct {
	ID          uint   `json:"id"`
	BrandID     uint   `json:"brand_id"`
	BrandName   string `json:"brand_name"`
	Model       string `json:"model"`
	Colorway    string `json:"colorway"`
	Description string `json:"description"`
	// DescriptionSearch is the lower-cased description for wildcard matching.
	DescriptionSearch string    `json:"description_search"`
	Category          string    `json:"category"`
	SKU               string    `json:"sku"`
	ReleaseYear       *int      `json:"release_year,omitempty"`
	RetailPrice       *float64  `json:"retail_price,omitempty"`
	IsActive          bool      `json:"is_active"`
	IsLimited         bool      `json:"is_limited"`
	CreatedAt         time.Time `json:"created_at"`
}

// NewDocument expects the shoe's Brand loaded.
func NewDocument(s model.Shoe) Document {
	doc := Document{
		ID:                s.ID,
		BrandID:           s.BrandID,
		BrandName:         s.Brand.Name,
		Model:             s.Model,
		Colorway:          s.Colorway,
		Description:       s.Description,
		DescriptionSearch: strings.ToLower(s.Description),
		Category:          string(s.Category),
		SKU:               s.SKU,
		ReleaseYear:       s.ReleaseYear,
		IsActive:          s.IsActive,
		IsLimited:         s.IsLimited,
		CreatedAt:         s.CreatedAt,
	}
	if s.RetailPrice.Valid {
		p := s.RetailPrice.Decimal.InexactFloat64()
		doc.RetailPrice = &p
	}
	return doc
}

var wildcardEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`)

// Query builds the advanced search: the keyword is OR'ed over the text
// fields, every other criterion is AND'ed.
func Query(f store.ShoeFilter) elastic.Query {
	q := elastic.NewBoolQuery()
	if f.Keyword != "" {
		pattern := "*" + wildcardEscaper.Replace(strings.ToLower(f.Keyword)) + "*"
		should := make([]elastic.Query, len(keywordFields))
		for i, field := range keywordFields {
			should[i] = elastic.NewWildcardQuery(field, pattern)
		}
		q = q.Filter(elastic.NewBoolQuery().Should(should...).MinimumNumberShouldMatch(1))
	}
	if f.MinPrice != nil || f.MaxPrice != nil {
		r := elastic.NewRangeQuery("retail_price")
		if f.MinPrice != nil {
			r = r.Gte(f.MinPrice.InexactFloat64())
		}
		if f.MaxPrice != nil {
			r = r.Lte(f.MaxPrice.InexactFloat64())
		}
		q = q.Filter(r)
	}
	if f.StartYear != nil || f.EndYear != nil {
		r := elastic.NewRangeQuery("release_year")
		if f.StartYear != nil {
			r = r.Gte(*f.StartYear)
		}
		if f.EndYear != nil {
			r = r.Lte(*f.EndYear)
		}
		q = q.Filter(r)
	}
	return q
}

type Indexer struct {
	client *search.Client
}

func New(client *search.Client) *Indexer {
	return &Indexer{client: client}
}

// Setup creates the index on first start.
func (i *Indexer) Setup(ctx context.Context) error {
	return i.client.EnsureIndex(ctx, Mapping)
}

func (i *Indexer) IndexShoe(ctx context.Context, s model.Shoe) error {
	return i.client.Index(ctx, strconv.FormatUint(uint64(s.ID), 10), NewDocument(s))
}

func (i *Indexer) DeleteShoe(ctx context.Context, id uint) error {
	return i.client.Delete(ctx, strconv.FormatUint(uint64(id), 10))
}

// Search returns the ids of one page of matches, newest first, and the
// total hit count.
func (i *Indexer) Search(ctx context.Context, f store.ShoeFilter, page store.Page) ([]uint, int64, error) {
	size := page.Limit
	if size == 0 {
		size = maxResultWindow
	}
	hits, total, err := i.client.SearchIDs(ctx, Query(f), page.Offset, size,
		elastic.NewFieldSort("created_at").Desc(),
		elastic.NewFieldSort("id").Desc(),
	)
	if err != nil {
		return nil, 0, err
	}
	ids := make([]uint, 0, len(hits))
	for _, h := range hits {
		id, err := strconv.ParseUint(h, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, uint(id))
	}
	return ids, total, nil
}
