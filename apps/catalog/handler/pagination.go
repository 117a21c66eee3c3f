package handler

import (
	"net/url"
	"strconv"
	"strings"

	"sneaker-catalog/apps/catalog/errs"
	"sneaker-catalog/apps/catalog/store"

	"github.com/gin-gonic/gin"
)

// PageBody 分页响应
type PageBody struct {
	Count    int64         `json:"count"`
	Next     *string       `json:"next"`
	Previous *string       `json:"previous"`
	Results  []interface{} `json:"results"`
}

// pager is the page-number pagination of one request.
type pager struct {
	number int
	size   int
}

// pager reads page and page_size. ok is false when pagination is off.
func (h *Handler) pager(c *gin.Context) (p pager, ok bool, err error) {
	if h.Pagination.PageSize <= 0 {
		return pager{}, false, nil
	}
	p = pager{number: 1, size: h.Pagination.PageSize}

	if raw := c.Query("page_size"); raw != "" {
		if n, convErr := strconv.Atoi(raw); convErr == nil && n > 0 {
			p.size = n
		}
	}
	if max := h.Pagination.MaxPageSize; max > 0 && p.size > max {
		p.size = max
	}

	switch raw := c.Query("page"); raw {
	case "":
	case "last":
		p.number = -1
	default:
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 1 {
			return p, true, errs.NotFound("page")
		}
		p.number = n
	}
	return p, true, nil
}

func (p pager) page() store.Page {
	return store.Page{Offset: (p.number - 1) * p.size, Limit: p.size}
}

func (p pager) pages(count int64) int {
	if count == 0 {
		return 1
	}
	return int((count + int64(p.size) - 1) / int64(p.size))
}

// resolve checks the requested page against count. "last" becomes the last
// page number.
func (p *pager) resolve(count int64) error {
	pages := p.pages(count)
	if p.number < 1 {
		p.number = pages
	}
	if p.number > pages {
		return errs.NotFound("page")
	}
	return nil
}

func pageLink(c *gin.Context, origin string, number int) *string {
	q := url.Values{}
	for k, v := range c.Request.URL.Query() {
		q[k] = v
	}
	if number <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(number))
	}
	link := strings.TrimSuffix(origin, "/") + c.Request.URL.Path
	if enc := q.Encode(); enc != "" {
		link += "?" + enc
	}
	return &link
}

func (p pager) body(c *gin.Context, origin string, count int64, results []interface{}) PageBody {
	b := PageBody{Count: count, Results: results}
	if p.number < p.pages(count) {
		b.Next = pageLink(c, origin, p.number+1)
	}
	if p.number > 1 {
		b.Previous = pageLink(c, origin, p.number-1)
	}
	return b
}

// fetch loads one page through load and returns the total count. "last"
// needs the count first, so it loads twice.
func (p *pager) fetch(load func(store.Page) (int64, error)) (int64, error) {
	if p.number >= 1 {
		count, err := load(p.page())
		if err != nil {
			return 0, err
		}
		return count, p.resolve(count)
	}
	count, err := load(store.Page{Limit: 1})
	if err != nil {
		return 0, err
	}
	if err := p.resolve(count); err != nil {
		return 0, err
	}
	return load(p.page())
}
