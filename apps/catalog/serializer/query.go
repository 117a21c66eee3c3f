package serializer

import (
	"fmt"
	"net/url"
	"strings"

	"sneaker-catalog/apps/catalog/model"
	"sneaker-catalog/apps/catalog/store"

	"github.com/shopspring/decimal"
)

// queryFields keeps the first non-blank value of each parameter; blank
// filters are ignored.
func queryFields(q url.Values) Fields {
	form := make(map[string][]string, len(q))
	for k, vs := range q {
		if len(vs) > 0 && strings.TrimSpace(vs[0]) != "" {
			form[k] = vs[:1]
		}
	}
	return FormFields(form)
}

func (r *reader) optionalBool(key string) *bool {
	if !r.fields.Has(key) {
		return nil
	}
	var b bool
	before := r.verr.Has(key)
	r.Bool(key, &b)
	if !before && r.verr.Has(key) {
		return nil
	}
	return &b
}

func (r *reader) optionalDecimal(key string) *decimal.Decimal {
	var s string
	r.String(key, &s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		r.fail(key, msgNumber)
		return nil
	}
	return &d
}

// DecodeShoeFilter reads the filters of the shoe list endpoint.
func DecodeShoeFilter(q url.Values) (store.ShoeFilter, error) {
	fields := queryFields(q)
	r := newReader(fields)
	f := store.ShoeFilter{}

	r.NullableUint("brand", &f.BrandID)
	r.String("category", &f.Category)
	if f.Category != "" && !model.Category(f.Category).Valid() {
		r.fail("category", fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", f.Category))
	}
	r.NullableInt("release_year", &f.ReleaseYear)
	f.IsActive = r.optionalBool("is_active")
	f.IsLimited = r.optionalBool("is_limited")
	r.String("search", &f.Search)
	r.String("ordering", &f.Ordering)
	return f, r.err()
}

// DecodeSearch reads the advanced search parameters: q, min_price,
// max_price, start_year and end_year.
func DecodeSearch(q url.Values) (store.ShoeFilter, error) {
	r := newReader(queryFields(q))
	f := store.ShoeFilter{}

	r.String("q", &f.Keyword)
	f.MinPrice = r.optionalDecimal("min_price")
	f.MaxPrice = r.optionalDecimal("max_price")
	r.NullableInt("start_year", &f.StartYear)
	r.NullableInt("end_year", &f.EndYear)
	return f, r.err()
}

// DecodeBrandFilter reads search and ordering of the brand list.
func DecodeBrandFilter(q url.Values) store.BrandFilter {
	return store.BrandFilter{
		Search:   strings.TrimSpace(q.Get("search")),
		Ordering: strings.TrimSpace(q.Get("ordering")),
	}
}

// DecodeCredentials reads a login body. Passwords are taken verbatim.
func DecodeCredentials(f Fields) (username, password string, err error) {
	r := newReader(f)
	r.require("username", "password")
	r.String("username", &username)
	if v, ok := r.value("password"); ok {
		s, isString := v.(string)
		if !isString {
			r.fail("password", msgString)
		}
		password = s
	}
	for key, v := range map[string]string{"username": username, "password": password} {
		if f.Has(key) && v == "" && !r.verr.Has(key) {
			r.fail(key, "This field may not be blank.")
		}
	}
	return username, password, r.err()
}

// DecodeToken reads a required token field such as refresh or token.
func DecodeToken(f Fields, key string) (string, error) {
	r := newReader(f)
	r.require(key)
	var token string
	r.String(key, &token)
	if f.Has(key) && token == "" && !r.verr.Has(key) {
		r.fail(key, "This field may not be blank.")
	}
	return token, r.err()
}
