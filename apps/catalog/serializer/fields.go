package serializer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"sneaker-catalog/apps/catalog/errs"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const (
	msgRequired    = "This field is required."
	msgNull        = "This field may not be null."
	msgString      = "Not a valid string."
	msgInteger     = "A valid integer is required."
	msgNumber      = "A valid number is required."
	msgBoolean     = "Must be a valid boolean."
	msgNonNegative = "Ensure this value is greater than or equal to 0."
)

// Fields is a request body keyed by field name, each value still encoded.
type Fields map[string]json.RawMessage

// ParseJSON decodes a JSON object body. An empty body is an empty object.
func ParseJSON(body []byte) (Fields, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Fields{}, nil
	}
	var f Fields
	if err := json.Unmarshal(body, &f); err != nil {
		return nil, errs.BadRequest("JSON parse error - " + err.Error())
	}
	if f == nil {
		f = Fields{}
	}
	return f, nil
}

// FormFields converts form values into Fields, keeping the first value.
func FormFields(form map[string][]string) Fields {
	f := make(Fields, len(form))
	for k, vs := range form {
		if len(vs) == 0 {
			continue
		}
		raw, _ := json.Marshal(vs[0])
		f[k] = raw
	}
	return f
}

func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

// IsNull reports whether key was sent as null or as an empty string.
func (f Fields) IsNull(key string) bool {
	raw, ok := f[key]
	if !ok {
		return false
	}
	s := string(bytes.TrimSpace(raw))
	return s == "null" || s == `""`
}

// reader decodes single fields and collects per-field messages.
type reader struct {
	fields Fields
	verr   *errs.ValidationError
}

func newReader(f Fields) *reader {
	return &reader{fields: f, verr: errs.NewValidation()}
}

func (r *reader) fail(key, msg string) {
	r.verr.Add(key, msg)
}

func (r *reader) err() error {
	return r.verr.OrNil()
}

func (r *reader) require(keys ...string) {
	for _, k := range keys {
		if !r.fields.Has(k) {
			r.fail(k, msgRequired)
		}
	}
}

// value returns the decoded value of key; numbers stay json.Number.
func (r *reader) value(key string) (interface{}, bool) {
	raw, ok := r.fields[key]
	if !ok {
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		r.fail(key, "Invalid value.")
		return nil, false
	}
	return v, true
}

func (r *reader) String(key string, dst *string) {
	v, ok := r.value(key)
	if !ok {
		return
	}
	switch t := v.(type) {
	case nil:
		r.fail(key, msgNull)
	case string:
		*dst = strings.TrimSpace(t)
	case json.Number:
		*dst = t.String()
	default:
		r.fail(key, msgString)
	}
}

func toInt(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i, true
		}
		if f, err := t.Float64(); err == nil && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f), true
		}
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64); err == nil {
			return i, true
		}
	}
	return 0, false
}

func (r *reader) integer(key string, nullable bool) (int64, bool, bool) {
	v, ok := r.value(key)
	if !ok {
		return 0, false, false
	}
	if v == nil || (nullable && v == "") {
		if !nullable {
			r.fail(key, msgNull)
			return 0, false, false
		}
		return 0, true, true
	}
	i, ok := toInt(v)
	if !ok {
		r.fail(key, msgInteger)
		return 0, false, false
	}
	return i, false, true
}

func (r *reader) NullableInt(key string, dst **int) {
	i, null, ok := r.integer(key, true)
	if !ok {
		return
	}
	if null {
		*dst = nil
		return
	}
	if i < math.MinInt32 || i > math.MaxInt32 {
		r.fail(key, msgInteger)
		return
	}
	n := int(i)
	*dst = &n
}

func (r *reader) Uint(key string, dst *uint) {
	i, _, ok := r.integer(key, false)
	if !ok {
		return
	}
	if i < 0 {
		r.fail(key, msgNonNegative)
		return
	}
	*dst = uint(i)
}

func (r *reader) NullableUint(key string, dst **uint) {
	i, null, ok := r.integer(key, true)
	if !ok {
		return
	}
	if null {
		*dst = nil
		return
	}
	if i < 0 {
		r.fail(key, msgNonNegative)
		return
	}
	n := uint(i)
	*dst = &n
}

// PK decodes a related object id. Existence is checked by the store.
func (r *reader) PK(key string, dst *uint) {
	v, ok := r.value(key)
	if !ok {
		return
	}
	if v == nil {
		r.fail(key, msgNull)
		return
	}
	i, ok := toInt(v)
	if !ok {
		r.fail(key, fmt.Sprintf("Incorrect type. Expected pk value, received %s.", jsonType(v)))
		return
	}
	if i <= 0 {
		r.fail(key, fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", i))
		return
	}
	*dst = uint(i)
}

func jsonType(v interface{}) string {
	switch v.(type) {
	case string:
		return "str"
	case bool:
		return "bool"
	case []interface{}:
		return "list"
	case map[string]interface{}:
		return "dict"
	default:
		return "float"
	}
}

func (r *reader) Bool(key string, dst *bool) {
	v, ok := r.value(key)
	if !ok {
		return
	}
	switch t := v.(type) {
	case nil:
		r.fail(key, msgNull)
		return
	case bool:
		*dst = t
		return
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes", "on":
			*dst = true
			return
		case "false", "0", "no", "off":
			*dst = false
			return
		}
	case json.Number:
		switch t.String() {
		case "1":
			*dst = true
			return
		case "0":
			*dst = false
			return
		}
	}
	r.fail(key, msgBoolean)
}

// decimalLimit reports the first violated limit of a decimal(maxDigits, places)
// column, or "" when d fits.
func decimalLimit(d decimal.Decimal, maxDigits, places int) string {
	coef := d.Coefficient()
	coef.Abs(coef)
	digits := len(coef.String())
	exp := int(d.Exponent())

	var total, decimals int
	switch {
	case exp >= 0:
		total = digits + exp
	case digits > -exp:
		total = digits
		decimals = -exp
	default:
		total = -exp
		decimals = total
	}
	whole := total - decimals
	switch {
	case total > maxDigits:
		return fmt.Sprintf("Ensure that there are no more than %d digits in total.", maxDigits)
	case decimals > places:
		return fmt.Sprintf("Ensure that there are no more than %d decimal places.", places)
	case whole > maxDigits-places:
		return fmt.Sprintf("Ensure that there are no more than %d digits before the decimal point.", maxDigits-places)
	}
	return ""
}

func (r *reader) Decimal(key string, dst *decimal.NullDecimal, maxDigits, places int) {
	v, ok := r.value(key)
	if !ok {
		return
	}
	var s string
	switch t := v.(type) {
	case nil:
		*dst = decimal.NullDecimal{}
		return
	case json.Number:
		s = t.String()
	case string:
		s = strings.TrimSpace(t)
		if s == "" {
			*dst = decimal.NullDecimal{}
			return
		}
	default:
		r.fail(key, msgNumber)
		return
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		r.fail(key, msgNumber)
		return
	}
	if msg := decimalLimit(d, maxDigits, places); msg != "" {
		r.fail(key, msg)
		return
	}
	*dst = decimal.NewNullDecimal(d)
}

// List accepts only JSON arrays; msg is reported for any other shape.
func (r *reader) List(key string, dst *datatypes.JSON, msg string) {
	raw, ok := r.fields[key]
	if !ok {
		return
	}
	var items []interface{}
	if err := json.Unmarshal(raw, &items); err != nil || items == nil {
		if string(bytes.TrimSpace(raw)) == "null" {
			r.fail(key, msgNull)
			return
		}
		r.fail(key, msg)
		return
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		r.fail(key, msg)
		return
	}
	*dst = datatypes.JSON(buf.Bytes())
}
