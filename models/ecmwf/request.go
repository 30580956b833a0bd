package ecmwf

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xhhuango/json"
)

type Field struct {
	Key   string
	Value string
}

// Request is a MARS retrieval request. Field order is preserved so the
// document is listed and submitted exactly as it was assembled.
type Request struct {
	fields []Field
}

func (r *Request) set(key, value string) {
	for i := range r.fields {
		if r.fields[i].Key == key {
			r.fields[i].Value = value
			return
		}
	}
	r.fields = append(r.fields, Field{Key: key, Value: value})
}

func (r *Request) Get(key string) (string, bool) {
	for _, f := range r.fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

func (r *Request) Has(key string) bool {
	_, ok := r.Get(key)
	return ok
}

func (r *Request) Fields() []Field {
	return append([]Field(nil), r.fields...)
}

func (r *Request) Keys() []string {
	keys := make([]string, len(r.fields))
	for i, f := range r.fields {
		keys[i] = f.Key
	}
	return keys
}

func (r *Request) Map() map[string]string {
	m := make(map[string]string, len(r.fields))
	for _, f := range r.fields {
		m[f.Key] = f.Value
	}
	return m
}

func (r *Request) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// String lists the request one field per line with aligned values.
func (r *Request) String() string {
	width := 0
	for _, f := range r.fields {
		width = max(width, len(f.Key))
	}

	var sb strings.Builder
	for _, f := range r.fields {
		fmt.Fprintf(&sb, "%-*s %s\n", width+1, f.Key+":", f.Value)
	}
	return sb.String()
}
