package legacy

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// document is one raw API object.
type document map[string]any

func (d document) str(key string) string {
	s, _ := d[key].(string)
	return s
}

func (d document) integer(key string) int64 {
	switch v := d[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	default:
		return 0
	}
}

func (d document) boolean(key string) bool {
	b, _ := d[key].(bool)
	return b
}

func (d document) timestamp(key string) time.Time {
	s := d.str(key)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// child returns a nested object, or an empty document.
func (d document) child(key string) document {
	m, _ := d[key].(map[string]any)
	return document(m)
}

// login returns the login of a nested account object such as "user" or "owner".
func (d document) login(key string) string {
	return d.child(key).str("login")
}

// path joins escaped path segments.
func path(segments ...any) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		parts[i] = url.PathEscape(fmt.Sprint(s))
	}
	return strings.Join(parts, "/")
}
