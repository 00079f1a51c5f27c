// Package jsonwalk walks decoded JSON documents breadth-first with a depth
// bound, so searches over untrusted payloads always terminate.
package jsonwalk

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

const DefaultMaxDepth = 8

// Options bound a walk. Descend, when set, restricts which object keys are
// followed; the root object is always visited.
type Options struct {
	MaxDepth int
	Descend  func(key string) bool
}

type item struct {
	obj   map[string]interface{}
	depth int
}

// Walk calls visit for every reachable object, shallowest first. Keys of an
// object are followed in sorted order. Returning false from visit stops the
// walk.
func Walk(root interface{}, opts Options, visit func(obj map[string]interface{}, depth int) bool) {
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	var queue []item
	queue = enqueue(queue, root, 0, maxDepth)
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if !visit(cur.obj, cur.depth) {
			return
		}
		if cur.depth >= maxDepth {
			continue
		}
		for _, k := range SortedKeys(cur.obj) {
			if opts.Descend != nil && !opts.Descend(k) {
				continue
			}
			queue = enqueue(queue, cur.obj[k], cur.depth+1, maxDepth)
		}
	}
}

func enqueue(queue []item, v interface{}, depth, maxDepth int) []item {
	if depth > maxDepth {
		return queue
	}
	switch t := v.(type) {
	case map[string]interface{}:
		return append(queue, item{obj: t, depth: depth})
	case []interface{}:
		for _, el := range t {
			queue = enqueue(queue, el, depth, maxDepth)
		}
	}
	return queue
}

func SortedKeys(obj map[string]interface{}) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Decode parses raw keeping numbers as json.Number.
func Decode(raw []byte) (interface{}, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

// String returns v as a trimmed string when it is a string or a number.
func String(v interface{}) (string, bool) {
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		return s, s != ""
	case json.Number:
		return t.String(), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	}
	return "", false
}

// Number returns v as a float when it is numeric or a numeric string.
func Number(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case float64:
		return t, true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// Integral reports whether numeric v is written without a fractional part.
// Numbers and numeric strings count only when they carry no decimal point
// or exponent.
func Integral(v interface{}) bool {
	switch t := v.(type) {
	case json.Number:
		return !strings.ContainsAny(t.String(), ".eE")
	case string:
		t = strings.TrimSpace(t)
		if _, err := strconv.ParseFloat(t, 64); err != nil {
			return false
		}
		return !strings.ContainsAny(t, ".eE")
	case float64:
		return t == math.Trunc(t)
	case int, int64:
		return true
	}
	return false
}
