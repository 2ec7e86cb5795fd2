package engine

import (
	"encoding/json"
	"strconv"
)

// Node is a view over one value of a semi-structured JSON response tree.
// The remote API gives no schema stability guarantee, and the shape of a
// response differs between an initial page and a continuation page, so every
// accessor tolerates absence and type mismatch: a bad path yields a zero Node
// and zero values, letting extraction code chain lookups without intermediate
// checks.
type Node struct {
	raw json.RawMessage
}

// Parse wraps raw response bytes as a Node. The bytes are not validated up
// front; decode errors surface as absent values during traversal.
func Parse(data []byte) Node {
	return Node{raw: json.RawMessage(data)}
}

// Exists reports whether the node holds a value other than absent or null.
func (n Node) Exists() bool {
	if len(n.raw) == 0 {
		return false
	}
	return string(n.raw) != "null"
}

// Raw returns the underlying bytes, nil for an absent node.
func (n Node) Raw() json.RawMessage {
	return n.raw
}

// Key returns the child under name when the node is an object.
func (n Node) Key(name string) Node {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(n.raw, &obj); err != nil {
		return Node{}
	}
	return Node{raw: obj[name]}
}

// Arr returns the node's elements when it is an array, nil otherwise.
func (n Node) Arr() []Node {
	var arr []json.RawMessage
	if err := json.Unmarshal(n.raw, &arr); err != nil {
		return nil
	}
	out := make([]Node, len(arr))
	for i, raw := range arr {
		out[i] = Node{raw: raw}
	}
	return out
}

// Index returns the i-th element when the node is an array.
func (n Node) Index(i int) Node {
	arr := n.Arr()
	if i < 0 || i >= len(arr) {
		return Node{}
	}
	return arr[i]
}

// At walks a path of string keys and int indexes, absent-tolerant at every
// level.
func (n Node) At(path ...any) Node {
	cur := n
	for _, p := range path {
		switch v := p.(type) {
		case string:
			cur = cur.Key(v)
		case int:
			cur = cur.Index(v)
		default:
			return Node{}
		}
	}
	return cur
}

// Str returns the node's string value, "" when it is not a string.
func (n Node) Str() string {
	var s string
	if err := json.Unmarshal(n.raw, &s); err != nil {
		return ""
	}
	return s
}

// Int64 returns the node's integer value. The API encodes some counters as
// JSON numbers and others as numeric strings; both are accepted.
func (n Node) Int64() int64 {
	var i int64
	if err := json.Unmarshal(n.raw, &i); err == nil {
		return i
	}
	if s := n.Str(); s != "" {
		if v, err := strconv.ParseInt(s, 10, 64); err == nil {
			return v
		}
	}
	return 0
}
