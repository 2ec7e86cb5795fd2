package engine

import "testing"

const sampleTree = `{
	"contents": {
		"items": [
			{"videoRenderer": {"videoId": "abc123", "lengthSeconds": "212"}},
			{"other": null},
			{"count": 42}
		]
	}
}`

func TestNodeAt(t *testing.T) {
	n := Parse([]byte(sampleTree))

	got := n.At("contents", "items", 0, "videoRenderer", "videoId").Str()
	if got != "abc123" {
		t.Errorf("videoId = %q, want abc123", got)
	}
}

func TestNodeAbsentPaths(t *testing.T) {
	n := Parse([]byte(sampleTree))

	cases := []struct {
		name string
		node Node
	}{
		{"missing key", n.At("contents", "nope")},
		{"index out of range", n.At("contents", "items", 9)},
		{"key on array", n.At("contents", "items", "key")},
		{"index on object", n.At("contents", 0)},
		{"null value", n.At("contents", "items", 1, "other")},
		{"deep past absent", n.At("a", "b", "c", 0, "d")},
	}
	for _, tc := range cases {
		if tc.node.Exists() {
			t.Errorf("%s: expected absent node", tc.name)
		}
		if tc.node.Str() != "" {
			t.Errorf("%s: Str() = %q, want empty", tc.name, tc.node.Str())
		}
	}
}

func TestNodeInt64(t *testing.T) {
	n := Parse([]byte(sampleTree))

	if got := n.At("contents", "items", 2, "count").Int64(); got != 42 {
		t.Errorf("number Int64 = %d, want 42", got)
	}
	// numeric string form
	if got := n.At("contents", "items", 0, "videoRenderer", "lengthSeconds").Int64(); got != 212 {
		t.Errorf("string Int64 = %d, want 212", got)
	}
	if got := n.At("contents", "items", 0, "videoRenderer", "videoId").Int64(); got != 0 {
		t.Errorf("non-numeric Int64 = %d, want 0", got)
	}
}

func TestNodeArr(t *testing.T) {
	n := Parse([]byte(sampleTree))

	items := n.At("contents", "items").Arr()
	if len(items) != 3 {
		t.Fatalf("len(items) = %d, want 3", len(items))
	}
	if arr := n.At("contents").Arr(); arr != nil {
		t.Errorf("Arr on object should be nil, got %d elements", len(arr))
	}
}

func TestParseMalformed(t *testing.T) {
	n := Parse([]byte("var ytInitialData = {"))
	if n.Key("anything").Exists() {
		t.Error("expected no children for malformed input")
	}
}
