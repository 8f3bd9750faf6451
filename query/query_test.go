package query

import (
	"testing"

	"github.com/bedquiltdb/bedquilt/value"
)

func mustValue(t *testing.T, json string) value.Value {
	t.Helper()
	v, err := value.FromJSON([]byte(json))
	if err != nil {
		t.Fatalf("FromJSON(%s): %v", json, err)
	}
	return v
}

func compileAndMatch(t *testing.T, query, doc string) bool {
	t.Helper()
	q, err := Compile(mustValue(t, query))
	if err != nil {
		t.Fatalf("Compile(%s): %v", query, err)
	}
	return q.Match(mustValue(t, doc))
}

func TestStructuralMatch(t *testing.T) {
	tests := []struct {
		name, query, doc string
		want             bool
	}{
		{"exact scalar match", `{"name":"bob"}`, `{"name":"bob","age":5}`, true},
		{"scalar mismatch", `{"name":"bob"}`, `{"name":"sue"}`, false},
		{"missing field", `{"name":"bob"}`, `{"age":5}`, false},
		{"nested object partial match", `{"address":{"city":"nyc"}}`, `{"address":{"city":"nyc","zip":"10001"}}`, true},
		{"nested object mismatch", `{"address":{"city":"nyc"}}`, `{"address":{"city":"la"}}`, false},
		{"number equal across representation", `{"n":1}`, `{"n":1.0}`, true},
		{"empty query matches anything", `{}`, `{"a":1}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compileAndMatch(t, tt.query, tt.doc); got != tt.want {
				t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestOperatorClauses(t *testing.T) {
	tests := []struct {
		name, query, doc string
		want             bool
	}{
		{"$eq", `{"age":{"$eq":5}}`, `{"age":5}`, true},
		{"$noteq present unequal", `{"age":{"$noteq":5}}`, `{"age":6}`, true},
		{"$noteq absent", `{"age":{"$noteq":5}}`, `{}`, true},
		{"$gt true", `{"age":{"$gt":5}}`, `{"age":6}`, true},
		{"$gt false", `{"age":{"$gt":5}}`, `{"age":5}`, false},
		{"$gte boundary", `{"age":{"$gte":5}}`, `{"age":5}`, true},
		{"$lt", `{"age":{"$lt":5}}`, `{"age":4}`, true},
		{"$lte", `{"age":{"$lte":5}}`, `{"age":5}`, true},
		{"$in hit", `{"color":{"$in":["red","blue"]}}`, `{"color":"blue"}`, true},
		{"$in miss", `{"color":{"$in":["red","blue"]}}`, `{"color":"green"}`, false},
		{"$notin absent", `{"color":{"$notin":["red"]}}`, `{}`, true},
		{"$exists true present", `{"color":{"$exists":true}}`, `{"color":"red"}`, true},
		{"$exists true absent", `{"color":{"$exists":true}}`, `{}`, false},
		{"$exists false absent", `{"color":{"$exists":false}}`, `{}`, true},
		{"$type number", `{"age":{"$type":"number"}}`, `{"age":5}`, true},
		{"$type mismatch", `{"age":{"$type":"string"}}`, `{"age":5}`, false},
		{"$type null on absent", `{"age":{"$type":"null"}}`, `{}`, false},
		{"$type null on explicit null", `{"age":{"$type":"null"}}`, `{"age":null}`, true},
		{"$like wildcard", `{"name":{"$like":"b_b%"}}`, `{"name":"bob"}`, true},
		{"$like mismatch", `{"name":{"$like":"b_b%"}}`, `{"name":"sue"}`, false},
		{"$regex", `{"name":{"$regex":"^b.b$"}}`, `{"name":"bob"}`, true},
		{"mixed leaf with operator and structural sibling", `{"address":{"city":"nyc","zip":{"$exists":true}}}`, `{"address":{"city":"nyc","zip":"10001"}}`, true},
		{"dotted comparison across ordered compare undefined for mismatched kinds", `{"age":{"$gt":"5"}}`, `{"age":5}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compileAndMatch(t, tt.query, tt.doc); got != tt.want {
				t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestTopLevelAndOr(t *testing.T) {
	tests := []struct {
		name, query, doc string
		want             bool
	}{
		{"$and both true", `{"$and":[{"a":1},{"b":2}]}`, `{"a":1,"b":2}`, true},
		{"$and one false", `{"$and":[{"a":1},{"b":3}]}`, `{"a":1,"b":2}`, false},
		{"$or one true", `{"$or":[{"a":1},{"b":3}]}`, `{"a":1,"b":2}`, true},
		{"$or none true", `{"$or":[{"a":9},{"b":3}]}`, `{"a":1,"b":2}`, false},
		{"$and alongside plain field", `{"c":7,"$and":[{"a":1}]}`, `{"a":1,"c":7}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compileAndMatch(t, tt.query, tt.doc); got != tt.want {
				t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	tests := []string{
		`{"a":{"$bogus":1}}`,
		`{"a":{"$in":1}}`,
		`{"a":{"$exists":1}}`,
		`{"a":{"$type":"bogus"}}`,
		`{"$and":{}}`,
		`{"a":{"$regex":"("}}`,
	}
	for _, q := range tests {
		if _, err := Compile(mustValue(t, q)); err == nil {
			t.Errorf("Compile(%s): expected error, got nil", q)
		}
	}
}

func TestSortMultiKeyWithSyntheticAndAbsent(t *testing.T) {
	spec := mustValue(t, `[{"score":-1},{"name":1}]`)
	cs, err := CompileSort(spec)
	if err != nil {
		t.Fatalf("CompileSort: %v", err)
	}

	a := Doc{Body: mustValue(t, `{"score":5,"name":"bob"}`), Created: "2020-01-01T00:00:00Z"}
	b := Doc{Body: mustValue(t, `{"score":5,"name":"amy"}`), Created: "2020-01-02T00:00:00Z"}
	c := Doc{Body: mustValue(t, `{"name":"zed"}`), Created: "2020-01-03T00:00:00Z"}

	if cs.Compare(a, b) <= 0 {
		t.Errorf("expected amy before bob on tie-break name ascending, a vs b: %d", cs.Compare(a, b))
	}
	// c has no score: a missing key always sorts after any present value,
	// regardless of direction, so c sorts last under descending score too.
	if cs.Compare(a, c) >= 0 {
		t.Errorf("expected doc with score to sort before doc with absent score: %d", cs.Compare(a, c))
	}

	synthSpec := mustValue(t, `[{"$created":1}]`)
	cs2, err := CompileSort(synthSpec)
	if err != nil {
		t.Fatalf("CompileSort synthetic: %v", err)
	}
	if cs2.Compare(a, b) >= 0 {
		t.Errorf("expected a (created earlier) to sort before b")
	}
}

func TestLikeWildcardTranslation(t *testing.T) {
	tests := []struct {
		pattern, s string
		want       bool
	}{
		{"a%", "abc", true},
		{"a%", "xabc", false},
		{"_bc", "abc", true},
		{"_bc", "abcd", false},
		{`100\%`, "100%", true},
		{`100\%`, "100x", false},
	}
	for _, tt := range tests {
		re, err := compileLike(tt.pattern)
		if err != nil {
			t.Fatalf("compileLike(%s): %v", tt.pattern, err)
		}
		if got := re.MatchString(tt.s); got != tt.want {
			t.Errorf("compileLike(%s).MatchString(%s) = %v, want %v", tt.pattern, tt.s, got, tt.want)
		}
	}
}
