package value

import "testing"

func TestEqualNumberByValue(t *testing.T) {
	a, _ := FromJSON([]byte(`1`))
	b, _ := FromJSON([]byte(`1.0`))
	if !Equal(a, b) {
		t.Errorf("expected 1 == 1.0 by numeric value")
	}
}

func TestEqualObjectOrderIndependent(t *testing.T) {
	a, _ := FromJSON([]byte(`{"a":1,"b":2}`))
	b, _ := FromJSON([]byte(`{"b":2,"a":1}`))
	if !Equal(a, b) {
		t.Errorf("expected objects with same keys/values but different order to be equal")
	}
}

func TestTypeNames(t *testing.T) {
	tests := []struct {
		json string
		want string
	}{
		{`null`, "null"},
		{`true`, "boolean"},
		{`1`, "number"},
		{`"s"`, "string"},
		{`[1]`, "array"},
		{`{}`, "object"},
	}
	for _, tt := range tests {
		v, err := FromJSON([]byte(tt.json))
		if err != nil {
			t.Fatalf("FromJSON(%s): %v", tt.json, err)
		}
		if got := v.Kind().TypeName(); got != tt.want {
			t.Errorf("Kind().TypeName() for %s = %q, want %q", tt.json, got, tt.want)
		}
	}
}

func TestResolveAbsentVsNull(t *testing.T) {
	doc, _ := FromJSON([]byte(`{"a":null,"nested":{"x":1}}`))

	v, ok := ResolveDotted(doc, "a")
	if !ok || !v.IsNull() {
		t.Errorf("a should resolve present and null")
	}

	_, ok = ResolveDotted(doc, "missing")
	if ok {
		t.Errorf("missing key should be absent")
	}

	_, ok = ResolveDotted(doc, "nested.y")
	if ok {
		t.Errorf("nested.y should be absent")
	}

	v, ok = ResolveDotted(doc, "nested.x")
	if !ok || v.Number() != "1" {
		t.Errorf("nested.x should resolve to 1")
	}

	_, ok = ResolveDotted(doc, "a.b")
	if ok {
		t.Errorf("path through null should be absent, not panic")
	}
}

func TestCompareCrossType(t *testing.T) {
	n, _ := FromJSON([]byte(`1`))
	s, _ := FromJSON([]byte(`"a"`))
	if Compare(n, s) >= 0 {
		t.Errorf("number should sort before string")
	}
	if Compare(Null, Bool(false)) >= 0 {
		t.Errorf("null should sort before boolean")
	}
}

func TestMarshalPreservesKeyOrder(t *testing.T) {
	v, _ := FromJSON([]byte(`{"z":1,"a":2,"m":3}`))
	b, err := v.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	want := `{"z":1,"a":2,"m":3}`
	if string(b) != want {
		t.Errorf("MarshalJSON = %s, want %s", b, want)
	}
}
