package point

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestValueUnmarshalVariants(t *testing.T) {
	raw := `{
		"text": "The cat sat.",
		"tag": "h1",
		"weight": 1.5,
		"draft": false,
		"sections": ["docs", "faq"],
		"meta": {"lang": "en"},
		"missing": null
	}`

	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	if text, ok := p.Text(); !ok || text != "The cat sat." {
		t.Errorf("Text() = %q, %v", text, ok)
	}
	if n, ok := p["weight"].AsNumber(); !ok || n != 1.5 {
		t.Errorf("weight = %v, %v", n, ok)
	}
	if b, ok := p["draft"].AsBool(); !ok || b {
		t.Errorf("draft = %v, %v", b, ok)
	}
	if list, ok := p["sections"].AsList(); !ok || len(list) != 2 {
		t.Errorf("sections = %v, %v", list, ok)
	}
	if m, ok := p["meta"].AsMap(); !ok || len(m) != 1 {
		t.Errorf("meta = %v, %v", m, ok)
	}
	if p["missing"].Kind() != KindNull {
		t.Errorf("missing kind = %v, want null", p["missing"].Kind())
	}
}

func TestValueMarshalRoundTrip(t *testing.T) {
	p := Payload{
		"text":     String("hello"),
		"count":    Number(3),
		"sections": List(String("a"), String("b")),
	}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Payload
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(p, back) {
		t.Errorf("round trip mismatch: %v vs %v", p, back)
	}
}

func TestPayloadTextMissingOrWrongKind(t *testing.T) {
	if _, ok := (Payload{}).Text(); ok {
		t.Error("empty payload must have no text")
	}
	p := Payload{"text": Number(5)}
	if _, ok := p.Text(); ok {
		t.Error("numeric text field must not be treated as text")
	}
}

func TestPayloadKeysSorted(t *testing.T) {
	p := Payload{"c": Null(), "a": Null(), "b": Null()}
	want := []string{"a", "b", "c"}
	if got := p.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}
