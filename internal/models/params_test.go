package models

import (
	"encoding/json"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestParamMapJSONRoundTripPreservesOrder(t *testing.T) {
	in := `{"zeta":"last","alpha":1,"flag":true,"empty":null}`
	var pm ParamMap
	if err := json.Unmarshal([]byte(in), &pm); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(pm) != 4 {
		t.Fatalf("want 4 fields, got %d", len(pm))
	}
	if pm[0].Key != "zeta" || pm[1].Key != "alpha" || pm[2].Key != "flag" || pm[3].Key != "empty" {
		t.Fatalf("key order not preserved: %+v", pm)
	}

	out, err := json.Marshal(pm)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != in {
		t.Fatalf("round trip changed serialization:\n in: %s\nout: %s", in, out)
	}
}

func TestParamMapRejectsNestedValues(t *testing.T) {
	var pm ParamMap
	if err := json.Unmarshal([]byte(`{"meta":{"nested":1}}`), &pm); err == nil {
		t.Fatalf("nested object should be rejected")
	}
	if err := json.Unmarshal([]byte(`{"list":[1,2]}`), &pm); err == nil {
		t.Fatalf("array value should be rejected")
	}
}

func TestParamMapBSONRoundTrip(t *testing.T) {
	pm := ParamMap{
		{Key: "difficulty", Value: StringParam("easy")},
		{Key: "weight", Value: NumberParam(2)},
		{Key: "scored", Value: BoolParam(false)},
		{Key: "note", Value: NullParam()},
	}
	data, err := bson.Marshal(pm)
	if err != nil {
		t.Fatalf("bson marshal: %v", err)
	}

	var got ParamMap
	if err := bson.Unmarshal(data, &got); err != nil {
		t.Fatalf("bson unmarshal: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("want 4 fields, got %+v", got)
	}
	for i, f := range pm {
		if got[i].Key != f.Key || got[i].Value.Kind != f.Value.Kind {
			t.Fatalf("field %d differs: want %+v, got %+v", i, f, got[i])
		}
	}
	if v, _ := got.Get("weight"); v.Num != 2 {
		t.Fatalf("weight: want 2, got %v", v.Num)
	}
}

func TestQuestionSerializesOptionalFieldsAsNullOrAbsent(t *testing.T) {
	q := Question{
		Question:     "2+2=?",
		Type:         "short",
		QuestionSlug: "2-plus-2",
	}
	out, err := json.Marshal(q)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if string(m["answer"]) != "null" {
		t.Fatalf("unset answer should serialize as null, got %s", m["answer"])
	}
	if _, ok := m["reference_id"]; ok {
		t.Fatalf("unset reference_id should be omitted")
	}
	if _, ok := m["hint"]; ok {
		t.Fatalf("unset hint should be omitted")
	}
}
