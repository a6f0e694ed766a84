package engine

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestFilterDescriptor_MapRoundTrip(t *testing.T) {
	in := FilterDescriptor{
		Name:         "category",
		Type:         FilterRelation,
		Label:        "Category",
		Operator:     OpLike,
		SearchFields: []string{"name", "slug"},
		Priority:     5,
		Enabled:      true,
	}
	out, err := FilterDescriptorFromMap(in.Name, in.ToMap())
	if err != nil {
		t.Fatalf("from map: %v", err)
	}
	if out.Type != in.Type || out.Operator != in.Operator || out.Priority != in.Priority {
		t.Fatalf("round trip changed descriptor: %+v", out)
	}
	if !reflect.DeepEqual(out.SearchFields, in.SearchFields) {
		t.Fatalf("search fields: got %v", out.SearchFields)
	}
	if out.Enum != nil {
		t.Fatalf("unexpected enum options %+v", out.Enum)
	}
}

func TestFilterDescriptor_ShowAllOptionOmittedByDefault(t *testing.T) {
	f := FilterDescriptor{
		Name:     "status",
		Type:     FilterEnum,
		Operator: OpIn,
		Priority: DefaultFilterPriority,
		Enum:     &EnumOptions{Values: []string{"active", "inactive"}, ShowAllOption: true, Multiple: true},
	}
	opts := f.ToMap()["enum_options"].(map[string]any)
	if _, ok := opts["show_all_option"]; ok {
		t.Fatal("show_all_option=true must be omitted")
	}

	f.Enum.ShowAllOption = false
	opts = f.ToMap()["enum_options"].(map[string]any)
	if v, ok := opts["show_all_option"]; !ok || v != false {
		t.Fatalf("show_all_option=false must be present, got %v", opts)
	}

	// survive a JSON hop, as the rendering layer sees it
	raw, err := json.Marshal(f.ToMap())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	out, err := FilterDescriptorFromMap("status", m)
	if err != nil {
		t.Fatalf("from map: %v", err)
	}
	if !reflect.DeepEqual(out.Enum, f.Enum) {
		t.Fatalf("enum options: got %+v, want %+v", out.Enum, f.Enum)
	}
	if out.Priority != DefaultFilterPriority || out.Operator != OpIn || out.Type != FilterEnum {
		t.Fatalf("unexpected descriptor %+v", out)
	}
}

func TestFilterDescriptorFromMap_Rejects(t *testing.T) {
	if _, err := FilterDescriptorFromMap("x", map[string]any{"operator": "="}); err == nil {
		t.Fatal("expected error for missing type")
	}
	if _, err := FilterDescriptorFromMap("x", map[string]any{"type": "text", "operator": "~"}); err == nil {
		t.Fatal("expected error for unknown operator")
	}
}

func TestFiltersWithout(t *testing.T) {
	fs := Filters{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	got := fs.Without(map[string]bool{"b": true}).Names()
	if !reflect.DeepEqual(got, []string{"a", "c"}) {
		t.Fatalf("got %v", got)
	}
}
