package metadata

import (
	"encoding/json"
	"testing"
)

const sampleSchema = `
entities:
  - name: shop.Product
    table: products
    label: Products
    icon: box
    primary_key: {field: id, type: int, generated: true}
    fields:
      - {name: id, type: int}
      - {name: name, type: string}
      - {name: status, type: enum, enum: [active, inactive]}
      - {name: cost, type: decimal, capability: finance}
      - {name: category_id, type: int}
    associations:
      - {name: category, target: Category, foreign_key: category_id}
      - {name: reviews, target: Review, collection: true, target_key: product_id}
    admin:
      default_sort_by: id
      default_sort_direction: desc
      page_size: 50
      filterable: []
  - name: Category
    table: categories
    primary_key: {field: id, type: int}
    fields:
      - {name: id, type: int}
`

func TestParseSchema(t *testing.T) {
	entities, err := ParseSchema([]byte(sampleSchema))
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	if len(entities) != 2 {
		t.Fatalf("expected 2 entities, got %d", len(entities))
	}
	p := entities[0]
	if p.ShortName() != "Product" {
		t.Fatalf("expected short name Product, got %s", p.ShortName())
	}
	if !p.IsManaged() || entities[1].IsManaged() {
		t.Fatal("expected only Product to be managed")
	}
	if p.Admin.SortDirection() != "DESC" {
		t.Fatalf("expected DESC, got %s", p.Admin.SortDirection())
	}
	if p.Admin.Filterable == nil || len(*p.Admin.Filterable) != 0 {
		t.Fatal("expected explicit empty filterable list to survive decoding")
	}
	if !p.GetField("status").IsEnum() {
		t.Fatal("expected status to be an enum")
	}
	caps := p.ColumnCapabilities()
	if caps["cost"] != "finance" || len(caps) != 1 {
		t.Fatalf("unexpected capabilities: %v", caps)
	}
}

func TestParseSchema_RejectsUnsafeTable(t *testing.T) {
	doc := `
entities:
  - name: Bad
    table: "users; DROP TABLE users"
    primary_key: {field: id}
    fields: [{name: id, type: int}]
`
	if _, err := ParseSchema([]byte(doc)); err == nil {
		t.Fatal("expected validation error for unsafe table name")
	}
}

func TestValidate_AssociationForeignKey(t *testing.T) {
	e := &Entity{
		Name: "Order", Table: "orders",
		PrimaryKey:   PrimaryKey{Field: "id"},
		Fields:       []Field{{Name: "id", Type: "int"}},
		Associations: []Association{{Name: "customer", Target: "Customer", ForeignKey: "customer_id"}},
	}
	if err := Validate(e); err == nil {
		t.Fatal("expected error for missing foreign key field")
	}
	e.Fields = append(e.Fields, Field{Name: "customer_id", Type: "int"})
	if err := Validate(e); err != nil {
		t.Fatalf("expected valid entity, got %v", err)
	}
}

func TestValidate_TargetKeyMustBeIdentifier(t *testing.T) {
	for _, collection := range []bool{false, true} {
		e := &Entity{
			Name: "Order", Table: "orders",
			PrimaryKey: PrimaryKey{Field: "id"},
			Fields:     []Field{{Name: "id", Type: "int"}, {Name: "customer_id", Type: "int"}},
			Associations: []Association{{
				Name: "customer", Target: "Customer", ForeignKey: "customer_id",
				Collection: collection, TargetKey: "id OR 1=1; DROP TABLE items --",
			}},
		}
		if err := Validate(e); err == nil {
			t.Fatalf("collection=%v: unsafe target key accepted", collection)
		}
		e.Associations[0].TargetKey = "code"
		if err := Validate(e); err != nil {
			t.Fatalf("collection=%v: expected valid entity, got %v", collection, err)
		}
	}
}

func TestRegistry_LoadAndLookup(t *testing.T) {
	reg := NewRegistry()
	reg.Load([]*Entity{
		{Name: "shop.Product", Table: "products", Admin: &AdminConfig{}},
		{Name: "Category", Table: "categories"},
	})

	if reg.GetEntity("shop.Product") == nil {
		t.Fatal("expected lookup by full name")
	}
	if reg.GetEntity("Product") == nil {
		t.Fatal("expected lookup by short name")
	}
	if reg.GetEntity("missing") != nil {
		t.Fatal("expected nil for unknown entity")
	}
	all := reg.AllEntities()
	if len(all) != 2 || all[0].Name != "Category" {
		t.Fatalf("expected name-ordered entities, got %v", all)
	}
	if managed := reg.ManagedEntities(); len(managed) != 1 || managed[0].Table != "products" {
		t.Fatalf("expected only products managed, got %v", managed)
	}
}

func TestAdminConfig_Supports(t *testing.T) {
	var none *AdminConfig
	if !none.Supports(ActionBatchDelete) {
		t.Fatal("nil config should support every action")
	}
	if none.Supports("publish") {
		t.Fatal("unknown action must not be supported")
	}

	off := false
	cfg := &AdminConfig{BatchActions: &off}
	if cfg.Supports(ActionBatchDelete) {
		t.Fatal("batch delete must follow the batch-actions toggle")
	}

	cfg = &AdminConfig{Actions: []string{ActionIndex, ActionBatchDelete}}
	if cfg.Supports(ActionBatchDelete) {
		t.Fatal("batch delete requires delete")
	}
	if !cfg.Supports(ActionIndex) || cfg.Supports(ActionShow) {
		t.Fatal("explicit action list must be honored")
	}
}

func TestFilterOverride_JSONKeepsExplicitFalse(t *testing.T) {
	raw := `{"name":"status","type":"string","filter":{"enabled":false,"priority":0}}`
	var f Field
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if f.Filter == nil || f.Filter.Enabled == nil || *f.Filter.Enabled {
		t.Fatal("expected enabled=false to be kept")
	}
	if f.Filter.Priority == nil || *f.Filter.Priority != 0 {
		t.Fatal("expected explicit priority 0 to be kept")
	}
}

func TestUserContext_Key(t *testing.T) {
	a := &UserContext{ID: "1", Roles: []string{"Editor", "admin"}}
	b := &UserContext{ID: "2", Roles: []string{"admin", "editor"}}
	if a.Key() != b.Key() {
		t.Fatalf("expected equal keys, got %q and %q", a.Key(), b.Key())
	}
	var nobody *UserContext
	if nobody.IsAdmin() || nobody.Key() != "" {
		t.Fatal("nil user has no roles")
	}
}
