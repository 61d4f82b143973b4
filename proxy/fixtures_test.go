package proxy

import (
	"context"
	"testing"

	"github.com/goliatone/go-repository-proxy/metadata"
	"github.com/goliatone/go-repository-proxy/stats"
	"github.com/goliatone/go-repository-proxy/store/memstore"
)

func testDecls() []metadata.EntityDecl {
	return []metadata.EntityDecl{
		{
			Name:       "User",
			Attributes: []metadata.AttributeDecl{metadata.Attr("name")},
			Associations: []metadata.AssociationDecl{
				{Name: "address", Target: "Address", Cardinality: metadata.OneToOne, MappedBy: "user"},
				{Name: "orders", Target: "Order", Cardinality: metadata.OneToMany, MappedBy: "buyer"},
			},
		},
		{
			Name:       "Address",
			Attributes: []metadata.AttributeDecl{metadata.Attr("street"), metadata.Attr("city")},
			Associations: []metadata.AssociationDecl{
				{Name: "user", Target: "User", Cardinality: metadata.OneToOne, Owning: true, ForeignKey: "user_id"},
			},
		},
		{
			Name: "Order",
			Associations: []metadata.AssociationDecl{
				{Name: "customer", Target: "Customer", Cardinality: metadata.ManyToOne, Owning: true, ForeignKey: "customer_id"},
				{Name: "buyer", Target: "User", Cardinality: metadata.ManyToOne, Owning: true, ForeignKey: "buyer_id"},
			},
		},
		{Name: "Customer", Abstract: true, Inheritance: metadata.InheritanceTablePerClass},
		{Name: "DomesticCustomer", Parent: "Customer", Attributes: []metadata.AttributeDecl{metadata.Attr("name")}},
		{Name: "ForeignCustomer", Parent: "Customer", Attributes: []metadata.AttributeDecl{metadata.Attr("name"), metadata.Attr("country")}},
	}
}

// fixture seeds:
//
//	User(1, "Fab") <- Address(2, "Sancroft St", "London")
//	DomesticCustomer(2, "Acme"), ForeignCustomer(3, "Globex", "NL")
//	Order(1) -> customer 2, Order(5) -> customer 3, Order(6) -> no customer; all bought by user 1
type fixture struct {
	registry *metadata.Registry
	store    *memstore.Store
	stats    *stats.Statistics
	session  *Session
}

func newFixture(t *testing.T, opts ...metadata.Option) *fixture {
	t.Helper()

	registry, err := metadata.Build(testDecls(), opts...)
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	s := memstore.New()
	rows := []struct {
		entity string
		values map[string]any
	}{
		{"User", map[string]any{"id": 1, "name": "Fab"}},
		{"Address", map[string]any{"id": 2, "street": "Sancroft St", "city": "London", "user_id": 1}},
		{"DomesticCustomer", map[string]any{"id": 2, "name": "Acme"}},
		{"ForeignCustomer", map[string]any{"id": 3, "name": "Globex", "country": "NL"}},
		{"Order", map[string]any{"id": 1, "customer_id": 2, "buyer_id": 1}},
		{"Order", map[string]any{"id": 5, "customer_id": 3, "buyer_id": 1}},
		{"Order", map[string]any{"id": 6, "customer_id": nil, "buyer_id": 1}},
	}
	for _, row := range rows {
		if err := s.Insert(registry.MustEntity(row.entity), row.values); err != nil {
			t.Fatalf("seeding %s failed: %v", row.entity, err)
		}
	}

	statistics := stats.New()
	session := NewSession(context.Background(), registry, s, SessionOptions{Statistics: statistics})
	return &fixture{registry: registry, store: s, stats: statistics, session: session}
}

func (f *fixture) assertCount(t *testing.T, want int64, step string) {
	t.Helper()
	if got := f.stats.Count(); got != want {
		t.Errorf("%s: expected %d round trips, got %d", step, want, got)
	}
}

func mustGet(t *testing.T, ctx context.Context, e *Entity, name string) any {
	t.Helper()
	v, err := e.Get(ctx, name)
	if err != nil {
		t.Fatalf("Get(%q) on %s failed: %v", name, e, err)
	}
	return v
}
