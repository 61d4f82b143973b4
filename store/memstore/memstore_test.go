package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-repository-proxy/metadata"
	"github.com/goliatone/go-repository-proxy/store"
)

func testRegistry(t *testing.T) *metadata.Registry {
	t.Helper()
	r, err := metadata.Build([]metadata.EntityDecl{
		{Name: "User", Attributes: []metadata.AttributeDecl{metadata.Attr("name")}},
		{Name: "Address", Attributes: []metadata.AttributeDecl{metadata.Attr("street")},
			Associations: []metadata.AssociationDecl{
				{Name: "user", Target: "User", Cardinality: metadata.OneToOne, Owning: true, ForeignKey: "user_id"},
			}},
		{Name: "Customer", Abstract: true, Inheritance: metadata.InheritanceTablePerClass},
		{Name: "DomesticCustomer", Parent: "Customer", Attributes: []metadata.AttributeDecl{metadata.Attr("name")}},
		{Name: "ForeignCustomer", Parent: "Customer", Attributes: []metadata.AttributeDecl{metadata.Attr("name")}},
	})
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	return r
}

func TestStore_FetchByKey(t *testing.T) {
	r := testRegistry(t)
	s := New()
	user := r.MustEntity("User")

	if err := s.Insert(user, map[string]any{"id": 1, "name": "Fab"}); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	rec, err := s.FetchByKey(context.Background(), user, int64(1))
	if err != nil {
		t.Fatalf("FetchByKey() failed: %v", err)
	}
	if rec.Type != "User" || rec.Values["name"] != "Fab" || rec.Values["id"] != int64(1) {
		t.Errorf("unexpected record %+v", rec)
	}

	rec.Values["name"] = "mutated"
	again, _ := s.FetchByKey(context.Background(), user, 1)
	if again.Values["name"] != "Fab" {
		t.Error("records must be copies of the stored rows")
	}

	if _, err := s.FetchByKey(context.Background(), user, 99); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_PolymorphicFetchReportsConcreteType(t *testing.T) {
	r := testRegistry(t)
	s := New()

	if err := s.Insert(r.MustEntity("DomesticCustomer"), map[string]any{"id": 2, "name": "Acme"}); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}
	if err := s.Insert(r.MustEntity("ForeignCustomer"), map[string]any{"id": 3, "name": "Globex"}); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	rec, err := s.FetchByKey(context.Background(), r.MustEntity("Customer"), 2)
	if err != nil {
		t.Fatalf("FetchByKey() failed: %v", err)
	}
	if rec.Type != "DomesticCustomer" {
		t.Errorf("expected DomesticCustomer, got %s", rec.Type)
	}

	if err := s.Insert(r.MustEntity("ForeignCustomer"), map[string]any{"id": 2}); err == nil {
		t.Error("expected identifiers to be unique across the hierarchy")
	}
	if err := s.Insert(r.MustEntity("Customer"), map[string]any{"id": 4}); err == nil {
		t.Error("expected abstract inserts to be rejected")
	}
}

func TestStore_FetchByForeignKey(t *testing.T) {
	r := testRegistry(t)
	s := New()
	address := r.MustEntity("Address")

	_ = s.Insert(address, map[string]any{"id": 2, "street": "Sancroft St", "user_id": 1})
	_ = s.Insert(address, map[string]any{"id": 3, "street": "Other St", "user_id": 5})
	_ = s.Insert(address, map[string]any{"id": 4, "street": "Third St", "user_id": 5})

	rec, err := s.FetchByForeignKey(context.Background(), address, "user_id", int64(1))
	if err != nil {
		t.Fatalf("FetchByForeignKey() failed: %v", err)
	}
	if rec.Values["id"] != int64(2) {
		t.Errorf("expected address 2, got %v", rec.Values["id"])
	}

	if _, err := s.FetchByForeignKey(context.Background(), address, "user_id", 5); !errors.Is(err, store.ErrMultipleRows) {
		t.Errorf("expected ErrMultipleRows, got %v", err)
	}

	all, err := s.FetchAllByForeignKey(context.Background(), address, "user_id", 5)
	if err != nil {
		t.Fatalf("FetchAllByForeignKey() failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 records, got %d", len(all))
	}

	none, err := s.FetchAllByForeignKey(context.Background(), address, "user_id", 42)
	if err != nil || len(none) != 0 {
		t.Errorf("expected no records and no error, got %d, %v", len(none), err)
	}
}

func TestStore_FailuresAreUnavailable(t *testing.T) {
	r := testRegistry(t)
	s := New()
	user := r.MustEntity("User")
	_ = s.Insert(user, map[string]any{"id": 1})

	s.FailWith(errors.New("connection reset"))
	_, err := s.FetchByKey(context.Background(), user, 1)
	if !store.IsUnavailable(err) {
		t.Fatalf("expected StoreUnavailableError, got %v", err)
	}

	s.FailWith(nil)
	if _, err := s.FetchByKey(context.Background(), user, 1); err != nil {
		t.Fatalf("expected recovery, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.FetchByKey(ctx, user, 1); !store.IsUnavailable(err) || !errors.Is(err, context.Canceled) {
		t.Errorf("expected cancelled context to surface as unavailable, got %v", err)
	}
}

func TestStore_Delete(t *testing.T) {
	r := testRegistry(t)
	s := New()
	user := r.MustEntity("User")
	_ = s.Insert(user, map[string]any{"id": 1})

	if !s.Delete(user, 1) {
		t.Fatal("expected Delete to report a removed row")
	}
	if s.Delete(user, 1) {
		t.Error("expected second Delete to find nothing")
	}
	if _, err := s.FetchByKey(context.Background(), user, 1); !store.IsNotFound(err) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
