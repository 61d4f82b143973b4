package bunstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-repository-proxy/metadata"
	"github.com/goliatone/go-repository-proxy/stats"
	"github.com/goliatone/go-repository-proxy/store"
)

var schema = []string{
	`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT)`,
	`CREATE TABLE addresses (id INTEGER PRIMARY KEY, street TEXT, user_id INTEGER)`,
	`CREATE TABLE domestic_customers (id INTEGER PRIMARY KEY, name TEXT)`,
	`CREATE TABLE foreign_customers (id INTEGER PRIMARY KEY, name TEXT, country TEXT)`,
	`CREATE TABLE payments (id INTEGER PRIMARY KEY, dtype TEXT, amount INTEGER, card_number TEXT, iban TEXT)`,
}

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
		{Name: "ForeignCustomer", Parent: "Customer", Attributes: []metadata.AttributeDecl{metadata.Attr("name"), metadata.Attr("country")}},
		{Name: "Payment", Inheritance: metadata.InheritanceSingleTable, DiscriminatorValue: "payment",
			Attributes: []metadata.AttributeDecl{metadata.Attr("amount")}},
		{Name: "CardPayment", Parent: "Payment", DiscriminatorValue: "card",
			Attributes: []metadata.AttributeDecl{metadata.Attr("cardNumber")}},
		{Name: "WirePayment", Parent: "Payment", DiscriminatorValue: "wire",
			Attributes: []metadata.AttributeDecl{metadata.Attr("iban")}},
	})
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	return r
}

func openTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DSN = fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))

	client, err := Open(cfg, nil)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })

	ctx := context.Background()
	for _, ddl := range schema {
		if _, err := client.DB().ExecContext(ctx, ddl); err != nil {
			t.Fatalf("schema setup failed: %v", err)
		}
	}
	return client
}

func TestClient_FetchByKey(t *testing.T) {
	r := testRegistry(t)
	client := openTestClient(t)
	ctx := context.Background()
	user := r.MustEntity("User")

	if err := client.Insert(ctx, user, map[string]any{"id": 1, "name": "Fab"}); err != nil {
		t.Fatalf("Insert() failed: %v", err)
	}

	rec, err := client.FetchByKey(ctx, user, 1)
	if err != nil {
		t.Fatalf("FetchByKey() failed: %v", err)
	}
	if rec.Type != "User" {
		t.Errorf("expected User, got %s", rec.Type)
	}
	if rec.Values["id"] != int64(1) || rec.Values["name"] != "Fab" {
		t.Errorf("unexpected values %v", rec.Values)
	}
	if _, ok := rec.Values[typeColumn]; ok {
		t.Error("the type column must not leak into record values")
	}

	if _, err := client.FetchByKey(ctx, user, 42); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClient_FetchByForeignKey(t *testing.T) {
	r := testRegistry(t)
	client := openTestClient(t)
	ctx := context.Background()
	address := r.MustEntity("Address")

	_ = client.Insert(ctx, address, map[string]any{"id": 2, "street": "Sancroft St", "user_id": 1})
	_ = client.Insert(ctx, address, map[string]any{"id": 3, "street": "Other St", "user_id": 7})
	_ = client.Insert(ctx, address, map[string]any{"id": 4, "street": "Third St", "user_id": 7})

	rec, err := client.FetchByForeignKey(ctx, address, "user_id", int64(1))
	if err != nil {
		t.Fatalf("FetchByForeignKey() failed: %v", err)
	}
	if rec.Values["id"] != int64(2) || rec.Values["street"] != "Sancroft St" {
		t.Errorf("unexpected values %v", rec.Values)
	}

	if _, err := client.FetchByForeignKey(ctx, address, "user_id", 7); !errors.Is(err, store.ErrMultipleRows) {
		t.Errorf("expected ErrMultipleRows, got %v", err)
	}

	all, err := client.FetchAllByForeignKey(ctx, address, "user_id", 7)
	if err != nil {
		t.Fatalf("FetchAllByForeignKey() failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 rows, got %d", len(all))
	}
}

func TestClient_TablePerClassUnion(t *testing.T) {
	r := testRegistry(t)
	client := openTestClient(t)
	ctx := context.Background()

	_ = client.Insert(ctx, r.MustEntity("DomesticCustomer"), map[string]any{"id": 2, "name": "Acme"})
	_ = client.Insert(ctx, r.MustEntity("ForeignCustomer"), map[string]any{"id": 3, "name": "Globex", "country": "NL"})

	customer := r.MustEntity("Customer")
	tests := []struct {
		id       int64
		wantType string
		wantName string
	}{
		{2, "DomesticCustomer", "Acme"},
		{3, "ForeignCustomer", "Globex"},
	}
	for _, tt := range tests {
		rec, err := client.FetchByKey(ctx, customer, tt.id)
		if err != nil {
			t.Fatalf("FetchByKey(%d) failed: %v", tt.id, err)
		}
		if rec.Type != tt.wantType {
			t.Errorf("FetchByKey(%d) type = %s, want %s", tt.id, rec.Type, tt.wantType)
		}
		if rec.Values["name"] != tt.wantName {
			t.Errorf("FetchByKey(%d) name = %v, want %s", tt.id, rec.Values["name"], tt.wantName)
		}
	}
}

func TestClient_UnmappedColumn(t *testing.T) {
	r := testRegistry(t)
	client := openTestClient(t)
	sink := stats.New()
	counted := store.WithAccounting(client, sink)
	ctx := context.Background()

	_, err := counted.FetchByForeignKey(ctx, r.MustEntity("Customer"), "owner_id", 1)
	if !errors.Is(err, store.ErrUnmappedColumn) {
		t.Fatalf("expected ErrUnmappedColumn, got %v", err)
	}
	if _, err := counted.FetchAllByForeignKey(ctx, r.MustEntity("Customer"), "owner_id", 1); !errors.Is(err, store.ErrUnmappedColumn) {
		t.Fatalf("expected ErrUnmappedColumn, got %v", err)
	}
	if sink.Count() != 0 {
		t.Errorf("expected no round trip to be counted, got %d", sink.Count())
	}
}

func TestClient_SingleTableDiscriminator(t *testing.T) {
	r := testRegistry(t)
	client := openTestClient(t)
	ctx := context.Background()

	_ = client.Insert(ctx, r.MustEntity("CardPayment"), map[string]any{"id": 1, "amount": 10, "card_number": "4111"})
	_ = client.Insert(ctx, r.MustEntity("WirePayment"), map[string]any{"id": 2, "amount": 20, "iban": "NL00"})

	rec, err := client.FetchByKey(ctx, r.MustEntity("Payment"), 2)
	if err != nil {
		t.Fatalf("FetchByKey() failed: %v", err)
	}
	if rec.Type != "WirePayment" {
		t.Errorf("expected WirePayment, got %s", rec.Type)
	}
	if _, ok := rec.Values["dtype"]; ok {
		t.Error("the discriminator column must not leak into record values")
	}

	// A subtype query never sees sibling rows.
	if _, err := client.FetchByKey(ctx, r.MustEntity("CardPayment"), 2); !store.IsNotFound(err) {
		t.Errorf("expected ErrNotFound for a sibling row, got %v", err)
	}
}

func TestClient_ClosedDatabaseIsUnavailable(t *testing.T) {
	r := testRegistry(t)
	client := openTestClient(t)
	_ = client.Close()

	_, err := client.FetchByKey(context.Background(), r.MustEntity("User"), 1)
	if !store.IsUnavailable(err) {
		t.Errorf("expected StoreUnavailableError, got %v", err)
	}
}

func TestSelectQuery_UnionShape(t *testing.T) {
	r := testRegistry(t)

	query, args := selectQuery(r.MustEntity("Customer"), "id", int64(2))
	if strings.Count(query, "UNION ALL") != 1 {
		t.Errorf("expected one UNION ALL, got %q", query)
	}
	if strings.Count(query, "NULL AS ?") != 1 {
		t.Errorf("expected the domestic member to pad the country column, got %q", query)
	}
	if len(args) == 0 {
		t.Error("expected query arguments")
	}

	query, _ = selectQuery(r.MustEntity("User"), "id", int64(1))
	if strings.Contains(query, "UNION") {
		t.Errorf("a type without hierarchy needs no union, got %q", query)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{"default", func(c *Config) {}, ""},
		{"postgres", func(c *Config) { c.Driver = DriverPostgres; c.DSN = "postgres://localhost/app" }, ""},
		{"missing driver", func(c *Config) { c.Driver = "" }, "Driver"},
		{"unknown driver", func(c *Config) { c.Driver = "oracle" }, "Driver"},
		{"missing dsn", func(c *Config) { c.DSN = "" }, "DSN"},
		{"negative pool", func(c *Config) { c.MaxOpenConns = -1 }, "MaxOpenConns"},
		{"negative idle", func(c *Config) { c.MaxIdleConns = -1 }, "MaxIdleConns"},
		{"negative timeout", func(c *Config) { c.QueryTimeout = -time.Second }, "QueryTimeout"},
		{"negative slow threshold", func(c *Config) { c.SlowQueryThreshold = -time.Second }, "SlowQueryThreshold"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()

			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("expected valid config, got %v", err)
				}
				return
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.wantField {
				t.Errorf("expected field %s, got %s", tt.wantField, cfgErr.Field)
			}
		})
	}
}

func TestOpen_RejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Driver = "oracle"
	if _, err := Open(cfg, nil); err == nil {
		t.Fatal("expected Open to fail on an invalid config")
	}
}
