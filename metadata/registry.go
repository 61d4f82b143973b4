package metadata

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Option configures Build.
type Option func(*Registry)

// WithIdentityReferences toggles identity references. When disabled every association is
// resolved as FullProxyRequired, the behaviour of a persistence layer that only knows classic
// proxies. Enabled by default.
func WithIdentityReferences(enabled bool) Option {
	return func(r *Registry) {
		r.identityReferences = enabled
	}
}

// Registry holds every entity type and the loading policy of each association.
// It is built once and never mutated afterwards, so it is safe for concurrent readers.
type Registry struct {
	entities           map[string]*EntityType
	order              []*EntityType
	identityReferences bool
}

// Build resolves declarations into a Registry. Declarations may appear in any order.
func Build(decls []EntityDecl, opts ...Option) (*Registry, error) {
	r := &Registry{
		entities:           make(map[string]*EntityType, len(decls)),
		identityReferences: true,
	}
	for _, opt := range opts {
		opt(r)
	}

	byName := make(map[string]EntityDecl, len(decls))
	for _, d := range decls {
		if err := validateEntityDecl(d); err != nil {
			return nil, err
		}
		if _, dup := byName[d.Name]; dup {
			return nil, &InvalidEntityMetadataError{Entity: d.Name, Reason: "declared more than once"}
		}
		byName[d.Name] = d

		t := &EntityType{
			name:       d.Name,
			abstract:   d.Abstract,
			attrIndex:  make(map[string]int),
			assocIndex: make(map[string]*Association),
		}
		r.entities[d.Name] = t
		r.order = append(r.order, t)
	}

	if err := r.linkHierarchy(byName); err != nil {
		return nil, err
	}

	if err := r.inHierarchyOrder(func(t *EntityType) error {
		return r.resolveStructure(t, byName[t.name])
	}); err != nil {
		return nil, err
	}

	if err := r.inHierarchyOrder(func(t *EntityType) error {
		return r.resolveAssociations(t, byName[t.name])
	}); err != nil {
		return nil, err
	}

	if err := r.linkInverseSides(); err != nil {
		return nil, err
	}

	for _, t := range r.order {
		for _, a := range t.associations {
			if a.owner == t {
				a.policy = r.policyFor(a)
			}
		}
	}

	return r, nil
}

// Entity looks up an entity type by name.
func (r *Registry) Entity(name string) (*EntityType, bool) {
	t, ok := r.entities[name]
	return t, ok
}

// MustEntity is Entity for callers that declared the type themselves.
func (r *Registry) MustEntity(name string) *EntityType {
	t, ok := r.entities[name]
	if !ok {
		panic(fmt.Sprintf("metadata: unknown entity type %q", name))
	}
	return t
}

// Entities returns every type in declaration order.
func (r *Registry) Entities() []*EntityType {
	return append([]*EntityType(nil), r.order...)
}

// IdentityReferencesEnabled reports whether the registry hands out identity references.
func (r *Registry) IdentityReferencesEnabled() bool {
	return r.identityReferences
}

// RepresentationFor returns how instances wire the association. The answer was computed
// at build time and is the same for every instance.
func (r *Registry) RepresentationFor(a *Association) Representation {
	if a.policy == PolicyIdentityReferenceEligible {
		return IdentityReference
	}
	return FullProxyRequired
}

// policyFor applies the eligibility rule: only an owning side pointing at a type whose
// concrete class is fixed can be represented by its foreign key alone.
func (r *Registry) policyFor(a *Association) LoadingPolicy {
	switch {
	case !r.identityReferences:
		return PolicyFullProxyRequired
	case !a.owning, a.cardinality == OneToMany:
		return PolicyFullProxyRequired
	case a.target.IsPolymorphic():
		return PolicyFullProxyRequired
	default:
		return PolicyIdentityReferenceEligible
	}
}

func (r *Registry) linkHierarchy(byName map[string]EntityDecl) error {
	for _, t := range r.order {
		d := byName[t.name]
		if d.Parent == "" {
			continue
		}
		parent, ok := r.entities[d.Parent]
		if !ok {
			return &InvalidEntityMetadataError{Entity: t.name, Reason: fmt.Sprintf("unknown parent %q", d.Parent)}
		}
		t.parent = parent
		parent.subtypes = append(parent.subtypes, t)
	}

	for _, t := range r.order {
		seen := make(map[*EntityType]bool)
		for cur := t; cur != nil; cur = cur.parent {
			if seen[cur] {
				return &InvalidEntityMetadataError{Entity: t.name, Reason: "inheritance cycle"}
			}
			seen[cur] = true
		}
	}

	for _, t := range r.order {
		if t.parent == nil && len(t.subtypes) > 0 && byName[t.name].Inheritance == InheritanceNone {
			return &InvalidEntityMetadataError{Entity: t.name, Reason: "subtypes declared without an inheritance strategy"}
		}
	}
	return nil
}

// inHierarchyOrder visits every type after its parent.
func (r *Registry) inHierarchyOrder(fn func(*EntityType) error) error {
	done := make(map[*EntityType]bool, len(r.order))
	var visit func(t *EntityType) error
	visit = func(t *EntityType) error {
		if done[t] {
			return nil
		}
		if t.parent != nil {
			if err := visit(t.parent); err != nil {
				return err
			}
		}
		done[t] = true
		return fn(t)
	}
	for _, t := range r.order {
		if err := visit(t); err != nil {
			return err
		}
	}
	return nil
}

func (r *Registry) resolveStructure(t *EntityType, d EntityDecl) error {
	if p := t.parent; p != nil {
		if d.IDAttribute != "" && d.IDAttribute != p.idAttribute {
			return &InvalidEntityMetadataError{Entity: t.name, Reason: "subtypes inherit the identifier of their parent"}
		}
		t.idAttribute = p.idAttribute
		t.idColumn = p.idColumn
		t.inheritance = p.inheritance
		t.discriminatorColumn = p.discriminatorColumn
		for _, a := range p.attributes {
			t.addAttribute(a)
		}
	} else {
		t.idAttribute = d.IDAttribute
		if t.idAttribute == "" {
			t.idAttribute = defaultIDAttribute
		}
		t.idColumn = d.IDColumn
		if t.idColumn == "" {
			t.idColumn = ColumnName(t.idAttribute)
		}
		t.inheritance = d.Inheritance
		if t.inheritance == InheritanceSingleTable {
			t.discriminatorColumn = d.DiscriminatorColumn
			if t.discriminatorColumn == "" {
				t.discriminatorColumn = defaultDiscriminatorColumn
			}
		}
	}

	switch {
	case t.parent != nil && t.inheritance == InheritanceSingleTable:
		t.table = t.Root().table
	case d.Table != "":
		t.table = d.Table
	default:
		t.table = TableName(t.name)
	}

	t.discriminatorValue = d.DiscriminatorValue
	if t.discriminatorValue == "" {
		t.discriminatorValue = t.name
	}

	for _, ad := range d.Attributes {
		if ad.Name == "" {
			return &InvalidEntityMetadataError{Entity: t.name, Reason: "attribute without a name"}
		}
		if t.hasMember(ad.Name) {
			return &InvalidEntityMetadataError{Entity: t.name, Reason: fmt.Sprintf("attribute %q declared more than once", ad.Name)}
		}
		column := ad.Column
		if column == "" {
			column = ColumnName(ad.Name)
		}
		t.addAttribute(Attribute{Name: ad.Name, Column: column})
	}
	return nil
}

func (r *Registry) resolveAssociations(t *EntityType, d EntityDecl) error {
	if p := t.parent; p != nil {
		for _, a := range p.associations {
			t.addAssociation(a)
		}
	}

	for _, ad := range d.Associations {
		if ad.Owning && ad.ForeignKey == "" {
			if target, ok := r.entities[ad.Target]; ok {
				ad.ForeignKey = ForeignKeyName(ad.Name, target.IDAttribute())
			}
		}
		if err := validateAssociationDecl(ad); err != nil {
			return &InvalidAssociationMetadataError{Entity: t.name, Association: ad.Name, Reason: err.Error()}
		}
		invalid := func(reason string) error {
			return &InvalidAssociationMetadataError{Entity: t.name, Association: ad.Name, Reason: reason}
		}

		target, ok := r.entities[ad.Target]
		if !ok {
			return invalid(fmt.Sprintf("unknown target type %q", ad.Target))
		}
		if t.hasMember(ad.Name) {
			return invalid("name collides with another attribute")
		}
		if ad.Cardinality == ManyToOne && !ad.Owning {
			return invalid("many-to-one must be the owning side")
		}
		if ad.Cardinality == OneToMany && ad.Owning {
			return invalid("one-to-many cannot own the foreign key")
		}
		if ad.Owning {
			if _, clash := t.attributeByColumn(ad.ForeignKey); clash {
				return invalid(fmt.Sprintf("foreign key %q is mapped as a scalar attribute", ad.ForeignKey))
			}
		}

		t.addAssociation(&Association{
			name:        ad.Name,
			owner:       t,
			target:      target,
			cardinality: ad.Cardinality,
			owning:      ad.Owning,
			foreignKey:  ad.ForeignKey,
			mappedBy:    ad.MappedBy,
		})
	}
	return nil
}

func (r *Registry) linkInverseSides() error {
	for _, t := range r.order {
		for _, a := range t.associations {
			if a.owner != t || a.owning {
				continue
			}
			invalid := func(reason string) error {
				return &InvalidAssociationMetadataError{Entity: t.name, Association: a.name, Reason: reason}
			}

			owning, ok := a.target.Association(a.mappedBy)
			if !ok {
				return invalid(fmt.Sprintf("mapped by unknown association %s.%s", a.target.name, a.mappedBy))
			}
			if !owning.owning {
				return invalid(fmt.Sprintf("mapped by %s which is not an owning side", owning))
			}
			if !t.IsA(owning.target) {
				return invalid(fmt.Sprintf("mapped by %s which targets %s", owning, owning.target.name))
			}
			switch {
			case a.cardinality == OneToOne && owning.cardinality != OneToOne:
				return invalid("one-to-one must be mapped by a one-to-one")
			case a.cardinality == OneToMany && owning.cardinality != ManyToOne:
				return invalid("one-to-many must be mapped by a many-to-one")
			}
			a.inverse = owning
		}
	}
	return nil
}

func (t *EntityType) addAttribute(a Attribute) {
	t.attrIndex[a.Name] = len(t.attributes)
	t.attributes = append(t.attributes, a)
}

func (t *EntityType) addAssociation(a *Association) {
	t.assocIndex[a.name] = a
	t.associations = append(t.associations, a)
}

func (t *EntityType) hasMember(name string) bool {
	if name == t.idAttribute {
		return true
	}
	if _, ok := t.attrIndex[name]; ok {
		return true
	}
	_, ok := t.assocIndex[name]
	return ok
}

func (t *EntityType) attributeByColumn(column string) (Attribute, bool) {
	for _, a := range t.attributes {
		if a.Column == column {
			return a, true
		}
	}
	return Attribute{}, false
}

func validateEntityDecl(d EntityDecl) error {
	err := validation.ValidateStruct(&d,
		validation.Field(&d.Name, validation.Required),
		validation.Field(&d.Inheritance, validation.In(InheritanceNone, InheritanceSingleTable, InheritanceTablePerClass)),
	)
	if err != nil {
		return &InvalidEntityMetadataError{Entity: d.Name, Reason: err.Error()}
	}
	return nil
}

func validateAssociationDecl(ad AssociationDecl) error {
	return validation.ValidateStruct(&ad,
		validation.Field(&ad.Name, validation.Required),
		validation.Field(&ad.Target, validation.Required),
		validation.Field(&ad.Cardinality, validation.Required, validation.In(OneToOne, ManyToOne, OneToMany)),
		validation.Field(&ad.ForeignKey,
			validation.When(ad.Owning, validation.Required.Error("owning side requires a foreign key column")),
			validation.When(!ad.Owning, validation.Empty.Error("inverse side cannot hold a foreign key column")),
		),
		validation.Field(&ad.MappedBy,
			validation.When(!ad.Owning, validation.Required.Error("inverse side requires mapped by")),
			validation.When(ad.Owning, validation.Empty.Error("owning side cannot be mapped by another association")),
		),
	)
}
