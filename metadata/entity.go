package metadata

// EntityType is the resolved, immutable description of a mapped type.
type EntityType struct {
	name        string
	table       string
	idAttribute string
	idColumn    string

	attributes   []Attribute
	attrIndex    map[string]int
	associations []*Association
	assocIndex   map[string]*Association

	parent   *EntityType
	subtypes []*EntityType
	abstract bool

	inheritance         Inheritance
	discriminatorColumn string
	discriminatorValue  string
}

func (t *EntityType) Name() string        { return t.name }
func (t *EntityType) Table() string       { return t.table }
func (t *EntityType) IDAttribute() string { return t.idAttribute }
func (t *EntityType) IDColumn() string    { return t.idColumn }
func (t *EntityType) IsAbstract() bool    { return t.abstract }
func (t *EntityType) Parent() *EntityType { return t.parent }

// Inheritance returns the strategy of the hierarchy this type belongs to.
func (t *EntityType) Inheritance() Inheritance { return t.inheritance }

// DiscriminatorColumn is only meaningful for single-table hierarchies.
func (t *EntityType) DiscriminatorColumn() string { return t.discriminatorColumn }

// DiscriminatorValue identifies rows of this type in a single-table hierarchy.
func (t *EntityType) DiscriminatorValue() string { return t.discriminatorValue }

func (t *EntityType) String() string { return t.name }

// Root walks up to the hierarchy root. Identity is scoped by the root type.
func (t *EntityType) Root() *EntityType {
	root := t
	for root.parent != nil {
		root = root.parent
	}
	return root
}

// Subtypes returns the direct subtypes.
func (t *EntityType) Subtypes() []*EntityType {
	return append([]*EntityType(nil), t.subtypes...)
}

// IsPolymorphic reports whether an instance referenced as t may be of more than one
// concrete type, which makes the concrete type unknowable from a foreign key alone.
func (t *EntityType) IsPolymorphic() bool {
	return len(t.subtypes) > 0
}

// ConcreteTypes lists t and its descendants that can be instantiated, depth first.
func (t *EntityType) ConcreteTypes() []*EntityType {
	var out []*EntityType
	if !t.abstract {
		out = append(out, t)
	}
	for _, sub := range t.subtypes {
		out = append(out, sub.ConcreteTypes()...)
	}
	return out
}

// IsA reports whether t is other or one of its descendants.
func (t *EntityType) IsA(other *EntityType) bool {
	for cur := t; cur != nil; cur = cur.parent {
		if cur == other {
			return true
		}
	}
	return false
}

// Attributes returns scalar attributes, inherited ones first.
func (t *EntityType) Attributes() []Attribute {
	return append([]Attribute(nil), t.attributes...)
}

// Attribute looks up a scalar attribute by name.
func (t *EntityType) Attribute(name string) (Attribute, bool) {
	i, ok := t.attrIndex[name]
	if !ok {
		return Attribute{}, false
	}
	return t.attributes[i], true
}

// Associations returns associations, inherited ones first.
func (t *EntityType) Associations() []*Association {
	return append([]*Association(nil), t.associations...)
}

// Association looks up an association by name.
func (t *EntityType) Association(name string) (*Association, bool) {
	a, ok := t.assocIndex[name]
	return a, ok
}

// Association is a resolved, directional edge between two entity types.
type Association struct {
	name        string
	owner       *EntityType
	target      *EntityType
	cardinality Cardinality
	owning      bool
	foreignKey  string
	mappedBy    string
	inverse     *Association
	policy      LoadingPolicy
}

func (a *Association) Name() string             { return a.name }
func (a *Association) Owner() *EntityType       { return a.owner }
func (a *Association) Target() *EntityType      { return a.target }
func (a *Association) Cardinality() Cardinality { return a.cardinality }
func (a *Association) IsOwning() bool           { return a.owning }
func (a *Association) MappedBy() string         { return a.mappedBy }
func (a *Association) Policy() LoadingPolicy    { return a.policy }

// ForeignKey is the column holding the reference. On the inverse side it is the column of
// the owning association, which lives in the target's table.
func (a *Association) ForeignKey() string {
	if !a.owning && a.inverse != nil {
		return a.inverse.foreignKey
	}
	return a.foreignKey
}

// Inverse returns the owning association an inverse side is mapped by, nil on the owning side.
func (a *Association) Inverse() *Association { return a.inverse }

// IsCollection reports whether the association yields many targets.
func (a *Association) IsCollection() bool { return a.cardinality == OneToMany }

func (a *Association) String() string { return a.owner.name + "." + a.name }
