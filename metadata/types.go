package metadata

import "fmt"

// Cardinality describes how many target instances an association points at.
type Cardinality int

const (
	OneToOne Cardinality = iota + 1
	ManyToOne
	OneToMany
)

func (c Cardinality) String() string {
	switch c {
	case OneToOne:
		return "one-to-one"
	case ManyToOne:
		return "many-to-one"
	case OneToMany:
		return "one-to-many"
	default:
		return fmt.Sprintf("cardinality(%d)", int(c))
	}
}

// Inheritance is the mapping strategy of a type hierarchy. It is declared on the root type
// and inherited by every subtype.
type Inheritance int

const (
	InheritanceNone Inheritance = iota
	// InheritanceSingleTable stores every subtype in the root table and tells them apart
	// through a discriminator column.
	InheritanceSingleTable
	// InheritanceTablePerClass stores every concrete type in its own table holding all
	// inherited columns.
	InheritanceTablePerClass
)

func (i Inheritance) String() string {
	switch i {
	case InheritanceNone:
		return "none"
	case InheritanceSingleTable:
		return "single-table"
	case InheritanceTablePerClass:
		return "table-per-class"
	default:
		return fmt.Sprintf("inheritance(%d)", int(i))
	}
}

// LoadingPolicy is computed once per association when the registry is built.
type LoadingPolicy int

const (
	// PolicyIdentityReferenceEligible means the foreign key alone is enough to hand out a
	// placeholder for the target.
	PolicyIdentityReferenceEligible LoadingPolicy = iota + 1
	// PolicyFullProxyRequired means a fetch is unavoidable to produce the target.
	PolicyFullProxyRequired
)

func (p LoadingPolicy) String() string {
	switch p {
	case PolicyIdentityReferenceEligible:
		return "identity-reference-eligible"
	case PolicyFullProxyRequired:
		return "full-proxy-required"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// Representation is how an entity wires an association slot at construction time.
type Representation int

const (
	IdentityReference Representation = iota + 1
	FullProxyRequired
)

func (r Representation) String() string {
	switch r {
	case IdentityReference:
		return "identity-reference"
	case FullProxyRequired:
		return "full-proxy-required"
	default:
		return fmt.Sprintf("representation(%d)", int(r))
	}
}

// EntityDecl declares an entity type. Empty names fall back to snake_case defaults derived
// from the entity and attribute names.
type EntityDecl struct {
	Name         string
	Table        string
	IDAttribute  string
	IDColumn     string
	Attributes   []AttributeDecl
	Associations []AssociationDecl

	// Parent names the supertype. Subtypes inherit identifier, attributes and associations.
	Parent   string
	Abstract bool

	// Inheritance, DiscriminatorColumn are only read on hierarchy roots.
	Inheritance         Inheritance
	DiscriminatorColumn string
	DiscriminatorValue  string
}

// AttributeDecl declares a scalar attribute.
type AttributeDecl struct {
	Name   string
	Column string
}

// AssociationDecl declares an edge towards another entity type.
type AssociationDecl struct {
	Name        string
	Target      string
	Cardinality Cardinality

	// Owning is true when the owner's table holds the foreign key column.
	Owning     bool
	ForeignKey string

	// MappedBy names the owning association on the target (inverse side only).
	MappedBy string
}

// Attr is shorthand for an attribute declared with the default column name.
func Attr(name string) AttributeDecl {
	return AttributeDecl{Name: name}
}

// Attribute is a resolved scalar attribute.
type Attribute struct {
	Name   string
	Column string
}
