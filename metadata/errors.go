package metadata

import "fmt"

// InvalidAssociationMetadataError is returned by Build when an association is declared
// inconsistently. It is a startup-time error, a registry is never partially built.
type InvalidAssociationMetadataError struct {
	Entity      string
	Association string
	Reason      string
}

func (e *InvalidAssociationMetadataError) Error() string {
	return fmt.Sprintf("invalid association metadata %s.%s: %s", e.Entity, e.Association, e.Reason)
}

// InvalidEntityMetadataError is returned by Build when an entity declaration itself is
// inconsistent (missing name, unknown parent, inheritance cycle, duplicated attribute).
type InvalidEntityMetadataError struct {
	Entity string
	Reason string
}

func (e *InvalidEntityMetadataError) Error() string {
	return fmt.Sprintf("invalid entity metadata %s: %s", e.Entity, e.Reason)
}
