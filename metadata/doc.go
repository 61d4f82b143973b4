// Package metadata resolves entity declarations into an immutable Registry and decides,
// once per association, how instances represent it.
//
// # Loading policy
//
// An association is identity-reference eligible only when the owner's table holds the
// foreign key and the target type has no subtypes. In that case the foreign key value is
// all that is needed to hand out a placeholder for the target without a query. Every other
// association (inverse sides, collections, polymorphic targets) requires a fetch:
//
//	registry, err := metadata.Build([]metadata.EntityDecl{
//		{Name: "User", Attributes: []metadata.AttributeDecl{metadata.Attr("name")},
//			Associations: []metadata.AssociationDecl{
//				{Name: "address", Target: "Address", Cardinality: metadata.OneToOne, MappedBy: "user"},
//			}},
//		{Name: "Address", Attributes: []metadata.AttributeDecl{metadata.Attr("street")},
//			Associations: []metadata.AssociationDecl{
//				{Name: "user", Target: "User", Cardinality: metadata.OneToOne, Owning: true, ForeignKey: "user_id"},
//			}},
//	})
//
// Inconsistent declarations fail Build with *InvalidAssociationMetadataError or
// *InvalidEntityMetadataError.
package metadata
