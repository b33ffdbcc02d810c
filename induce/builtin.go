package induce

// builtinProposal returns the Tier-3 default ontology of spec.md §4.3: Person,
// Organization, Location node schemas plus a WORKS_AT edge, returned when
// both configured LLM tiers fail or produce an empty/unparseable proposal.
// It can never fail.
func builtinProposal() rawProposal {
	return rawProposal{
		Nodes: []rawSchema{
			{
				SchemaName: "Person",
				EntityType: "NODE",
				StructuredAttributes: []rawAttribute{
					{Name: "name", DataType: "string", Required: true},
				},
			},
			{
				SchemaName: "Organization",
				EntityType: "NODE",
				StructuredAttributes: []rawAttribute{
					{Name: "name", DataType: "string", Required: true},
				},
			},
			{
				SchemaName: "Location",
				EntityType: "NODE",
				StructuredAttributes: []rawAttribute{
					{Name: "name", DataType: "string", Required: true},
				},
			},
		},
		Edges: []rawSchema{
			{
				SchemaName: "WORKS_AT",
				EntityType: "EDGE",
				StructuredAttributes: []rawAttribute{},
			},
		},
		Summary: "built-in default ontology: Person, Organization, Location, WORKS_AT",
	}
}
