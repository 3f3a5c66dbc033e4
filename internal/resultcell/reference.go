package resultcell

import "gitlab.com/wdlists/wdlists/internal/reference"

// PartWithReference pairs a Part with the references attached to the snak
// it was built from (spec §3 "PartWithReference"). References are only
// ever populated when the template parameter `references=ALL` is set
// (spec §4.6).
type PartWithReference struct {
	Part       Part
	References []reference.Reference
}

func New(p Part, refs ...reference.Reference) PartWithReference {
	return PartWithReference{Part: p, References: refs}
}
