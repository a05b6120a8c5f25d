package domain

// titlePlaceholders and orgPlaceholders are the discovery-time guesses a
// higher-confidence inferred value is allowed to replace. A field holding
// anything else is treated as trusted and is never downgraded.
var titlePlaceholders = map[string]bool{
	"":                    true,
	PlaceholderNoTitle:    true,
	PlaceholderProcessing: true,
}

var orgPlaceholders = map[string]bool{
	"":                    true,
	PlaceholderNoOrg:      true,
	PlaceholderProcessing: true,
}

// RepairCandidates carries the recovered field values offered by a later,
// more reliable reading (inference over the raw corpus, or the detail-page
// scrape itself).
type RepairCandidates struct {
	Title        string
	Organization string
	PaymentNote  string
}

// RepairPlan lists the fields that passed the repair policy; a nil field
// means "leave stored value alone".
type RepairPlan struct {
	Title        *string
	Organization *string
	PaymentNote  *string
}

// Empty reports whether the plan changes nothing.
func (p RepairPlan) Empty() bool {
	return p.Title == nil && p.Organization == nil && p.PaymentNote == nil
}

// ResolveRepairs decides field by field whether a candidate may overwrite
// the stored value.
//
// Title and organization are identity-like: they are filled only while the
// stored value is still a placeholder, and a candidate that is itself a
// placeholder is never written. The payment note follows the opposite
// policy: the freshest read of the detail page is the source of truth, so
// any non-empty candidate replaces whatever is stored.
func ResolveRepairs(current Tender, c RepairCandidates) RepairPlan {
	var plan RepairPlan

	if titlePlaceholders[current.Title] && c.Title != "" && !titlePlaceholders[c.Title] {
		title := c.Title
		plan.Title = &title
	}

	if orgPlaceholders[current.Organization] && c.Organization != "" && !orgPlaceholders[c.Organization] {
		org := c.Organization
		plan.Organization = &org
	}

	if c.PaymentNote != "" {
		note := c.PaymentNote
		plan.PaymentNote = &note
	}

	return plan
}
