package catalog

// Merge reconciles two partial records field by field: priority wins on any
// field it holds non-empty, fallback fills the rest. The merge is shallow
// (Specifications is substituted wholesale, never merged recursively) and
// idempotent: Merge(Merge(a, b), b) == Merge(a, b). Deleted follows the
// same rule with false as empty, so either side can mark a record deleted.
func Merge(priority, fallback Metadata) Metadata {
	out := priority
	if out.ID == "" {
		out.ID = fallback.ID
	}
	if out.OEMID == "" {
		out.OEMID = fallback.OEMID
	}
	if out.Kind == "" {
		out.Kind = fallback.Kind
	}
	if out.Name == "" {
		out.Name = fallback.Name
	}
	if out.Description == "" {
		out.Description = fallback.Description
	}
	if out.Images == "" {
		out.Images = fallback.Images
	}
	if out.Specifications == "" {
		out.Specifications = fallback.Specifications
	}
	if !out.Deleted {
		out.Deleted = fallback.Deleted
	}
	return out
}
