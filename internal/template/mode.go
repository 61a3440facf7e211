package template

// Mode selects how Expand treats a multi-valued result, per spec.md §4.5.
type Mode int

const (
	// TopLevel evaluation always collapses to a single string.
	TopLevel Mode = iota
	// SubTemplate evaluation may return a multi-valued sequence that the
	// enclosing group or caller fans out over.
	SubTemplate
)
