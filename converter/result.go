package converter

// Result holds the output of a conversion.
type Result struct {
	Markdown string    `json:"markdown"`
	Warnings []Warning `json:"warnings,omitempty"`
}

// WarningType categorizes conversion warnings.
type WarningType string

const (
	WarningDroppedFeature      WarningType = "dropped_feature"
	WarningMissingAttribute    WarningType = "missing_attribute"
	WarningUnresolvedReference WarningType = "unresolved_reference"
	WarningDegradedStyle       WarningType = "degraded_style"
)

// Warning represents a non-fatal issue encountered during conversion.
type Warning struct {
	Type     WarningType `json:"type"`
	NodeKind NodeKind    `json:"nodeKind,omitempty"`
	Path     string      `json:"path,omitempty"`
	Message  string      `json:"message"`
}
