// Package promptfmt renders the console prompt from a template.
package promptfmt

import "strings"

// Placeholder is replaced by the current working path.
const Placeholder = "%pwd%"

// DefaultTemplate is used when no prompt template is configured.
const DefaultTemplate = "ttyconsole " + Placeholder + "> "

// WorkDirer reports the current working path.
type WorkDirer interface {
	Getwd() string
}

// Render substitutes every Placeholder in template with wd.Getwd(). All other
// text is copied verbatim; a template without the placeholder is returned
// unchanged.
func Render(template string, wd WorkDirer) string {
	if !strings.Contains(template, Placeholder) {
		return template
	}
	return strings.ReplaceAll(template, Placeholder, wd.Getwd())
}
