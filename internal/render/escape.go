package render

import "strings"

// texReplacer escapes the characters LaTeX treats specially. A single
// Replacer pass guarantees replacements are never escaped again.
var texReplacer = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`&`, `\&`,
	`%`, `\%`,
	`$`, `\$`,
	`#`, `\#`,
	`_`, `\_`,
	`{`, `\{`,
	`}`, `\}`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// EscapeTeX escapes free text for safe inclusion in the template.
func EscapeTeX(text string) string {
	return texReplacer.Replace(text)
}

// escapeMultiline escapes text and turns newlines into LaTeX line breaks.
func escapeMultiline(text string) string {
	if text == "" {
		return ""
	}
	return strings.ReplaceAll(EscapeTeX(text), "\n", `\\ `+"\n")
}
