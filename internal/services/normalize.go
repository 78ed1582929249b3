package services

import "strings"

// Chapter content and review comments store line breaks as the literal
// two-character sequence \n.
var lineBreakReplacer = strings.NewReplacer("\r\n", `\n`, "\r", `\n`, "\n", `\n`)

func normalizeLineBreaks(s string) string {
	return lineBreakReplacer.Replace(s)
}
