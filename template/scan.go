package template

import "strings"

// Scan returns the placeholder names in text in order of appearance, duplicates included.
//
// A placeholder starts at '{' and ends at the next '}'. A line break before that brace leaves
// the '{' as literal text, and so does a missing closing brace. Inner braces are not nested:
// "{a{b}" names "a{b". Empty placeholders are skipped.
func Scan(text string) []string {
	var names []string
	for i := 0; i < len(text); i++ {
		if text[i] != '{' {
			continue
		}
		rest := text[i+1:]
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			break
		}
		if strings.IndexByte(rest[:end], '\n') >= 0 {
			continue
		}
		if end > 0 {
			names = append(names, rest[:end])
		}
		i += end + 1
	}
	return names
}
