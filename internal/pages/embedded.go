package pages

import (
	"bytes"
	"fmt"
)

// ExtractEmbeddedJSON locates `<name>` in an HTML/JS body, skips to the
// object literal assigned to it and returns the balanced JSON text. The scan
// tracks string state so braces inside literals don't count.
func ExtractEmbeddedJSON(body []byte, name string) ([]byte, error) {
	idx := bytes.Index(body, []byte(name))
	if idx < 0 {
		return nil, fmt.Errorf("%s not found", name)
	}
	rest := body[idx+len(name):]
	open := bytes.IndexByte(rest, '{')
	if open < 0 {
		return nil, fmt.Errorf("%s has no object literal", name)
	}
	// Nothing but whitespace, '=' or ':' may sit between name and '{'.
	for _, b := range rest[:open] {
		switch b {
		case ' ', '\t', '\n', '\r', '=', ':':
		default:
			return nil, fmt.Errorf("%s is not an assignment", name)
		}
	}
	rest = rest[open:]

	depth := 0
	inString := false
	escaped := false
	for i, b := range rest {
		if inString {
			switch {
			case escaped:
				escaped = false
			case b == '\\':
				escaped = true
			case b == '"':
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return rest[:i+1], nil
			}
		}
	}
	return nil, fmt.Errorf("%s object literal is unterminated", name)
}
