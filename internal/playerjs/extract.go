package playerjs

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mediastrand/ytcore/internal/types"
)

// Extraction is structural: matchers key on argument arity and the operator
// shapes of the known transform families (splice/reverse/swap helpers), never
// on literal identifier names, so they survive renames between player
// versions. Matchers are table-driven; new script variants get a new entry.

type matcher func(script []byte) (*Transform, error)

var signatureMatchers = []matcher{
	matchSignatureActions,
}

var nParamMatchers = []matcher{
	matchNByMarker,
	matchNByCallSite,
}

// ExtractSignature locates the signature descrambling function.
func ExtractSignature(script []byte) (*Transform, error) {
	return firstMatch(script, signatureMatchers, KindSignature)
}

// ExtractNParam locates the n-parameter transform function.
func ExtractNParam(script []byte) (*Transform, error) {
	return firstMatch(script, nParamMatchers, KindNParam)
}

func firstMatch(script []byte, matchers []matcher, kind TransformKind) (*Transform, error) {
	var lastErr error
	for _, m := range matchers {
		t, err := m(script)
		if err != nil {
			lastErr = err
			continue
		}
		t.Kind = kind
		return t, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no matcher registered")
	}
	return nil, fmt.Errorf("%w: %s: %v", types.ErrExtraction, kind, lastErr)
}

const (
	jsVarStr   = "[a-zA-Z_\\$][a-zA-Z_0-9\\$]*"
	reverseStr = ":function\\(a\\)\\{" +
		"(?:return )?a\\.reverse\\(\\)" +
		"\\}"
	spliceStr = ":function\\(a,b\\)\\{" +
		"a\\.splice\\(0,b\\)" +
		"\\}"
	swapStr = ":function\\(a,b\\)\\{" +
		"var c=a\\[0\\];a\\[0\\]=a\\[b(?:%a\\.length)?\\];a\\[b(?:%a\\.length)?\\]=c(?:;return a)?" +
		"\\}"
)

var (
	actionsObjRegexp = regexp.MustCompile(fmt.Sprintf(
		"(?:var|let|const)\\s+(%s)=\\{((?:(?:%s%s|%s%s|%s%s),?\\n?)+)\\}\\s*;?",
		jsVarStr, jsVarStr, swapStr, jsVarStr, spliceStr, jsVarStr, reverseStr))

	actionsFuncRegexps = []*regexp.Regexp{
		// XX=function(a){a=a.split("");...;return a.join("")}
		regexp.MustCompile(fmt.Sprintf(
			"(%s)\\s*=\\s*(function\\(a\\)\\{"+
				"a=a\\.split\\([^\\)]*\\);\\s*"+
				"(?:(?:a=)?%s(?:\\.%s|\\[[^\\]]+\\])\\(a,\\d+\\);?\\s*)+"+
				"return a\\.join\\([^\\)]*\\)"+
				"\\})", jsVarStr, jsVarStr, jsVarStr)),
		// function XX(a){...} / bare function(a){...}
		regexp.MustCompile(fmt.Sprintf(
			"(function(?:\\s+%s)?\\(a\\)\\{"+
				"a=a\\.split\\([^\\)]*\\);\\s*"+
				"(?:(?:a=)?%s(?:\\.%s|\\[[^\\]]+\\])\\(a,\\d+\\);?\\s*)+"+
				"return a\\.join\\([^\\)]*\\)"+
				"\\})", jsVarStr, jsVarStr, jsVarStr)),
	}

	nFunctionNameRegexps = []*regexp.Regexp{
		// b=XY[0](b)||ZZ with indexed helper array
		regexp.MustCompile(`\.get\("n"\)\)&&\(b=([a-zA-Z0-9$]{0,3})\[(\d+)\](.+)\|\|([a-zA-Z0-9]{0,3})`),
		regexp.MustCompile(`\.get\("n"\)\)\s*&&\s*\(b=([a-zA-Z0-9$]{1,})\[(\d+)\]\([a-zA-Z0-9$]{1,}\).+\|\|([a-zA-Z0-9$]{1,})`),
		// b=XY(b)
		regexp.MustCompile(`\.get\("n"\)\)\s*&&\s*\(b=([a-zA-Z0-9$]{1,})\([a-zA-Z0-9$]{1,}\)`),
		// optional chaining / looser spacing variants
		regexp.MustCompile(`\.get\("n"\).*?&&.*?([a-zA-Z0-9$]{1,})\([a-zA-Z0-9$]{1,}\)`),
	}
)

// matchSignatureActions finds the splice/reverse/swap helper object plus the
// split/join function driving it, and packages both into a self-contained
// loadable source.
func matchSignatureActions(script []byte) (*Transform, error) {
	objMatch := actionsObjRegexp.FindSubmatch(script)
	if len(objMatch) < 3 {
		return nil, fmt.Errorf("helper object not found")
	}
	objSource := string(objMatch[0])
	if !strings.HasSuffix(strings.TrimSpace(objSource), ";") {
		objSource += ";"
	}

	for i, re := range actionsFuncRegexps {
		m := re.FindSubmatch(script)
		if len(m) == 0 {
			continue
		}
		var name, fnExpr string
		if i == 0 {
			name = string(m[1])
			fnExpr = string(m[2])
		} else {
			name = "descrambleSig"
			fnExpr = string(m[1])
		}
		source := objSource + "\nvar " + name + "=" + fnExpr + ";"
		return &Transform{Name: name, Source: source}, nil
	}
	return nil, fmt.Errorf("descramble function not found")
}

// matchNByMarker keys on the alr/fallback markers the host embeds around the
// n transform call site.
func matchNByMarker(script []byte) (*Transform, error) {
	const pre = `a.set("alr","yes");c&&(c=`
	start := bytes.Index(script, []byte(pre))
	if start < 0 {
		return nil, fmt.Errorf("alr marker not found")
	}
	rest := script[start+len(pre):]
	end := bytes.IndexByte(rest, '(')
	if end <= 0 {
		return nil, fmt.Errorf("call after alr marker not found")
	}
	name := strings.TrimSpace(string(rest[:end]))
	if name == "" || !isIdentifier(name) {
		return nil, fmt.Errorf("invalid identifier after alr marker")
	}
	return extractFunction(script, name)
}

// matchNByCallSite tries the known n-parameter call-site shapes in order.
func matchNByCallSite(script []byte) (*Transform, error) {
	for _, re := range nFunctionNameRegexps {
		m := re.FindSubmatch(script)
		if len(m) == 0 {
			continue
		}
		switch len(m) {
		case 5:
			// Indexed helper with explicit fallback symbol in group 4.
			if idx, err := strconv.Atoi(string(m[2])); err == nil && idx == 0 {
				return extractFunction(script, string(m[4]))
			}
			return extractFunction(script, string(m[1]))
		case 4:
			if idx, err := strconv.Atoi(string(m[2])); err == nil && idx == 0 {
				return extractFunction(script, string(m[3]))
			}
			return extractFunction(script, string(m[1]))
		default:
			return extractFunction(script, string(m[1]))
		}
	}
	return nil, fmt.Errorf("no call-site pattern matched")
}

// extractFunction pulls the full source of the named function by balanced
// brace scanning, tracking string state so braces inside literals don't count.
func extractFunction(script []byte, name string) (*Transform, error) {
	name = strings.TrimSpace(name)
	defPatterns := [][]byte{
		[]byte(name + "=function("),
		[]byte(name + " = function("),
		[]byte("function " + name + "("),
	}
	start := -1
	for _, def := range defPatterns {
		start = bytes.Index(script, def)
		if start >= 0 {
			break
		}
	}
	if start < 0 {
		return nil, fmt.Errorf("function %q not found", name)
	}

	open := bytes.IndexByte(script[start:], '{')
	if open < 0 {
		return nil, fmt.Errorf("function %q has no body", name)
	}
	pos := start + open + 1
	var strChar byte
	for brackets := 1; brackets > 0; pos++ {
		if pos >= len(script) {
			return nil, fmt.Errorf("unterminated body of %q", name)
		}
		b := script[pos]
		switch b {
		case '{':
			if strChar == 0 {
				brackets++
			}
		case '}':
			if strChar == 0 {
				brackets--
			}
		case '`', '"', '\'':
			if pos > 1 && script[pos-1] == '\\' && script[pos-2] != '\\' {
				continue
			}
			if strChar == 0 {
				strChar = b
			} else if strChar == b {
				strChar = 0
			}
		}
	}
	return &Transform{Name: name, Source: string(script[start:pos])}, nil
}

var identifierRegexp = regexp.MustCompile(`^[a-zA-Z_$][a-zA-Z0-9_$]*$`)

func isIdentifier(s string) bool {
	return identifierRegexp.MatchString(s)
}
