package playerjs

import (
	"fmt"
	"regexp"
	"strconv"
)

// The signature transform families reduce to three primitive operations.
// When the helper object parses cleanly we run them natively and skip the
// interpreter entirely.

type decipherOperation func([]byte) []byte

var (
	reverseRegexp = regexp.MustCompile(fmt.Sprintf("(?m)(?:^|,)(%s)%s", jsVarStr, reverseStr))
	spliceRegexp  = regexp.MustCompile(fmt.Sprintf("(?m)(?:^|,)(%s)%s", jsVarStr, spliceStr))
	swapRegexp    = regexp.MustCompile(fmt.Sprintf("(?m)(?:^|,)(%s)%s", jsVarStr, swapStr))
)

// parseSignatureOps parses the helper object and the driving function into a
// native operation list. Failure here is fine: the caller falls back to the
// sandboxed evaluator.
func parseSignatureOps(script []byte) ([]decipherOperation, error) {
	objMatch := actionsObjRegexp.FindSubmatch(script)
	if len(objMatch) < 3 {
		return nil, fmt.Errorf("helper object not found")
	}
	obj := objMatch[1]
	objBody := objMatch[2]

	funcBody := findActionsFuncBody(script)
	if len(funcBody) == 0 {
		return nil, fmt.Errorf("descramble function body not found")
	}

	var reverseKey, spliceKey, swapKey string
	if m := reverseRegexp.FindSubmatch(objBody); len(m) > 1 {
		reverseKey = string(m[1])
	}
	if m := spliceRegexp.FindSubmatch(objBody); len(m) > 1 {
		spliceKey = string(m[1])
	}
	if m := swapRegexp.FindSubmatch(objBody); len(m) > 1 {
		swapKey = string(m[1])
	}

	callRegexp, err := regexp.Compile(fmt.Sprintf(
		"(?:a=)?%s(?:\\.(%s|%s|%s)|\\[(?:\"(%s|%s|%s)\"|'(%s|%s|%s)')\\])\\(a,(\\d+)\\)",
		regexp.QuoteMeta(string(obj)),
		regexp.QuoteMeta(reverseKey), regexp.QuoteMeta(spliceKey), regexp.QuoteMeta(swapKey),
		regexp.QuoteMeta(reverseKey), regexp.QuoteMeta(spliceKey), regexp.QuoteMeta(swapKey),
		regexp.QuoteMeta(reverseKey), regexp.QuoteMeta(spliceKey), regexp.QuoteMeta(swapKey),
	))
	if err != nil {
		return nil, err
	}

	var ops []decipherOperation
	for _, m := range callRegexp.FindAllSubmatch(funcBody, -1) {
		if len(m) < 5 {
			continue
		}
		key := firstNonEmptySubmatch(m[1], m[2], m[3])
		arg, _ := strconv.Atoi(string(m[4]))
		switch key {
		case reverseKey:
			ops = append(ops, reverseOp)
		case swapKey:
			ops = append(ops, newSwapOp(arg))
		case spliceKey:
			ops = append(ops, newSpliceOp(arg))
		}
	}
	if len(ops) == 0 {
		return nil, fmt.Errorf("empty operation list")
	}
	return ops, nil
}

func findActionsFuncBody(script []byte) []byte {
	for i, re := range actionsFuncRegexps {
		m := re.FindSubmatch(script)
		if len(m) == 0 {
			continue
		}
		if i == 0 {
			return m[2]
		}
		return m[1]
	}
	return nil
}

func firstNonEmptySubmatch(groups ...[]byte) string {
	for _, g := range groups {
		if len(g) > 0 {
			return string(g)
		}
	}
	return ""
}

func newSpliceOp(pos int) decipherOperation {
	return func(bs []byte) []byte {
		if pos < 0 || pos > len(bs) {
			return bs
		}
		return bs[pos:]
	}
}

func newSwapOp(arg int) decipherOperation {
	return func(bs []byte) []byte {
		if len(bs) == 0 {
			return bs
		}
		pos := arg % len(bs)
		bs[0], bs[pos] = bs[pos], bs[0]
		return bs
	}
}

func reverseOp(bs []byte) []byte {
	l, r := 0, len(bs)-1
	for l < r {
		bs[l], bs[r] = bs[r], bs[l]
		l++
		r--
	}
	return bs
}
