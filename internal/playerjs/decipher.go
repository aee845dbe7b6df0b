package playerjs

import (
	"sync"
)

// Decipherer bundles both transforms extracted from one player asset.
// Extraction runs once at construction; the result is immutable. A transform
// that failed extraction keeps its error so dependent descriptors can be
// marked undecipherable instead of silently wrong.
type Decipherer struct {
	eval Evaluator

	sig    *Transform
	sigErr error
	sigOps []decipherOperation

	n    *Transform
	nErr error

	mu     sync.Mutex
	nCache map[string]string
}

// NewDecipherer extracts the signature and n-parameter transforms from the
// player script. Extraction failures are recorded, not returned: a player
// version may legitimately lack one transform kind.
func NewDecipherer(script string, eval Evaluator) *Decipherer {
	body := []byte(script)
	d := &Decipherer{
		eval:   eval,
		nCache: make(map[string]string),
	}
	d.sig, d.sigErr = ExtractSignature(body)
	if d.sig != nil {
		// Native fast path; nil on parse failure, evaluator covers it.
		d.sigOps, _ = parseSignatureOps(body)
	}
	d.n, d.nErr = ExtractNParam(body)
	return d
}

// SignatureErr reports whether the signature transform is usable.
func (d *Decipherer) SignatureErr() error { return d.sigErr }

// NParamErr reports whether the n transform is usable.
func (d *Decipherer) NParamErr() error { return d.nErr }

// DecipherSignature descrambles the 's' parameter.
func (d *Decipherer) DecipherSignature(s string) (string, error) {
	if d.sigErr != nil {
		return "", d.sigErr
	}
	if len(d.sigOps) > 0 {
		bs := []byte(s)
		for _, op := range d.sigOps {
			bs = op(bs)
		}
		return string(bs), nil
	}
	return d.eval.Evaluate(*d.sig, s)
}

// DecipherN descrambles the 'n' parameter. Results are memoized per input:
// many descriptors of one catalog share the same n value.
func (d *Decipherer) DecipherN(n string) (string, error) {
	if d.nErr != nil {
		return "", d.nErr
	}

	d.mu.Lock()
	cached, ok := d.nCache[n]
	d.mu.Unlock()
	if ok {
		return cached, nil
	}

	out, err := d.eval.Evaluate(*d.n, n)
	if err != nil {
		return "", err
	}

	d.mu.Lock()
	d.nCache[n] = out
	d.mu.Unlock()
	return out, nil
}
