package playerjs

// TransformKind identifies which URL parameter a transform descrambles.
type TransformKind string

const (
	KindSignature TransformKind = "signature"
	KindNParam    TransformKind = "nparam"
)

// Transform is one extracted transform: loadable function source plus the
// global entry-point name to invoke. Derived once per player asset and
// immutable thereafter.
type Transform struct {
	Kind   TransformKind
	Name   string
	Source string
}
