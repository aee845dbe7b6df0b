package playerjs

import (
	"fmt"
	"time"

	"github.com/dop251/goja"

	"github.com/mediastrand/ytcore/internal/types"
)

// DefaultEvalBudget bounds a single transform evaluation. Exceeding it is a
// decipher failure, not a panic.
const DefaultEvalBudget = 2 * time.Second

// Evaluator runs an extracted transform against one ciphertext argument.
// It is a capability boundary: the core logic only ever sees this interface,
// so tests can substitute a fake without touching any interpreter.
type Evaluator interface {
	Evaluate(t Transform, arg string) (string, error)
}

// GojaEvaluator executes transforms in a fresh goja interpreter per call.
// The interpreter has no host bindings: no network, filesystem or timers.
type GojaEvaluator struct {
	// Budget is the hard wall-clock limit per evaluation.
	// Zero means DefaultEvalBudget.
	Budget time.Duration
}

// Evaluate loads t.Source into a new interpreter and invokes t.Name with arg.
// Each call gets a fresh context, so no state leaks between evaluations.
func (e *GojaEvaluator) Evaluate(t Transform, arg string) (out string, err error) {
	budget := e.Budget
	if budget <= 0 {
		budget = DefaultEvalBudget
	}

	defer func() {
		if r := recover(); r != nil {
			out = ""
			err = fmt.Errorf("%w: evaluator panic: %v", types.ErrDecipher, r)
		}
	}()

	vm := goja.New()
	watchdog := time.AfterFunc(budget, func() {
		vm.Interrupt("evaluation budget exceeded")
	})
	defer watchdog.Stop()

	if _, err := vm.RunString(t.Source); err != nil {
		return "", fmt.Errorf("%w: load %s transform: %v", types.ErrDecipher, t.Kind, err)
	}
	fn, ok := goja.AssertFunction(vm.Get(t.Name))
	if !ok {
		return "", fmt.Errorf("%w: %s entry point %q is not callable", types.ErrDecipher, t.Kind, t.Name)
	}
	result, err := fn(goja.Undefined(), vm.ToValue(arg))
	if err != nil {
		return "", fmt.Errorf("%w: invoke %s transform: %v", types.ErrDecipher, t.Kind, err)
	}
	return result.String(), nil
}
