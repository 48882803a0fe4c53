package validation

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/mediaforge/renditions/common/imaging"
)

// programCache memoizes compiled CEL programs across rule instances
type programCache struct {
	cache map[string]cel.Program
	mu    sync.RWMutex
}

var expressionPrograms = &programCache{cache: make(map[string]cel.Program)}

func (c *programCache) get(expr string) (cel.Program, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	prg, ok := c.cache[expr]
	return prg, ok
}

func (c *programCache) put(expr string, prg cel.Program) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache[expr] = prg
}

// ExpressionRule evaluates a CEL expression over image metadata. The
// expression sees the variables width, height, size (kilobytes) and
// format, and must produce a boolean.
type ExpressionRule struct {
	expr string
	prg  cel.Program
}

// NewExpressionRule compiles expr. Compilation errors surface here, not
// at evaluation time.
func NewExpressionRule(expr string) (*ExpressionRule, error) {
	if expr == "" {
		return nil, fmt.Errorf("expression_rule: empty expression")
	}

	if prg, ok := expressionPrograms.get(expr); ok {
		return &ExpressionRule{expr: expr, prg: prg}, nil
	}

	env, err := cel.NewEnv(
		cel.Variable("width", cel.IntType),
		cel.Variable("height", cel.IntType),
		cel.Variable("size", cel.DoubleType),
		cel.Variable("format", cel.StringType),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("CEL compilation error: %w", issues.Err())
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL program: %w", err)
	}

	expressionPrograms.put(expr, prg)
	return &ExpressionRule{expr: expr, prg: prg}, nil
}

// Check evaluates the expression against meta. A runtime evaluation
// error or a non-boolean result counts as a violation.
func (r *ExpressionRule) Check(meta *imaging.Metadata) *Violation {
	out, _, err := r.prg.Eval(map[string]interface{}{
		"width":  meta.Width,
		"height": meta.Height,
		"size":   meta.Size,
		"format": string(meta.Format),
	})
	if err != nil {
		return &Violation{
			Rule:    "expression_rule",
			Message: fmt.Sprintf("CEL evaluation error: %v", err),
		}
	}

	result, ok := out.Value().(bool)
	if !ok {
		return &Violation{
			Rule:    "expression_rule",
			Message: fmt.Sprintf("CEL expression did not return boolean, got %T", out.Value()),
		}
	}

	if !result {
		return &Violation{
			Rule:    "expression_rule",
			Message: fmt.Sprintf("expression %q not satisfied", r.expr),
		}
	}
	return nil
}
