package expression

import (
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/relink-tools/relink/pkg/config"
)

// Compile turns expression strings into runnable programs evaluated
// against a config.File environment. Expressions must yield a boolean.
func Compile(expressions []string) ([]CompiledExpression, error) {
	compiled := make([]CompiledExpression, 0, len(expressions))

	for _, text := range expressions {
		program, err := expr.Compile(text, expr.Env(config.File{}), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("compile expression %q: %w", text, err)
		}

		compiled = append(compiled, CompiledExpression{
			Text:    text,
			Program: program,
		})
	}

	return compiled, nil
}
