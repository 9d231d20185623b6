package expression

import (
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/relink-tools/relink/pkg/config"
)

func CheckFileSingleMatch(f config.File, expressions []CompiledExpression) (bool, error) {
	match, _, err := CheckFileSingleMatchWithReason(f, expressions)
	return match, err
}

func CheckFileSingleMatchWithReason(f config.File, expressions []CompiledExpression) (bool, string, error) {
	for _, expression := range expressions {
		result, err := expr.Run(expression.Program, f)
		if err != nil {
			return false, "", fmt.Errorf("check expression: %w", err)
		}

		expResult, ok := result.(bool)
		if !ok {
			return false, "", fmt.Errorf("expression %q did not evaluate to a boolean", expression.Text)
		}

		if expResult {
			return true, expression.Text, nil
		}
	}

	return false, "", nil
}
