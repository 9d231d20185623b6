package expression

import (
	"github.com/expr-lang/expr/vm"
)

type CompiledExpression struct {
	Text    string
	Program *vm.Program
}
