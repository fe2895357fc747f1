// Package nostdlog содержит анализатор, запрещающий печать через log и fmt.Print*
// вне пакета main и тестов. Для логов используется zap.
package nostdlog

import (
	"go/ast"
	"go/types"
	"strings"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

var Analyzer = &analysis.Analyzer{
	Name:     "nostdlog",
	Doc:      "запрещает log.* и fmt.Print* в библиотечных пакетах",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

func run(pass *analysis.Pass) (any, error) {
	if pass.Pkg.Name() == "main" {
		return nil, nil
	}
	insp := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	insp.Preorder([]ast.Node{(*ast.CallExpr)(nil)}, func(n ast.Node) {
		call := n.(*ast.CallExpr)
		if strings.HasSuffix(pass.Fset.File(call.Pos()).Name(), "_test.go") {
			return
		}
		sel, ok := call.Fun.(*ast.SelectorExpr)
		if !ok {
			return
		}
		fn, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
		if !ok || fn.Pkg() == nil {
			return
		}

		switch path := fn.Pkg().Path(); {
		case path == "log":
			pass.Reportf(call.Pos(), "log.%s: используйте zap.Logger", fn.Name())
		case path == "fmt" && strings.HasPrefix(fn.Name(), "Print"):
			pass.Reportf(call.Pos(), "fmt.%s: используйте zap.Logger", fn.Name())
		}
	})
	return nil, nil
}
