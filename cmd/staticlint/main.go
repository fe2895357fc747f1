// Package main запускает multichecker.
//
// Он включает:
// - стандартные анализаторы go/analysis/passes
// - все SA-анализаторы staticcheck
// - S1000 (упрощения) и ST1005 (формат текста ошибок)
// - bodyclose
// - собственные анализаторы noexit (os.Exit и log.Fatal в main)
// и nostdlog (печать мимо zap в библиотечных пакетах)
//
// Запуск:
//
//	go run ./cmd/staticlint ./...
package main

import (
	"github.com/timakin/bodyclose/passes/bodyclose"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/errorsas"
	"golang.org/x/tools/go/analysis/passes/httpresponse"
	"golang.org/x/tools/go/analysis/passes/lostcancel"
	"golang.org/x/tools/go/analysis/passes/nilness"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/shadow"
	"golang.org/x/tools/go/analysis/passes/structtag"
	"golang.org/x/tools/go/analysis/passes/unusedresult"
	"honnef.co/go/tools/analysis/lint"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"

	"github.com/Totarae/shortlink/cmd/staticlint/noexit"
	"github.com/Totarae/shortlink/cmd/staticlint/nostdlog"
)

func main() {
	analyzers := []*analysis.Analyzer{
		errorsas.Analyzer,
		httpresponse.Analyzer,
		lostcancel.Analyzer,
		nilness.Analyzer,
		printf.Analyzer,
		shadow.Analyzer,
		structtag.Analyzer,
		unusedresult.Analyzer,
	}

	// SA-анализаторы
	for _, a := range staticcheck.Analyzers {
		if a.Analyzer.Name[:2] == "SA" {
			analyzers = append(analyzers, a.Analyzer)
		}
	}

	if a := findAnalyzer("S1000"); a != nil {
		analyzers = append(analyzers, a)
	}
	if a := findAnalyzer("ST1005"); a != nil {
		analyzers = append(analyzers, a)
	}

	analyzers = append(analyzers,
		bodyclose.Analyzer,
		noexit.NewAnalyzer(),
		nostdlog.Analyzer,
	)

	multichecker.Main(analyzers...)
}

// findAnalyzer ищет анализатор по имени в simple и stylecheck.
func findAnalyzer(name string) *analysis.Analyzer {
	for _, set := range [][]*lint.Analyzer{simple.Analyzers, stylecheck.Analyzers} {
		for _, a := range set {
			if a.Analyzer.Name == name {
				return a.Analyzer
			}
		}
	}
	return nil
}
