// Package web provides builders and dependency scanners for front-end assets:
// LESS stylesheets, CoffeeScript and Dart sources, and JS/HTML minification.
package web

import (
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/kiln/internal/core/ports"
)

// Builder names.
const (
	LessBuilder    = "Less"
	CoffeeBuilder  = "Coffee"
	Dart2JsBuilder = "Dart2Js"
	JSMinBuilder   = "JSMin"
	HTMLMinBuilder = "HTMLMin"
)

var _ ports.Tool = (*Tool)(nil)

// Tool registers the web builders and scanners.
type Tool struct{}

// New creates the web tool.
func New() *Tool {
	return &Tool{}
}

// Name implements ports.Tool.
func (t *Tool) Name() string {
	return "web"
}

// Exists implements ports.Tool. Missing compilers surface when a step runs.
func (t *Tool) Exists(*domain.Env) bool {
	return true
}

// Generate implements ports.Tool.
func (t *Tool) Generate(reg *domain.Registry, env *domain.Env, _ ports.Logger) error {
	setDefaults(env)

	builders := []*domain.Builder{
		{
			Name:      LessBuilder,
			Action:    domain.GeneratorAction(LessCommand),
			Suffix:    ".css",
			SrcSuffix: ".less",
			Emitter:   lessEmitter,
		},
		{
			Name:         CoffeeBuilder,
			Action:       domain.GeneratorAction(CoffeeCommand),
			Suffix:       ".js",
			SrcSuffix:    ".coffee",
			SingleSource: true,
			Emitter:      coffeeEmitter,
		},
		{
			Name:         Dart2JsBuilder,
			Action:       domain.CommandAction("$DART2JS -c $DART2JS_FLAGS $SOURCE -o$TARGET"),
			Suffix:       ".dart.js",
			SrcSuffix:    ".dart",
			SingleSource: true,
			Emitter:      dartEmitter,
		},
		{
			Name:      JSMinBuilder,
			Action:    minifyAction(jsMinBackend, JSMinCommand, builtinJSMin),
			Suffix:    ".min.js",
			SrcSuffix: ".js",
			Emitter:   jsMinEmitter,
		},
		{
			Name:         HTMLMinBuilder,
			Action:       minifyAction(htmlMinBackend, HTMLMinCommand, builtinHTMLMin),
			Suffix:       ".min.html",
			SrcSuffix:    ".html",
			SingleSource: true,
		},
	}
	for _, b := range builders {
		if err := reg.AddBuilder(b); err != nil {
			return err
		}
	}

	scanners := []*domain.Scanner{
		{Name: "less", Skeys: []string{".less"}, Scan: ScanLess},
		{Name: "coffee", Skeys: []string{".coffee"}, Scan: ScanCoffee},
		{Name: "dart", Skeys: []string{".dart"}, Scan: ScanDart},
	}
	for _, s := range scanners {
		if err := reg.AddScanner(s); err != nil {
			return err
		}
	}
	return nil
}

func setDefaults(env *domain.Env) {
	env.SetDefault("LESSC", "lessc")
	env.SetDefault("PLESSC", "plessc")
	env.SetDefault(KeyLessBackend, BackendLessc)
	env.SetDefault(KeyLessIncludePath, []string{})
	env.SetDefault(KeyLessFlags, []string{})
	env.SetDefault(KeyLessCompress, false)
	env.SetDefault(KeyLessSourceMap, false)
	env.SetDefault(KeyLessStrictMath, false)

	env.SetDefault("COFFEE", "coffee")
	env.SetDefault("ICED", "iced")
	env.SetDefault(KeyCoffeeBackend, BackendCoffee)
	env.SetDefault(KeyCoffeeFlags, []string{})
	env.SetDefault(KeyCoffeeBare, false)
	env.SetDefault(KeyCoffeeMap, false)
	env.SetDefault(KeyCoffeeNoHeader, false)
	env.SetDefault(KeyCoffeeTranspile, false)
	env.SetDefault(KeyCoffeeIgnorePrefix, "~")
	env.SetDefault(KeyCoffeeJSSuffix, ".js")
	env.SetDefault(KeyCoffeeJSRoot, "")

	env.SetDefault("DART2JS", "dart2js")
	env.SetDefault("DART2JS_FLAGS", []string{})

	env.SetDefault("UGLIFYJS", "uglifyjs")
	env.SetDefault("TERSER", "terser")
	env.SetDefault("CLOSURE_COMPILER", "closure-compiler")
	env.SetDefault(KeyJSMinBackend, BackendUglifyJS)
	env.SetDefault(KeyJSMinFlags, []string{})
	env.SetDefault(KeyJSMinMangle, false)
	env.SetDefault(KeyJSMinCompress, false)
	env.SetDefault(KeyJSMinSourceMap, false)

	env.SetDefault("HTML_MINIFIER", "html-minifier")
	env.SetDefault(KeyHTMLMinBackend, BackendHTMLMinifier)
	env.SetDefault(KeyHTMLMinFlags, []string{})
	env.SetDefault(KeyHTMLMinCollapseWhitespace, true)
	env.SetDefault(KeyHTMLMinRemoveComments, true)
	env.SetDefault(KeyHTMLMinMinifyJS, false)
	env.SetDefault(KeyHTMLMinMinifyCSS, false)
}
