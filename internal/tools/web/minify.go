package web

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"

	"github.com/kballard/go-shellquote"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"
	"go.trai.ch/kiln/internal/core/domain"
	"go.trai.ch/zerr"
)

// JS minifier configuration keys.
const (
	KeyJSMinBackend   = "JSMIN_BACKEND"
	KeyJSMinFlags     = "JSMIN_FLAGS"
	KeyJSMinMangle    = "JSMIN_MANGLE"
	KeyJSMinCompress  = "JSMIN_COMPRESS"
	KeyJSMinSourceMap = "JSMIN_SOURCE_MAP"
)

// JS minifier backends.
const (
	BackendUglifyJS = "uglifyjs"
	BackendTerser   = "terser"
	BackendClosure  = "closure"
)

// HTML minifier configuration keys.
const (
	KeyHTMLMinBackend            = "HTMLMIN_BACKEND"
	KeyHTMLMinFlags              = "HTMLMIN_FLAGS"
	KeyHTMLMinCollapseWhitespace = "HTMLMIN_COLLAPSE_WHITESPACE"
	KeyHTMLMinRemoveComments     = "HTMLMIN_REMOVE_COMMENTS"
	KeyHTMLMinMinifyJS           = "HTMLMIN_MINIFY_JS"
	KeyHTMLMinMinifyCSS          = "HTMLMIN_MINIFY_CSS"
)

// BackendHTMLMinifier is the node html-minifier.
const BackendHTMLMinifier = "html-minifier"

const (
	mediaJS   = "application/javascript"
	mediaHTML = "text/html"
	mediaCSS  = "text/css"
)

var jsMediaTypes = regexp.MustCompile("^(application|text)/(x-)?(java|ecma)script$")

var jsMinOptions = []option{
	{key: KeyJSMinFlags, list: true},
	{key: KeyJSMinMangle},
	{key: KeyJSMinCompress},
	{key: KeyJSMinSourceMap},
}

var htmlMinOptions = []option{
	{key: KeyHTMLMinFlags, list: true},
	{key: KeyHTMLMinCollapseWhitespace},
	{key: KeyHTMLMinRemoveComments},
	{key: KeyHTMLMinMinifyJS},
	{key: KeyHTMLMinMinifyCSS},
}

func jsMinBackend(env *domain.Env) (string, error) {
	backend, err := selectBackend(env, KeyJSMinBackend, BackendUglifyJS, BackendTerser, BackendClosure, BuiltinBackend)
	if err != nil {
		return "", err
	}

	supported := []string{KeyJSMinFlags, KeyJSMinMangle, KeyJSMinCompress, KeyJSMinSourceMap}
	switch backend {
	case BackendClosure:
		supported = []string{KeyJSMinFlags, KeyJSMinCompress, KeyJSMinSourceMap}
	case BuiltinBackend:
		supported = []string{KeyJSMinMangle, KeyJSMinCompress}
	}
	if err := checkOptions(env, backend, jsMinOptions, supported...); err != nil {
		return "", err
	}
	return backend, nil
}

// JSMinCommand generates the command line that minifies sources into
// targets[0]. The builtin backend runs in-process and has no command line.
func JSMinCommand(env *domain.Env, targets, sources []domain.Node) (string, error) {
	backend, err := jsMinBackend(env)
	if err != nil {
		return "", err
	}

	switch backend {
	case BuiltinBackend:
		return "", nil
	case BackendClosure:
		inputs := make([]string, 0, 2*len(sources))
		for _, src := range sources {
			inputs = append(inputs, "--js", shellquote.Join(src.Path()))
		}
		level := "WHITESPACE_ONLY"
		if env.Bool(KeyJSMinCompress) {
			level = "SIMPLE"
		}
		return commandLine(env, targets, sources,
			[]string{"$CLOSURE_COMPILER", "$JSMIN_FLAGS", "--compilation_level", level},
			inputs,
			[]string{"--js_output_file", "$TARGET"},
			flagIf(env, KeyJSMinSourceMap, "--create_source_map ${TARGET}.map"),
		)
	default:
		compiler := "$UGLIFYJS"
		if backend == BackendTerser {
			compiler = "$TERSER"
		}
		return commandLine(env, targets, sources,
			[]string{compiler, "$SOURCES", "--output", "$TARGET"},
			flagIf(env, KeyJSMinCompress, "--compress"),
			flagIf(env, KeyJSMinMangle, "--mangle"),
			flagIf(env, KeyJSMinSourceMap, "--source-map"),
			[]string{"$JSMIN_FLAGS"},
		)
	}
}

func jsMinEmitter(env *domain.Env, targets, sources []domain.Node) ([]domain.Node, []domain.Node, error) {
	if env.Bool(KeyJSMinSourceMap) && env.String(KeyJSMinBackend) != BuiltinBackend {
		targets = append(targets, targets[0].Rel(targets[0].Path()+".map"))
	}
	return targets, sources, nil
}

func htmlMinBackend(env *domain.Env) (string, error) {
	backend, err := selectBackend(env, KeyHTMLMinBackend, BackendHTMLMinifier, BuiltinBackend)
	if err != nil {
		return "", err
	}

	supported := []string{
		KeyHTMLMinFlags, KeyHTMLMinCollapseWhitespace, KeyHTMLMinRemoveComments,
		KeyHTMLMinMinifyJS, KeyHTMLMinMinifyCSS,
	}
	if backend == BuiltinBackend {
		supported = supported[1:]
	}
	if err := checkOptions(env, backend, htmlMinOptions, supported...); err != nil {
		return "", err
	}
	return backend, nil
}

// HTMLMinCommand generates the command line that minifies sources[0] into
// targets[0]. The builtin backend runs in-process and has no command line.
func HTMLMinCommand(env *domain.Env, targets, sources []domain.Node) (string, error) {
	backend, err := htmlMinBackend(env)
	if err != nil {
		return "", err
	}
	if backend == BuiltinBackend {
		return "", nil
	}

	return commandLine(env, targets, sources,
		[]string{"$HTML_MINIFIER"},
		flagIf(env, KeyHTMLMinCollapseWhitespace, "--collapse-whitespace"),
		flagIf(env, KeyHTMLMinRemoveComments, "--remove-comments"),
		flagIf(env, KeyHTMLMinMinifyJS, "--minify-js"),
		flagIf(env, KeyHTMLMinMinifyCSS, "--minify-css"),
		[]string{"$HTMLMIN_FLAGS", "--output", "$TARGET", "$SOURCE"},
	)
}

// minifyAction runs the builtin backend in-process and every other backend
// through the generated command line.
func minifyAction(backendOf func(*domain.Env) (string, error), gen domain.GeneratorFunc, builtin func(context.Context, *domain.Step) error) domain.Action {
	return domain.ActionFunc(func(step *domain.Step) (domain.Invocation, error) {
		backend, err := backendOf(step.Env)
		if err != nil {
			return domain.Invocation{}, err
		}
		if backend == BuiltinBackend {
			return domain.Invocation{Func: func(ctx context.Context) error {
				return builtin(ctx, step)
			}}, nil
		}
		line, err := gen(step.Env, step.Targets, step.Sources)
		if err != nil {
			return domain.Invocation{}, err
		}
		return domain.Invocation{Command: line}, nil
	})
}

// NewJSMinifier returns the minifier used by the builtin JSMin backend.
func NewJSMinifier(env *domain.Env) *minify.M {
	m := minify.New()
	m.AddRegexp(jsMediaTypes, &js.Minifier{KeepVarNames: !env.Bool(KeyJSMinMangle)})
	return m
}

// NewHTMLMinifier returns the minifier used by the builtin HTMLMin backend.
// Turning HTMLMIN_REMOVE_COMMENTS off keeps conditional comments, the
// others are always dropped.
func NewHTMLMinifier(env *domain.Env) *minify.M {
	m := minify.New()
	m.Add(mediaHTML, &html.Minifier{
		KeepConditionalComments: !env.Bool(KeyHTMLMinRemoveComments),
		KeepDocumentTags:        true,
		KeepEndTags:             true,
		KeepWhitespace:          !env.Bool(KeyHTMLMinCollapseWhitespace),
	})
	if env.Bool(KeyHTMLMinMinifyJS) {
		m.AddFuncRegexp(jsMediaTypes, js.Minify)
	}
	if env.Bool(KeyHTMLMinMinifyCSS) {
		m.AddFunc(mediaCSS, css.Minify)
	}
	return m
}

func builtinJSMin(_ context.Context, step *domain.Step) error {
	var src bytes.Buffer
	for _, s := range step.Sources {
		data, err := os.ReadFile(s.OSPath())
		if err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", s.Path())
		}
		src.Write(data)
		src.WriteString(";\n")
	}
	return minifyTo(NewJSMinifier(step.Env), mediaJS, step, &src)
}

func builtinHTMLMin(_ context.Context, step *domain.Step) error {
	data, err := os.ReadFile(step.Sources[0].OSPath())
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileOpenFailed.Error()), "path", step.Sources[0].Path())
	}
	return minifyTo(NewHTMLMinifier(step.Env), mediaHTML, step, bytes.NewReader(data))
}

func minifyTo(m *minify.M, mediatype string, step *domain.Step, src io.Reader) error {
	target := step.Targets[0]

	var out bytes.Buffer
	if err := m.Minify(mediatype, &out, src); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrMinifyFailed.Error()), "path", target.Path())
	}

	if err := os.WriteFile(target.OSPath(), out.Bytes(), domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrFileCreateFailed.Error()), "path", target.Path())
	}

	if step.Out != nil {
		_, _ = fmt.Fprintf(step.Out, "minified %s (%d bytes)\n", target.Path(), out.Len())
	}
	return nil
}
