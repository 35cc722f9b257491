// Package generator writes the source files of a scaffolded REST service.
//
// Every write is create-if-absent: regenerating a file with identical
// content is a no-op, regenerating it with different content fails with a
// *ConflictError and leaves the existing file alone.
package generator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/sergi/go-diff/diffmatchpatch"
)

// SourceRoot is the directory generated classes live under.
const SourceRoot = "src"

type Kind string

const (
	KindResource   Kind = "resource"
	KindFactory    Kind = "factory"
	KindEntity     Kind = "entity"
	KindCollection Kind = "collection"
)

// Artifact describes one class to generate.
type Artifact struct {
	Kind Kind
	// Class is fully-qualified, e.g. BarConf\V1\Rest\Foo\FooResource.
	Class string
	// Target is the fully-qualified class a factory builds.
	Target string
}

// ConflictError is returned when a generated file already exists with
// different content.
type ConflictError struct {
	Path string
	Diff string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("file %s already exists with different content:\n%s", e.Path, e.Diff)
}

type Generator struct {
	fs       Filesystem
	renderer Renderer
	logger   *log.Logger
	bases    map[Kind]string
}

type Option func(*Generator)

func WithRenderer(r Renderer) Option {
	return func(g *Generator) {
		g.renderer = r
	}
}

func WithLogger(l *log.Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

// WithBaseClass sets the fully-qualified class generated classes of kind
// extend. An empty class generates a class without parent.
func WithBaseClass(kind Kind, class string) Option {
	return func(g *Generator) {
		g.bases[kind] = class
	}
}

func New(fsys Filesystem, opts ...Option) *Generator {
	g := &Generator{
		fs:     fsys,
		logger: log.New(io.Discard),
		bases: map[Kind]string{
			KindResource:   `Laminas\ApiTools\Rest\AbstractResourceListener`,
			KindCollection: `Laminas\Paginator\Paginator`,
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.renderer == nil {
		g.renderer = NewTemplateRenderer(nil)
	}
	return g
}

// PathFor maps a fully-qualified class to its source file.
func PathFor(class string) string {
	return path.Join(SourceRoot, strings.ReplaceAll(class, `\`, "/")+".php")
}

// DirFor maps a namespace to its source directory.
func DirFor(namespace string) string {
	return path.Join(SourceRoot, strings.ReplaceAll(namespace, `\`, "/"))
}

// Generate renders the artifact and writes it unless an identical file
// exists. It returns the fully-qualified class name.
func (g *Generator) Generate(ctx context.Context, a Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ns, name := splitClass(a.Class)
	data := TemplateData{
		Namespace: ns,
		ClassName: name,
		Class:     a.Class,
		Extends:   g.bases[a.Kind],
		Target:    shortName(a.Target),
	}

	content, err := g.renderer.Render(string(a.Kind), data)
	if err != nil {
		return "", err
	}

	file := PathFor(a.Class)
	if err := g.writeIfAbsent(file, content); err != nil {
		return "", err
	}

	g.logger.Debug("generated class", "class", a.Class, "path", file)
	return a.Class, nil
}

func (g *Generator) writeIfAbsent(file string, content []byte) error {
	existing, err := g.fs.ReadFile(file)
	switch {
	case err == nil:
		if bytes.Equal(existing, content) {
			return nil
		}
		return &ConflictError{Path: file, Diff: textDiff(string(existing), string(content))}
	case errors.Is(err, fs.ErrNotExist):
		return g.fs.WriteFile(file, content)
	default:
		return fmt.Errorf("failed to read %s: %w", file, err)
	}
}

// DeleteArtifacts removes the generated sources of a service namespace.
// Without recursive only the files directly inside the namespace directory
// are removed; the directory and nested namespaces stay.
func (g *Generator) DeleteArtifacts(ctx context.Context, namespace string, recursive bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := DirFor(namespace)
	if recursive {
		if err := g.fs.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove %s: %w", dir, err)
		}
		g.logger.Debug("removed source tree", "path", dir)
		return nil
	}

	entries, err := g.fs.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", dir, err)
	}

	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		file := path.Join(dir, e.Name())
		if err := g.fs.Remove(file); err != nil {
			return fmt.Errorf("failed to remove %s: %w", file, err)
		}
		g.logger.Debug("removed class file", "path", file)
	}
	return nil
}

// CopyTree copies every file below the src namespace to the dst namespace,
// passing content through rewrite. Files already present under dst are
// left untouched.
func (g *Generator) CopyTree(ctx context.Context, src, dst string, rewrite func([]byte) []byte) error {
	return g.copyDir(ctx, DirFor(src), DirFor(dst), rewrite)
}

func (g *Generator) copyDir(ctx context.Context, src, dst string, rewrite func([]byte) []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	entries, err := g.fs.ReadDir(src)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}

	for _, e := range entries {
		from, to := path.Join(src, e.Name()), path.Join(dst, e.Name())
		if e.IsDir() {
			if err := g.copyDir(ctx, from, to, rewrite); err != nil {
				return err
			}
			continue
		}

		if _, err := g.fs.ReadFile(to); err == nil {
			continue
		}

		content, err := g.fs.ReadFile(from)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", from, err)
		}
		if rewrite != nil {
			content = rewrite(content)
		}
		if err := g.fs.WriteFile(to, content); err != nil {
			return err
		}
		g.logger.Debug("copied source", "from", from, "path", to)
	}
	return nil
}

func splitClass(class string) (namespace, name string) {
	i := strings.LastIndex(class, `\`)
	if i < 0 {
		return "", class
	}
	return class[:i], class[i+1:]
}

func textDiff(existing, generated string) string {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(existing, generated, false)
	diffs = dmp.DiffCleanupSemantic(diffs)
	return dmp.PatchToText(dmp.PatchMake(diffs))
}
