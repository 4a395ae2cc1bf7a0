// Package template wraps pongo2 behind the small Renderer interface the report
// renderers depend on. Templates are loaded from an fs.FS and cached after the
// first parse.
package template
