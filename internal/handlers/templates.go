package handlers

import (
	"io"
)

// TemplateExecutor renders a named page. web.Registry satisfies it; tests
// may pass a plain *template.Template.
type TemplateExecutor interface {
	ExecuteTemplate(wr io.Writer, name string, data interface{}) error
}
