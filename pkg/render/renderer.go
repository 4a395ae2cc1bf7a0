package render

import (
	"context"
)

// Renderer turns a Report into bytes for one output format.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, report Report) ([]byte, error)
}
