package mock

import "github.com/fwojciec/mcscrape"

var _ mcscrape.Renderer = (*Renderer)(nil)

// Renderer is a mock implementation of mcscrape.Renderer.
type Renderer struct {
	RenderFn func(tree *mcscrape.Tree) (string, string, error)
}

func (r *Renderer) Render(tree *mcscrape.Tree) (string, string, error) {
	return r.RenderFn(tree)
}
