package astpack

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// decodeBodies turns the pending body bytes captured during the section
// pass into decoded trees. The signature table is sealed by now and the
// dedup arena is per body, so bodies can decode in any order; results land
// at their declaration index either way.
func decodeBodies(m *Module, st *decodeState) error {
	if len(st.bodies) == 0 {
		return nil
	}

	if st.opts.Workers < 2 {
		for _, p := range st.bodies {
			body, err := decodeBody(p, st.sigs, st.opts.Tree)
			if err != nil {
				return err
			}
			m.Functions[p.index].Body = body
		}
		return nil
	}

	Logger().Debug("decoding function bodies concurrently",
		zap.Int("bodies", len(st.bodies)),
		zap.Int("workers", st.opts.Workers))

	var g errgroup.Group
	g.SetLimit(st.opts.Workers)
	for _, p := range st.bodies {
		p := p
		g.Go(func() error {
			body, err := decodeBody(p, st.sigs, st.opts.Tree)
			if err != nil {
				return err
			}
			m.Functions[p.index].Body = body
			return nil
		})
	}
	return g.Wait()
}

// decodeBody decodes one function body. The body buffer is exactly the
// declared body-size bytes, so a tree that runs out of bytes means the
// declared length disagrees with the tree's actual extent.
func decodeBody(p pendingBody, sigs *SignatureTable, opts TreeOptions) ([]*AstNode, error) {
	body, err := DecodeTree(p.data, sigs, opts)
	if err != nil {
		if errors.Is(err, ErrTruncatedInput) {
			return nil, fmt.Errorf("function %d: %w: tree extends past declared size %d",
				p.index, ErrBodySizeMismatch, len(p.data))
		}
		return nil, fmt.Errorf("function %d body: %w", p.index, err)
	}
	return body, nil
}
