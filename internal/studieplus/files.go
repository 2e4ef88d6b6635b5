package studieplus

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// signConcurrency caps parallel URL-signing RPCs per listing.
const signConcurrency = 4

// attachSignedURLs resolves a signed download URL for each file in place.
// A failed signing leaves that file's URL empty rather than failing the
// whole listing.
func (s *Service) attachSignedURLs(ctx context.Context, files []FileView) {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(signConcurrency)

	for i := range files {
		f := &files[i]
		g.Go(func() error {
			u, err := s.transport.FetchSignedURL(ctx, f.ID)
			if err != nil {
				s.log.Debug().Err(err).Int64("file", f.ID).Msg("url signing failed")
				return nil
			}
			f.URL = u
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.log.Warn().Err(err).Msg("url signing pool failed")
	}
}
