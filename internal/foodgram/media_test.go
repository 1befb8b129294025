package foodgram

import (
	"os"
	"path/filepath"
	"time"
)

func (s *ServiceTestSuite) TestPruneMedia() {
	alice := s.register("alice")
	recipe := s.createRecipe(alice, "Pancakes", map[string]float64{"flour": 200})

	orphan, err := s.images.SaveDataURI(s.png)
	s.Require().NoError(err)
	old := time.Now().Add(-time.Hour)
	for _, ref := range []string{orphan, recipe.Recipe.Image} {
		s.Require().NoError(os.Chtimes(filepath.Join(s.mediaFS, filepath.FromSlash(ref)), old, old))
	}

	removed, err := s.svc.PruneMedia(s.ctx, time.Minute)
	s.Require().NoError(err)
	s.Equal(1, removed)

	_, err = os.Stat(filepath.Join(s.mediaFS, filepath.FromSlash(recipe.Recipe.Image)))
	s.NoError(err)
	_, err = os.Stat(filepath.Join(s.mediaFS, filepath.FromSlash(orphan)))
	s.True(os.IsNotExist(err))

	removed, err = s.svc.PruneMedia(s.ctx, time.Minute)
	s.Require().NoError(err)
	s.Zero(removed)
}
