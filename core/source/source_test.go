package source_test

import (
	"path/filepath"
	"testing"

	"dem-manager/core/source"
	"dem-manager/core/tile"

	"github.com/stretchr/testify/assert"
)

func TestOrdered(t *testing.T) {
	sources := []source.Source{
		{Name: "a", Type: tile.SRTM1},
		{Name: "b", Type: tile.SRTM3},
		{Name: "c", Type: tile.SRTM1},
		{Name: "d", Type: tile.SRTM3},
	}

	names := func(ss []source.Source) []string {
		var out []string
		for _, s := range ss {
			out = append(out, s.Name)
		}
		return out
	}

	assert.Equal(t, []string{"b", "d", "a", "c"}, names(source.Ordered(sources, tile.SRTM3)))
	assert.Equal(t, []string{"a", "c", "b", "d"}, names(source.Ordered(sources, tile.SRTM1)))
	assert.Equal(t, "a", sources[0].Name, "input untouched")
}

func TestFromConfig(t *testing.T) {
	sources := source.FromConfig(source.Config{
		DataDir:  "/srv/dem",
		SRTM3URL: "s3://dem/srtm3",
	})

	assert.Len(t, sources, 2)
	assert.Equal(t, filepath.Join("/srv/dem", "SRTM1"), sources[0].Directory)
	assert.False(t, sources[0].CanDownload())
	assert.Equal(t, tile.SRTM3, sources[1].Type)
	assert.True(t, sources[1].CanDownload())
}
