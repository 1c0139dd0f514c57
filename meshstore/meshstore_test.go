package meshstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/godeepar/geoxchange/host"
)

func TestWriteRead(t *testing.T) {
	require := require.New(t)

	square := &host.PolyhedralSurface{Patches: [][]host.Coord{
		{{X: 0, Y: 0, Z: 1}, {X: 4, Y: 0, Z: 1}, {X: 4, Y: 4, Z: 1}, {X: 0, Y: 4, Z: 1}},
	}}
	box := &host.PolyhedralSurface{Patches: [][]host.Coord{
		{{X: 0, Y: 0, Z: 0}, {X: 1, Y: 0, Z: 0}, {X: 1, Y: 1, Z: 0}},
		{{X: 0, Y: 0, Z: 2}, {X: 1, Y: 0, Z: 2}, {X: 1, Y: 1, Z: 3}},
	}}
	path := filepath.Join(t.TempDir(), "staged.shp")
	require.NoError(Write(path, []Entry{{ID: "f-1", Mesh: square}, {ID: "f-2", Mesh: box}}))

	entries, err := Read(path)
	require.NoError(err)
	require.Len(entries, 2)
	require.Equal("f-1", entries[0].ID)
	require.Equal(square, entries[0].Mesh)
	require.Equal("f-2", entries[1].ID)
	require.Equal(box, entries[1].Mesh)
}

func TestWriteRejectsEmptyPatch(t *testing.T) {
	require := require.New(t)

	dir := t.TempDir()
	err := Write(filepath.Join(dir, "bad.shp"), []Entry{{ID: "x", Mesh: &host.PolyhedralSurface{Patches: [][]host.Coord{{{X: 1}, {X: 2}}}}}})
	require.ErrorIs(err, ErrEmptyPatch)

	err = Write(filepath.Join(dir, "nil.shp"), []Entry{{ID: "y"}})
	require.ErrorIs(err, ErrEmptyPatch)

	_, err = Read(filepath.Join(dir, "missing.shp"))
	require.Error(err)
}
