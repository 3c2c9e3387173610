package detect

import (
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonhull/mqaid/internal/flac/flactest"
	"github.com/simonhull/mqaid/internal/types"
)

func TestValidate(t *testing.T) {
	fsys := memfs.New()
	flacData := flactest.MustBuild(flactest.Stereo(44100, 16, make([]int32, 100), make([]int32, 100)))

	write := func(path string, data []byte) {
		require.NoError(t, util.WriteFile(fsys, path, data, 0o644))
	}
	write("/ok.flac", flacData)
	write("/UPPER.FLAC", flacData)
	write("/misnamed.txt", flacData)
	write("/noext", flacData)
	write("/text.flac", []byte("hello, world"))
	write("/song.flac", []byte("ID3\x04\x00\x00\x00\x00\x00\x00"))
	write("/tiny.flac", []byte("fL"))
	require.NoError(t, fsys.MkdirAll("/dir.flac", 0o755))
	require.NoError(t, fsys.Symlink("/ok.flac", "/link.flac"))

	tests := []struct {
		path   string
		reason string
	}{
		{path: "/ok.flac"},
		{path: "/UPPER.FLAC"},
		{path: "/link.flac"},
		{path: "/missing.flac", reason: "Path does not exist"},
		{path: "/dir.flac", reason: "Not a regular file"},
		{path: "/text.flac", reason: "Not a FLAC file (unrecognized header)"},
		{path: "/tiny.flac", reason: "Not a FLAC file (unrecognized header)"},
		{path: "/song.flac", reason: "Not a FLAC file (MP3 header)"},
		{path: "/misnamed.txt", reason: "Unexpected file extension (.txt)"},
		{path: "/noext", reason: "Unexpected file extension (none)"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, err := Validate(fsys, tt.path, types.FormatFLAC.Extensions())
			if tt.reason == "" {
				require.NoError(t, err)
				assert.Equal(t, types.FormatFLAC, format)
				return
			}
			require.Error(t, err)
			assert.Equal(t, types.KindValidation, types.KindOf(err))
			assert.Equal(t, tt.reason, types.Reason(err))
			assert.NotContains(t, types.Reason(err), tt.path)
		})
	}
}

func TestValidate_CustomExtensions(t *testing.T) {
	fsys := memfs.New()
	data := flactest.MustBuild(flactest.Stereo(44100, 16, make([]int32, 10), make([]int32, 10)))
	require.NoError(t, util.WriteFile(fsys, "/a.fla", data, 0o644))

	_, err := Validate(fsys, "/a.fla", []string{".flac", ".fla"})
	assert.NoError(t, err)
}
