package media

import (
	"bytes"
	"encoding/binary"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"folder-albums/internal/model"
)

// tiffWithDate builds a little endian TIFF whose only tag is DateTime.
func tiffWithDate(date string) []byte {
	value := append([]byte(date), 0)
	var b bytes.Buffer
	b.WriteString("II")
	binary.Write(&b, binary.LittleEndian, uint16(42))
	binary.Write(&b, binary.LittleEndian, uint32(8))
	// IFD0 with a single entry.
	binary.Write(&b, binary.LittleEndian, uint16(1))
	binary.Write(&b, binary.LittleEndian, uint16(0x0132))
	binary.Write(&b, binary.LittleEndian, uint16(2))
	binary.Write(&b, binary.LittleEndian, uint32(len(value)))
	binary.Write(&b, binary.LittleEndian, uint32(8+2+12+4))
	binary.Write(&b, binary.LittleEndian, uint32(0))
	b.Write(value)
	return b.Bytes()
}

func useMemFs(t *testing.T) afero.Fs {
	t.Helper()
	mem := afero.NewMemMapFs()
	prev := fs
	SetFs(mem)
	t.Cleanup(func() { SetFs(prev) })
	return mem
}

func TestCaptureTime(t *testing.T) {
	mem := useMemFs(t)
	require.NoError(t, afero.WriteFile(mem, "/lib/a.tif", tiffWithDate("2021:05:06 07:08:09"), 0o644))
	require.NoError(t, afero.WriteFile(mem, "/lib/b.jpg", []byte("not an image"), 0o644))

	got, ok := CaptureTime("/lib/a.tif")
	require.True(t, ok)
	assert.True(t, time.Date(2021, 5, 6, 7, 8, 9, 0, time.Local).Equal(got))

	_, ok = CaptureTime("/lib/b.jpg")
	assert.False(t, ok)
	_, ok = CaptureTime("/lib/missing.jpg")
	assert.False(t, ok)
}

func TestDaterOrdering(t *testing.T) {
	mem := useMemFs(t)
	require.NoError(t, afero.WriteFile(mem, "/lib/late.tif", tiffWithDate("1999:01:01 00:00:00"), 0o644))

	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	assets := []model.Asset{
		{ID: "b", OriginalPath: "/lib/b.jpg", FileCreatedAt: base.Add(time.Hour)},
		{ID: "late", OriginalPath: "/lib/late.tif", FileCreatedAt: base.Add(48 * time.Hour)},
		{ID: "a", OriginalPath: "/lib/a.jpg", FileCreatedAt: base},
	}

	first, ok := Dater{}.First(assets)
	require.True(t, ok)
	assert.Equal(t, "a", first.ID)
	last, _ := Dater{}.Last(assets)
	assert.Equal(t, "late", last.ID)

	// The EXIF date of late.tif predates every server timestamp.
	first, _ = Dater{UseExif: true}.First(assets)
	assert.Equal(t, "late", first.ID)
	last, _ = Dater{UseExif: true}.Last(assets)
	assert.Equal(t, "b", last.ID)

	_, ok = Dater{}.First(nil)
	assert.False(t, ok)
}
