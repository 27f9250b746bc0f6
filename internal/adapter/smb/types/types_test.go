package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalToAbsolute(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name string
		loc  *time.Location
		wall time.Time // wall clock the client sent, expressed in UTC fields
		want time.Time
	}{
		{
			name: "UTC",
			loc:  time.UTC,
			wall: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
			want: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "NilLocationIsUTC",
			loc:  nil,
			wall: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
			want: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
		},
		{
			name: "WinterOffset",
			loc:  ny,
			wall: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC),
			want: time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC),
		},
		{
			name: "SummerOffset",
			loc:  ny,
			wall: time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC),
			want: time.Date(2024, 7, 15, 14, 0, 0, 0, time.UTC),
		},
		{
			name: "FixedZone",
			loc:  time.FixedZone("UTC+2", 2*3600),
			wall: time.Date(2024, 7, 15, 10, 0, 0, 0, time.UTC),
			want: time.Date(2024, 7, 15, 8, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LocalToAbsolute(tt.loc, uint32(tt.wall.Unix()))
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got.UTC())
		})
	}
}

func TestAbsoluteToLocalRoundTrip(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	for _, at := range []time.Time{
		time.Date(2024, 1, 15, 15, 0, 0, 0, time.UTC),
		time.Date(2024, 7, 15, 14, 0, 0, 0, time.UTC),
		time.Date(2030, 12, 31, 23, 59, 59, 0, time.UTC),
	} {
		v := AbsoluteToLocal(ny, at)
		assert.True(t, at.Equal(LocalToAbsolute(ny, v)), "round trip of %v", at)
	}
}

func TestAbsoluteToLocalClamps(t *testing.T) {
	assert.Equal(t, UTimeUnset, AbsoluteToLocal(time.UTC, time.Date(1960, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, UTimeNoChange-1, AbsoluteToLocal(time.UTC, time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestUTimeInRange(t *testing.T) {
	assert.True(t, UTimeInRange(time.UTC, time.Date(1970, 1, 1, 0, 0, 1, 0, time.UTC)))
	assert.True(t, UTimeInRange(nil, time.Date(2106, 2, 7, 6, 28, 14, 0, time.UTC)))
	assert.False(t, UTimeInRange(time.UTC, time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, UTimeInRange(time.UTC, time.Date(1969, 12, 31, 23, 0, 0, 0, time.UTC)))
	assert.False(t, UTimeInRange(time.UTC, time.Date(2106, 2, 7, 6, 28, 15, 0, time.UTC)))

	// One hour after the epoch in UTC is before it on a New York wall clock.
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	assert.False(t, UTimeInRange(ny, time.Date(1970, 1, 1, 1, 0, 0, 0, time.UTC)))
}

func TestIsUTimeSentinel(t *testing.T) {
	assert.True(t, IsUTimeSentinel(0))
	assert.True(t, IsUTimeSentinel(0xFFFFFFFF))
	assert.False(t, IsUTimeSentinel(1))
	assert.False(t, IsUTimeSentinel(0xFFFFFFFE))
}

func TestFileAttributes(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "0", FileAttributes(0).String())
		assert.Equal(t, "READONLY|HIDDEN", (FileAttributeHidden | FileAttributeReadonly).String())
		assert.Equal(t, "DIRECTORY|0x4000", (FileAttributeDirectory | 0x4000).String())
	})

	t.Run("Parse", func(t *testing.T) {
		a, ok := ParseFileAttributes("hidden, ReadOnly")
		require.True(t, ok)
		assert.Equal(t, FileAttributeHidden|FileAttributeReadonly, a)

		a, ok = ParseFileAttributes("none")
		require.True(t, ok)
		assert.Zero(t, a)

		_, ok = ParseFileAttributes("hidden,sparkly")
		assert.False(t, ok)
	})

	t.Run("Has", func(t *testing.T) {
		a := FileAttributeDirectory | FileAttributeArchive
		assert.True(t, a.Has(FileAttributeDirectory))
		assert.False(t, a.Has(FileAttributeHidden))
	})
}

func TestStatus(t *testing.T) {
	assert.Equal(t, "STATUS_INVALID_PARAMETER", StatusInvalidParameter.String())
	assert.Equal(t, "STATUS_0xC0001234", Status(0xC0001234).String())
	assert.True(t, StatusAccessDenied.IsError())
	assert.False(t, StatusSuccess.IsError())
	assert.False(t, StatusInvalidSMB.IsSuccess())
	assert.Equal(t, 3, StatusInternalError.Severity())
}

func TestDosError(t *testing.T) {
	e := DosError{Class: ErrClassDOS, Code: ErrInvalidParameter}
	assert.Equal(t, "ERRDOS/87", e.String())
	assert.Equal(t, uint32(0x00570001), e.Pack())
	assert.False(t, e.IsSuccess())
	assert.True(t, DosSuccess.IsSuccess())
	assert.Equal(t, "ERRSRV/1", DosError{Class: ErrClassSRV, Code: ErrSrvError}.String())
}

func TestShareType(t *testing.T) {
	for _, name := range []string{"disk", "printq", "comm", "ipc"} {
		st, err := ParseShareType(name)
		require.NoError(t, err)
		assert.Equal(t, name, st.String())
		assert.Equal(t, name == "disk", st.IsDisk())
	}
	_, err := ParseShareType("tape")
	assert.Error(t, err)
}
