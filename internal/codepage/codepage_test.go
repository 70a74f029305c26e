package codepage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeASCIIFastPath(t *testing.T) {
	cp := New(Default)
	s, err := cp.Decode([]byte("Software"))
	require.NoError(t, err)
	require.Equal(t, "Software", s)
}

func TestDecodeWindows1252HighBit(t *testing.T) {
	cp := New(CP1252WesternID)
	// 0xE9 in Windows-1252 is U+00E9 (é).
	s, err := cp.Decode([]byte{0xE9})
	require.NoError(t, err)
	require.Equal(t, "é", s)
}

func TestDecodeEmpty(t *testing.T) {
	cp := New(Default)
	s, err := cp.Decode(nil)
	require.NoError(t, err)
	require.Equal(t, "", s)
}

func TestCodepageIDDefaultsOnZeroValue(t *testing.T) {
	var cp Codepage
	require.Equal(t, Default, cp.ID())
}

func TestCodepageIDRoundTrips(t *testing.T) {
	cp := New(CP1251CyrillicID)
	require.Equal(t, CP1251CyrillicID, cp.ID())
}

func TestDecodeUTF16LEASCII(t *testing.T) {
	data := []byte{'H', 0, 'i', 0}
	require.Equal(t, "Hi", DecodeUTF16LE(data))
}

func TestDecodeUTF16LEEmpty(t *testing.T) {
	require.Equal(t, "", DecodeUTF16LE(nil))
}

func TestDecodeUTF16LESurrogatePair(t *testing.T) {
	// U+1F600 (grinning face emoji) encoded as a UTF-16 surrogate pair.
	encoded := EncodeUTF16LE("\U0001F600")
	require.Equal(t, "\U0001F600", DecodeUTF16LE(encoded))
}

func TestEncodeDecodeUTF16LERoundTrip(t *testing.T) {
	for _, s := range []string{"", "Software", "Café", "\U0001F600mix"} {
		require.Equal(t, s, DecodeUTF16LE(EncodeUTF16LE(s)))
	}
}
