package capture

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeWAVHeader(t *testing.T) {
	pcm := make([]byte, 3200)
	out := EncodeWAV(pcm, 16000, 1)

	require.Len(t, out, 44+len(pcm))
	require.Equal(t, "RIFF", string(out[0:4]))
	require.Equal(t, "WAVE", string(out[8:12]))
	require.Equal(t, uint32(36+len(pcm)), binary.LittleEndian.Uint32(out[4:8]))
	require.Equal(t, uint16(1), binary.LittleEndian.Uint16(out[22:24]))
	require.Equal(t, uint32(16000), binary.LittleEndian.Uint32(out[24:28]))
	require.Equal(t, uint32(32000), binary.LittleEndian.Uint32(out[28:32]))
	require.Equal(t, uint32(len(pcm)), binary.LittleEndian.Uint32(out[40:44]))
}

func TestEncodeWAVDefaultsChannels(t *testing.T) {
	out := EncodeWAV(nil, 16000, 0)
	require.Len(t, out, 44)
	require.Equal(t, uint16(1), binary.LittleEndian.Uint16(out[22:24]))
}
