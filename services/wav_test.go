package services

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeWAVHeader(t *testing.T) {
	pcm := make([]byte, 32000) // 1 giây @ 16kHz mono 16-bit
	wav, err := EncodeWAV(pcm, 16000, 1)
	require.NoError(t, err)
	require.Len(t, wav, 44+len(pcm))

	assert.Equal(t, "RIFF", string(wav[0:4]))
	assert.Equal(t, "WAVE", string(wav[8:12]))
	assert.Equal(t, "fmt ", string(wav[12:16]))

	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[20:22]))      // PCM
	assert.Equal(t, uint16(1), binary.LittleEndian.Uint16(wav[22:24]))      // channels
	assert.Equal(t, uint32(16000), binary.LittleEndian.Uint32(wav[24:28]))  // sample rate
	assert.Equal(t, uint32(32000), binary.LittleEndian.Uint32(wav[28:32]))  // byte rate
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(wav[32:34]))      // block align
	assert.Equal(t, uint16(16), binary.LittleEndian.Uint16(wav[34:36]))     // bits/sample
	assert.Equal(t, "data", string(wav[36:40]))
	assert.Equal(t, uint32(32000), binary.LittleEndian.Uint32(wav[40:44]))
}

func TestEncodeWAVRejectsBadInput(t *testing.T) {
	_, err := EncodeWAV(make([]byte, 100), 0, 1)
	assert.Error(t, err)

	_, err = EncodeWAV(make([]byte, 100), 16000, 0)
	assert.Error(t, err)

	// PCM 16-bit phải có độ dài chẵn
	_, err = EncodeWAV(make([]byte, 101), 16000, 1)
	assert.Error(t, err)
}

func TestWAVDurationRoundTrip(t *testing.T) {
	wav, err := EncodeWAV(make([]byte, 64000), 16000, 1)
	require.NoError(t, err)

	duration, err := WAVDuration(wav)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, duration, 0.001)
}

func TestWAVDurationStereo(t *testing.T) {
	// 44.1kHz stereo: 176400 bytes/giây
	wav, err := EncodeWAV(make([]byte, 176400), 44100, 2)
	require.NoError(t, err)

	duration, err := WAVDuration(wav)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, duration, 0.001)
}

func TestWAVDurationInvalidData(t *testing.T) {
	_, err := WAVDuration([]byte("khong phai wav"))
	assert.ErrorIs(t, err, ErrInvalidWAV)

	_, err = WAVDuration(nil)
	assert.ErrorIs(t, err, ErrInvalidWAV)
}

func TestCapPCMSeconds(t *testing.T) {
	pcm := make([]byte, 320000) // 10 giây @ 16kHz mono
	capped := CapPCMSeconds(pcm, 16000, 1, 5.0)
	assert.Len(t, capped, 160000)

	// Ngắn hơn giới hạn thì giữ nguyên
	short := make([]byte, 1000)
	assert.Len(t, CapPCMSeconds(short, 16000, 1, 5.0), 1000)

	// Cắt theo biên sample
	odd := CapPCMSeconds(make([]byte, 320001), 16000, 1, 5.0)
	assert.Equal(t, 0, len(odd)%2)
}
