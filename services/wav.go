package services

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// Encoding chuẩn cho audio thu từ client: PCM 16-bit signed little-endian
// bọc trong container WAV/RIFF. Client gửi PCM thô kèm sample rate và số
// kênh; server chịu trách nhiệm dựng header.

const wavBitsPerSample = 16

var ErrInvalidWAV = errors.New("dữ liệu WAV không hợp lệ")

// EncodeWAV bọc PCM 16-bit LE vào container WAV. pcm phải có độ dài chẵn
// (2 byte / sample).
func EncodeWAV(pcm []byte, sampleRate int, channels int) ([]byte, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("tham số WAV không hợp lệ: rate=%d channels=%d", sampleRate, channels)
	}
	if len(pcm)%2 != 0 {
		return nil, errors.New("PCM 16-bit phải có độ dài chẵn")
	}

	blockAlign := channels * wavBitsPerSample / 8
	byteRate := sampleRate * blockAlign
	dataLen := len(pcm)

	buf := make([]byte, 0, 44+dataLen)
	buf = append(buf, []byte("RIFF")...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(36+dataLen))
	buf = append(buf, []byte("WAVE")...)

	// fmt chunk
	buf = append(buf, []byte("fmt ")...)
	buf = binary.LittleEndian.AppendUint32(buf, 16)
	buf = binary.LittleEndian.AppendUint16(buf, 1) // PCM
	buf = binary.LittleEndian.AppendUint16(buf, uint16(channels))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(sampleRate))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(byteRate))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(blockAlign))
	buf = binary.LittleEndian.AppendUint16(buf, wavBitsPerSample)

	// data chunk
	buf = append(buf, []byte("data")...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(dataLen))
	buf = append(buf, pcm...)

	return buf, nil
}

// CapPCMSeconds cắt PCM về tối đa maxSeconds (dùng cho voice sample ~5s)
func CapPCMSeconds(pcm []byte, sampleRate int, channels int, maxSeconds float64) []byte {
	blockAlign := channels * wavBitsPerSample / 8
	maxBytes := int(maxSeconds * float64(sampleRate) * float64(blockAlign))
	// Giữ nguyên biên sample
	maxBytes -= maxBytes % blockAlign
	if len(pcm) <= maxBytes {
		return pcm
	}
	return pcm[:maxBytes]
}

// WAVDuration đọc header WAV và trả về thời lượng (giây)
func WAVDuration(data []byte) (float64, error) {
	if len(data) < 44 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return 0, ErrInvalidWAV
	}

	// Duyệt các chunk tìm fmt và data
	var byteRate uint32
	var dataLen uint32
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		body := offset + 8
		switch chunkID {
		case "fmt ":
			if body+16 > len(data) {
				return 0, ErrInvalidWAV
			}
			byteRate = binary.LittleEndian.Uint32(data[body+8 : body+12])
		case "data":
			dataLen = chunkSize
		}
		offset = body + int(chunkSize)
		if chunkSize%2 == 1 {
			offset++ // chunk lẻ có padding byte
		}
	}

	if byteRate == 0 {
		return 0, ErrInvalidWAV
	}
	return float64(dataLen) / float64(byteRate), nil
}
