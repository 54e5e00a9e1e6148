package services

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	tcmp3 "github.com/tcolgate/mp3"
)

// Tính thời lượng file MP3 bằng URL, trả về số giây
func GetMP3DurationFromURL(url string) (float64, error) {
	resp, err := http.Get(url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	var (
		dur     float64
		dec     = tcmp3.NewDecoder(resp.Body)
		frame   tcmp3.Frame
		skipped int
	)

	for {
		if err := dec.Decode(&frame, &skipped); err != nil {
			if err == io.EOF {
				break
			}
			return 0, err
		}
		dur += frame.Duration().Seconds()
	}

	return dur, nil
}

// Tính thời lượng file WAV bằng URL (đọc header RIFF)
func GetWAVDurationFromURL(url string) (float64, error) {
	resp, err := http.Get(url)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, err
	}
	return WAVDuration(data)
}

// GetAudioDurationFromURL chọn cách đọc theo phần mở rộng của URL
func GetAudioDurationFromURL(url string) (float64, error) {
	trimmed := url
	if qIdx := strings.Index(trimmed, "?"); qIdx != -1 {
		trimmed = trimmed[:qIdx]
	}
	switch {
	case strings.HasSuffix(trimmed, ".mp3"):
		return GetMP3DurationFromURL(url)
	case strings.HasSuffix(trimmed, ".wav"):
		return GetWAVDurationFromURL(url)
	default:
		return 0, fmt.Errorf("không hỗ trợ đọc thời lượng cho file: %s", trimmed)
	}
}
