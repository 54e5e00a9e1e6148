package services

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
)

// LivePoller kéo transcript tăng dần từ dịch vụ phân tích trong lúc đang
// ghi âm. Mỗi recording session có tối đa một poller đang chạy: Start khi
// đang chạy sẽ hủy timer cũ trước. Gặp lỗi fetch hoặc server báo đã dừng
// thì poller tự hủy, không retry.
type LivePoller struct {
	Client   *AnalysisClient
	Interval time.Duration

	// OnLines được gọi với các dòng mới (đã khử trùng lặp) để đẩy qua ws
	OnLines func(lines []string)

	mu      sync.Mutex
	cancel  context.CancelFunc
	buffer  strings.Builder
	seen    map[string]struct{}
	stopped bool // server-side đã dừng transcription
}

func NewLivePoller(client *AnalysisClient) *LivePoller {
	return &LivePoller{
		Client:   client,
		Interval: time.Second,
		seen:     make(map[string]struct{}),
	}
}

// Start chạy vòng poll. Gọi lại khi đang chạy sẽ hủy vòng cũ trước,
// không bao giờ có hai ticker song song.
func (p *LivePoller) Start() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	interval := p.Interval
	if interval <= 0 {
		interval = time.Second
	}
	p.mu.Unlock()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !p.pollOnce() {
					p.Stop()
					return
				}
			}
		}
	}()
}

// Stop hủy vòng poll. An toàn khi gọi nhiều lần hoặc khi chưa chạy.
func (p *LivePoller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
}

// Running cho biết poller còn timer đang chạy không
func (p *LivePoller) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

// ServerStopped cho biết lần poll cuối server đã báo dừng transcription
func (p *LivePoller) ServerStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

// Buffer trả về toàn bộ transcript đã gom
func (p *LivePoller) Buffer() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buffer.String()
}

// Reset xóa buffer và tập dòng đã thấy (bắt đầu recording mới)
func (p *LivePoller) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.buffer.Reset()
	p.seen = make(map[string]struct{})
	p.stopped = false
}

// pollOnce fetch một lần, trả false nếu poller phải dừng
func (p *LivePoller) pollOnce() bool {
	result, err := p.Client.GetLiveTranscript()
	if err != nil {
		log.Println("Lỗi fetch live transcript, dừng poller:", err)
		return false
	}
	if result.Status == "error" {
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()
		log.Println("Server báo transcription đã dừng:", result.Debug)
		return false
	}

	newLines := p.AppendUnique(result.Text)
	if len(newLines) > 0 && p.OnLines != nil {
		p.OnLines(newLines)
	}
	return true
}

// AppendUnique tách text thành dòng, bỏ dòng đã thấy, nối phần mới vào
// buffer (mỗi dòng một newline) và trả về các dòng vừa thêm.
func (p *LivePoller) AppendUnique(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var added []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if _, ok := p.seen[line]; ok {
			continue
		}
		p.seen[line] = struct{}{}
		if p.buffer.Len() > 0 {
			p.buffer.WriteString("\n")
		}
		p.buffer.WriteString(line)
		added = append(added, line)
	}
	return added
}
