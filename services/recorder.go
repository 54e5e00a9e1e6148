package services

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"
)

// Recording session phía server: client đẩy các chunk PCM trong lúc thu,
// stop sẽ ghép toàn bộ thành một file WAV. Mỗi user tối đa một session;
// start lại khi đang có session sẽ teardown session cũ.

type RecorderState string

const (
	StateIdle      RecorderState = "idle"
	StateCapturing RecorderState = "capturing"
)

var (
	ErrNoActiveSession  = errors.New("không có recording session đang chạy")
	ErrSessionNotActive = errors.New("session không ở trạng thái capturing")
	ErrChunkMismatch    = errors.New("sample rate/số kênh không khớp chunk đầu")
)

// PendingNote là note tạo trong lúc đang thu: chưa ghi DB, chờ stop()
// có meeting id và tên file audio rồi mới flush.
type PendingNote struct {
	Content   string
	Timestamp *float64
}

type RecordingSession struct {
	UserID    string
	StartedAt time.Time

	mu          sync.Mutex
	state       RecorderState
	sampleRate  int
	channels    int
	pcm         []byte
	queuedNotes []PendingNote

	Poller *LivePoller
}

func (s *RecordingSession) State() RecorderState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Elapsed trả về số giây từ lúc bắt đầu thu (dùng làm timestamp cho note)
func (s *RecordingSession) Elapsed() float64 {
	return time.Since(s.StartedAt).Seconds()
}

// AppendChunk nối một chunk PCM vào buffer. Chunk đầu chốt sample rate
// và số kênh cho cả session.
func (s *RecordingSession) AppendChunk(pcm []byte, sampleRate int, channels int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCapturing {
		return ErrSessionNotActive
	}
	if s.sampleRate == 0 {
		s.sampleRate = sampleRate
		s.channels = channels
	} else if s.sampleRate != sampleRate || s.channels != channels {
		return ErrChunkMismatch
	}
	s.pcm = append(s.pcm, pcm...)
	return nil
}

// QueueNote xếp note chờ flush khi stop
func (s *RecordingSession) QueueNote(content string, timestamp *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queuedNotes = append(s.queuedNotes, PendingNote{Content: content, Timestamp: timestamp})
}

// finalize đóng session: trả về WAV dựng từ buffer (nil nếu không có
// chunk nào) và các note đã xếp hàng.
func (s *RecordingSession) finalize() ([]byte, []PendingNote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateCapturing {
		return nil, nil, ErrSessionNotActive
	}
	s.state = StateIdle

	notes := s.queuedNotes
	s.queuedNotes = nil

	if len(s.pcm) == 0 {
		return nil, notes, nil
	}
	wav, err := EncodeWAV(s.pcm, s.sampleRate, s.channels)
	s.pcm = nil
	if err != nil {
		return nil, notes, err
	}
	return wav, notes, nil
}

// discard bỏ toàn bộ dữ liệu đã buffer, không finalize (teardown path)
func (s *RecordingSession) discard() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle
	s.pcm = nil
	s.queuedNotes = nil
}

// RecorderManager giữ session theo user và mẫu giọng attendee đang chờ
// cho lần transcribe kế tiếp.
type RecorderManager struct {
	Client *AnalysisClient

	mu       sync.Mutex
	sessions map[string]*RecordingSession
	samples  map[string][]AttendeeSample
}

func NewRecorderManager(client *AnalysisClient) *RecorderManager {
	return &RecorderManager{
		Client:   client,
		sessions: make(map[string]*RecordingSession),
		samples:  make(map[string][]AttendeeSample),
	}
}

// Start mở session mới cho user. Session cũ (nếu còn) bị teardown trước.
func (m *RecorderManager) Start(userID string) (*RecordingSession, error) {
	m.Teardown(userID)

	if err := m.Client.StartRealtimeTranscription(); err != nil {
		return nil, fmt.Errorf("không start được realtime transcription: %w", err)
	}

	session := &RecordingSession{
		UserID:    userID,
		StartedAt: time.Now(),
		state:     StateCapturing,
		Poller:    NewLivePoller(m.Client),
	}

	m.mu.Lock()
	m.sessions[userID] = session
	m.mu.Unlock()
	return session, nil
}

// Get trả về session đang chạy của user, nil nếu không có
func (m *RecorderManager) Get(userID string) *RecordingSession {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[userID]
}

// StopOutcome là kết quả đóng session bình thường
type StopOutcome struct {
	Transcript  string
	WAV         []byte
	Filename    string
	QueuedNotes []PendingNote
	Elapsed     float64
}

// Stop đóng session: dừng poller, gọi remote stop lấy transcript cuối,
// dựng WAV từ các chunk. Không có session thì trả nil (no-op).
func (m *RecorderManager) Stop(userID string) (*StopOutcome, error) {
	m.mu.Lock()
	session := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if session == nil {
		return nil, nil
	}
	session.Poller.Stop()

	stopResult, err := m.Client.StopRealtimeTranscription()
	if err != nil {
		// Vẫn phải finalize để không mất audio đã thu
		log.Println("Lỗi remote stop:", err)
	}

	wav, notes, ferr := session.finalize()
	if ferr != nil {
		return nil, ferr
	}

	outcome := &StopOutcome{
		WAV:         wav,
		QueuedNotes: notes,
		Elapsed:     session.Elapsed(),
	}
	if wav != nil {
		outcome.Filename = fmt.Sprintf("recording_%d.wav", session.StartedAt.UnixMilli())
	}
	if stopResult != nil {
		outcome.Transcript = stopResult.Transcript
	}
	// Transcript cuối ưu tiên của remote stop; thiếu thì dùng buffer poller
	if outcome.Transcript == "" {
		outcome.Transcript = session.Poller.Buffer()
	}
	if err != nil && outcome.Transcript == "" {
		return outcome, err
	}
	return outcome, nil
}

// Teardown hủy session không qua finalize: dừng poller, bỏ dữ liệu đã
// buffer, best-effort báo remote dừng. Path này chạy khi workspace đóng
// đột ngột giữa lúc thu.
func (m *RecorderManager) Teardown(userID string) {
	m.mu.Lock()
	session := m.sessions[userID]
	delete(m.sessions, userID)
	m.mu.Unlock()

	if session == nil {
		return
	}
	session.Poller.Stop()
	session.discard()
	if _, err := m.Client.StopRealtimeTranscription(); err != nil {
		log.Println("Teardown: lỗi remote stop (bỏ qua):", err)
	}
}

// AddVoiceSample giữ mẫu giọng attendee cho lần transcribe kế tiếp
func (m *RecorderManager) AddVoiceSample(userID string, sample AttendeeSample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.samples[userID] = append(m.samples[userID], sample)
}

// TakeVoiceSamples lấy và xóa các mẫu đang chờ của user
func (m *RecorderManager) TakeVoiceSamples(userID string) []AttendeeSample {
	m.mu.Lock()
	defer m.mu.Unlock()
	samples := m.samples[userID]
	delete(m.samples, userID)
	return samples
}
