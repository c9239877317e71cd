package recorder

import (
	"sync"
	"time"
)

// Session is one recording: an ordered, append-only list of container chunks.
type Session struct {
	ID        string
	Started   time.Time
	mediaType string

	mu     sync.Mutex
	chunks [][]byte
	size   int
}

// Blob is a fully assembled recording.
type Blob struct {
	Data      []byte
	MediaType string
}

func newSession(id string, started time.Time, mediaType string) *Session {
	return &Session{ID: id, Started: started, mediaType: mediaType}
}

func (s *Session) MediaType() string {
	return s.mediaType
}

// append keeps chunks in arrival order. Empty chunks are dropped.
func (s *Session) append(chunk []byte) {
	if len(chunk) == 0 {
		return
	}
	c := make([]byte, len(chunk))
	copy(c, chunk)
	s.mu.Lock()
	s.chunks = append(s.chunks, c)
	s.size += len(c)
	s.mu.Unlock()
}

func (s *Session) Chunks() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.chunks)
}

func (s *Session) Size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.size
}

// Assemble concatenates every chunk in order.
func (s *Session) Assemble() Blob {
	s.mu.Lock()
	defer s.mu.Unlock()
	data := make([]byte, 0, s.size)
	for _, c := range s.chunks {
		data = append(data, c...)
	}
	return Blob{Data: data, MediaType: s.mediaType}
}
