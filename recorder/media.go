package recorder

import (
	"encoding/binary"
	"fmt"
	"sync"

	"vmemo/audio"
	"vmemo/encoder"
	"vmemo/log"
)

// chunkWriter is the encoder's sink. Every Write is one data-available chunk;
// Close is the stop event.
type chunkWriter struct {
	session *Session
	done    chan struct{}
	once    sync.Once
}

func (w *chunkWriter) Write(p []byte) (int, error) {
	w.session.append(p)
	return len(p), nil
}

func (w *chunkWriter) Close() error {
	w.once.Do(func() { close(w.done) })
	return nil
}

// mediaRecorder moves PCM from the capture callback through one encoder
// goroutine into the session's chunk list.
type mediaRecorder struct {
	capture  audio.CaptureDevice
	session  *Session
	analyser *audio.Analyser
	enc      encoder.Encoder
	sink     *chunkWriter

	blockChan  chan []int16
	encodeDone chan struct{}
	bufMu      sync.Mutex
	closed     bool

	errMu  sync.Mutex
	encErr error

	stopOnce sync.Once
	stopErr  error
}

func newMediaRecorder(capture audio.CaptureDevice, session *Session, newEncoder encoder.Factory, analyser *audio.Analyser) (*mediaRecorder, error) {
	sink := &chunkWriter{session: session, done: make(chan struct{})}
	enc, err := newEncoder(sink)
	if err != nil {
		return nil, fmt.Errorf("create encoder: %w", err)
	}
	session.mediaType = enc.MediaType()

	m := &mediaRecorder{
		capture:    capture,
		session:    session,
		analyser:   analyser,
		enc:        enc,
		sink:       sink,
		blockChan:  make(chan []int16, 64),
		encodeDone: make(chan struct{}),
	}

	go func() {
		defer close(m.encodeDone)
		for block := range m.blockChan {
			if err := m.enc.EncodeBlock(block); err != nil {
				m.setErr(err)
			}
		}
	}()

	return m, nil
}

func (m *mediaRecorder) setErr(err error) {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	if m.encErr == nil {
		m.encErr = err
		log.Errorf("encode error in session %s: %v", m.session.ID, err)
	}
}

func (m *mediaRecorder) err() error {
	m.errMu.Lock()
	defer m.errMu.Unlock()
	return m.encErr
}

func (m *mediaRecorder) start() error {
	m.capture.SetCallback(m.feed)
	if err := m.capture.Start(); err != nil {
		m.capture.ClearCallback()
		return err
	}
	return nil
}

func (m *mediaRecorder) feed(data []byte, _ uint32) {
	if len(data) < 2 {
		return
	}
	if m.analyser != nil {
		m.analyser.Write(data)
	}
	block := make([]int16, len(data)/2)
	for i := range block {
		block[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}

	// held across the send so stop cannot close the channel under us
	m.bufMu.Lock()
	defer m.bufMu.Unlock()
	if m.closed {
		return
	}
	m.blockChan <- block
}

// stop halts capture, drains the encoder and closes the container. The stop
// event fires once the container is closed; by then every chunk is appended.
func (m *mediaRecorder) stop() error {
	m.stopOnce.Do(func() {
		m.capture.Stop()
		m.capture.ClearCallback()

		m.bufMu.Lock()
		m.closed = true
		close(m.blockChan)
		m.bufMu.Unlock()
		<-m.encodeDone

		if err := m.enc.Close(); err != nil {
			// the container may never close the sink on a failed flush
			m.sink.Close()
			m.stopErr = fmt.Errorf("flush encoder: %w", err)
		}
		<-m.sink.done

		if m.stopErr == nil {
			if err := m.err(); err != nil {
				m.stopErr = fmt.Errorf("encode: %w", err)
			}
		}
	})
	return m.stopErr
}

// stopped is closed by the stop event.
func (m *mediaRecorder) stopped() <-chan struct{} {
	return m.sink.done
}
