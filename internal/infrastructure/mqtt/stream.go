package mqtt

import "sync"

// Stream is an ordered feed of payloads from one subscription.
//
// The payload channel is never closed. Consumers select on Payloads and
// Done, and read Err once Done is closed.
type Stream struct {
	topic    string
	payloads chan []byte
	done     chan struct{}

	once sync.Once
	mu   sync.Mutex
	err  error
}

func newStream(topic string, buffer int) *Stream {
	if buffer < 0 {
		buffer = 0
	}
	return &Stream{
		topic:    topic,
		payloads: make(chan []byte, buffer),
		done:     make(chan struct{}),
	}
}

// Topic returns the subscribed topic filter.
func (s *Stream) Topic() string { return s.topic }

// Payloads returns the channel of received payloads.
func (s *Stream) Payloads() <-chan []byte { return s.payloads }

// Done is closed when the stream ends.
func (s *Stream) Done() <-chan struct{} { return s.done }

// Err reports why the stream ended: nil after a clean Close,
// ErrConnectionLost when the broker went away for good.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// deliver hands a payload to the consumer. It gives up once the stream is closed.
func (s *Stream) deliver(payload []byte) bool {
	select {
	case <-s.done:
		return false
	default:
	}

	select {
	case s.payloads <- payload:
		return true
	case <-s.done:
		return false
	}
}

// close ends the stream. Only the first call has an effect.
func (s *Stream) close(err error) {
	s.once.Do(func() {
		s.mu.Lock()
		s.err = err
		s.mu.Unlock()
		close(s.done)
	})
}

// closeStreams ends every registered stream with err.
func (c *Client) closeStreams(err error) {
	c.streamMu.Lock()
	streams := c.streams
	c.streams = make(map[*Stream]struct{})
	c.streamMu.Unlock()

	for s := range streams {
		s.close(err)
	}
}

func (c *Client) dropStream(s *Stream) {
	c.streamMu.Lock()
	delete(c.streams, s)
	c.streamMu.Unlock()
	s.close(nil)
}
