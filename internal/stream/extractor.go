// Package stream separates structure envelopes from the plain text of an
// incrementally produced model response. Text outside <STRUCTURE> envelopes
// goes to the sink as soon as it can be ruled out as sentinel; envelope
// payloads are collected and returned at the end of the stream.
package stream

import "bytes"

const (
	openSentinel  = "<STRUCTURE>"
	closeSentinel = "</STRUCTURE>"
)

const (
	statePlain = iota
	stateCapture
)

// Extractor is a two-state scanner over an arbitrary chunking of the
// response text. Output does not depend on where chunk boundaries fall: at
// most len(closeSentinel)-1 bytes are held back between feeds, and held
// bytes are flushed as soon as they can no longer complete a sentinel.
type Extractor struct {
	sink    func(text string)
	state   int
	carry   []byte
	payload bytes.Buffer
	last    []byte
	warns   []ProtocolWarning
}

// New returns an extractor delivering plain text to sink. A nil sink
// discards the plain text.
func New(sink func(text string)) *Extractor {
	return &Extractor{sink: sink}
}

// Feed consumes the next chunk of response text.
func (e *Extractor) Feed(chunk string) {
	buf := append(e.carry, chunk...)
	e.carry = nil
	for {
		if e.state == statePlain {
			idx := bytes.Index(buf, []byte(openSentinel))
			if idx < 0 {
				keep := suffixPrefix(buf, openSentinel)
				e.emit(buf[:len(buf)-keep])
				e.carry = append([]byte(nil), buf[len(buf)-keep:]...)
				return
			}
			e.emit(buf[:idx])
			buf = buf[idx+len(openSentinel):]
			e.state = stateCapture
			continue
		}

		idx := bytes.Index(buf, []byte(closeSentinel))
		if idx < 0 {
			keep := suffixPrefix(buf, closeSentinel)
			e.payload.Write(buf[:len(buf)-keep])
			e.carry = append([]byte(nil), buf[len(buf)-keep:]...)
			return
		}
		e.payload.Write(buf[:idx])
		e.last = make([]byte, e.payload.Len())
		copy(e.last, e.payload.Bytes())
		e.payload.Reset()
		buf = buf[idx+len(closeSentinel):]
		e.state = statePlain
	}
}

// Capturing reports whether the scanner is currently inside an envelope.
func (e *Extractor) Capturing() bool {
	return e.state == stateCapture
}

// Finish flushes held-back text and returns the last complete envelope
// payload, or nil if none closed. An envelope still open at end of stream
// is discarded with a warning; its partial payload never reaches the sink.
func (e *Extractor) Finish() ([]byte, []ProtocolWarning) {
	if e.state == stateCapture {
		e.warns = append(e.warns, ProtocolWarning{Reason: "unterminated structure envelope"})
		e.payload.Reset()
		e.state = statePlain
	} else if len(e.carry) > 0 {
		e.emit(e.carry)
	}
	e.carry = nil
	return e.last, e.warns
}

func (e *Extractor) emit(b []byte) {
	if len(b) > 0 && e.sink != nil {
		e.sink(string(b))
	}
}

// suffixPrefix returns the length of the longest suffix of buf that is a
// proper prefix of sentinel.
func suffixPrefix(buf []byte, sentinel string) int {
	max := len(sentinel) - 1
	if len(buf) < max {
		max = len(buf)
	}
	for k := max; k > 0; k-- {
		if string(buf[len(buf)-k:]) == sentinel[:k] {
			return k
		}
	}
	return 0
}
