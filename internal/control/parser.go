package control

import "gitlab.com/gomidi/midi/v2"

// Parser frames a raw MIDI byte stream into complete messages. It follows
// running status for channel messages, skips system exclusive payloads and
// passes real-time bytes through as one-byte messages wherever they occur.
type Parser struct {
	status  byte
	need    int
	n       int
	data    [2]byte
	inSysEx bool
}

// Feed consumes one byte and returns a message once one is complete. The
// returned message is freshly allocated and safe to keep.
func (p *Parser) Feed(b byte) (midi.Message, bool) {
	switch {
	case b >= 0xF8:
		return midi.Message{b}, true

	case b == 0xF0:
		p.inSysEx = true
		p.status = 0

		return nil, false

	case b == 0xF7:
		p.inSysEx = false

		return nil, false

	case b >= 0x80:
		p.inSysEx = false
		p.status = b
		p.n = 0
		p.need = dataLen(b)

		if p.need == 0 {
			p.status = 0
			return midi.Message{b}, true
		}

		return nil, false
	}

	if p.inSysEx || p.status == 0 {
		return nil, false
	}

	p.data[p.n] = b
	p.n++

	if p.n < p.need {
		return nil, false
	}

	msg := make(midi.Message, 0, 1+p.need)
	msg = append(msg, p.status)
	msg = append(msg, p.data[:p.need]...)
	p.n = 0

	if p.status >= 0xF0 {
		p.status = 0
	}

	return msg, true
}

// Reset forgets running status and any partial message.
func (p *Parser) Reset() { *p = Parser{} }

func dataLen(status byte) int {
	switch {
	case status < 0xC0, status >= 0xE0 && status < 0xF0:
		return 2
	case status < 0xE0:
		return 1
	}

	switch status {
	case 0xF1, 0xF3:
		return 1
	case 0xF2:
		return 2
	}

	return 0
}
