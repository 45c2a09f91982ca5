package wire

// WriteString writes a NUL-terminated UTF-8 string.
func (b *Buffer) WriteString(s string) {
	b.data = append(b.data, s...)
	b.data = append(b.data, 0)
}

// ReadString reads a NUL-terminated string. The terminator is consumed
// but not included in the result.
func (b *Buffer) ReadString() (string, error) {
	for i := b.pos; i < len(b.data); i++ {
		if b.data[i] == 0 {
			s := string(b.data[b.pos:i])
			b.pos = i + 1
			return s, nil
		}
	}
	return "", ErrShortRead
}

// ReadSafeString reads a NUL-terminated string and filters it to
// ASCII-graphic characters and whitespace, for strings that end up in
// logs or console messages where a hostile peer could otherwise inject
// control sequences.
func (b *Buffer) ReadSafeString() (string, error) {
	s, err := b.ReadString()
	if err != nil {
		return "", err
	}
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if isASCIIGraphic(r) || isSpace(r) {
			out = append(out, r)
		}
	}
	return string(out), nil
}

func isASCIIGraphic(r rune) bool {
	return r > 0x20 && r < 0x7f
}

func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	default:
		return false
	}
}
