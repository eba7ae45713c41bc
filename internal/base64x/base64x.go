// Package base64x implements a strict RFC 4648 standard-alphabet
// Base64 decoder for the Basic auth token in the HTTP codec.
package base64x

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

var reverse [256]int8

func init() {
	for i := range reverse {
		reverse[i] = -1
	}

	for i, c := range alphabet {
		reverse[c] = int8(i)
	}
}

// Decode decodes a standard Base64 string. It returns ok=false if the
// input length isn't a multiple of 4 or contains a character outside
// the alphabet (padding '=' is only accepted in the last one or two
// positions).
func Decode(s string) (out []byte, ok bool) {
	if len(s)%4 != 0 {
		return nil, false
	}

	if len(s) == 0 {
		return []byte{}, true
	}

	padding := 0
	for i := len(s) - 1; i >= 0 && s[i] == '='; i-- {
		padding++
	}

	if padding > 2 {
		return nil, false
	}

	for i := 0; i < len(s)-padding; i++ {
		if reverse[s[i]] < 0 {
			return nil, false
		}
	}

	out = make([]byte, 0, len(s)/4*3)

	for i := 0; i < len(s); i += 4 {
		chunk := s[i : i+4]

		chunkPadding := 0
		for _, c := range chunk {
			if c == '=' {
				chunkPadding++
			}
		}

		if chunkPadding > 0 && i+4 != len(s) {
			// '=' may only appear in the final quantum.
			return nil, false
		}

		var v [4]int8
		for j, c := range chunk {
			if c == '=' {
				v[j] = 0
			} else {
				v[j] = reverse[c]
			}
		}

		b0 := byte(v[0])<<2 | byte(v[1])>>4
		b1 := byte(v[1])<<4 | byte(v[2])>>2
		b2 := byte(v[2])<<6 | byte(v[3])

		switch chunkPadding {
		case 0:
			out = append(out, b0, b1, b2)
		case 1:
			out = append(out, b0, b1)
		case 2:
			out = append(out, b0)
		default:
			return nil, false
		}
	}

	return out, true
}
