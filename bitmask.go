package kizuna

import "math/bits"

// bitmask256 is a set of up to MaxTypeKeys component keys. Each entity keeps
// one so queries can test component sets without touching the components.
type bitmask256 [4]uint64

// maskOf builds the mask of keys. ok is false if a key is outside the mask
// range; no entity can carry such a key.
func maskOf(keys ...TypeKey) (m bitmask256, ok bool) {
	ok = true
	for _, k := range keys {
		if k >= MaxTypeKeys {
			ok = false
			continue
		}
		m.set(k)
	}
	return m, ok
}

func (m *bitmask256) set(key TypeKey) {
	if key >= MaxTypeKeys {
		return
	}
	m[key>>6] |= uint64(1) << (key & 63)
}

func (m *bitmask256) unset(key TypeKey) {
	if key >= MaxTypeKeys {
		return
	}
	m[key>>6] &^= uint64(1) << (key & 63)
}

// contains reports whether every key in sub is also in m.
func (m bitmask256) contains(sub bitmask256) bool {
	return (m[0]&sub[0]) == sub[0] &&
		(m[1]&sub[1]) == sub[1] &&
		(m[2]&sub[2]) == sub[2] &&
		(m[3]&sub[3]) == sub[3]
}

func (m bitmask256) containsBit(key TypeKey) bool {
	return key < MaxTypeKeys && m[key>>6]&(uint64(1)<<(key&63)) != 0
}

func (m bitmask256) count() int {
	return bits.OnesCount64(m[0]) + bits.OnesCount64(m[1]) +
		bits.OnesCount64(m[2]) + bits.OnesCount64(m[3])
}

// keys lists the keys in ascending order.
func (m bitmask256) keys() []TypeKey {
	out := make([]TypeKey, 0, m.count())
	for w, word := range m {
		for word != 0 {
			b := bits.TrailingZeros64(word)
			out = append(out, TypeKey(w*64+b))
			word &= word - 1
		}
	}
	return out
}
