// Package rand produces random payloads for tests: catalog contents and
// the edits applied to them.
package rand

import (
	"bytes"
	"math/rand"
	"sync"
	"time"
)

var (
	onceSource  sync.Once
	rgen        *rand.Rand
	onceLetters sync.Once
	randMutex   sync.Mutex
	letters     []byte
)

func seed() {
	src := rand.NewSource(time.Now().UnixNano())
	rgen = rand.New(src) // #nosec
}

// Bytes returns a random slice of bytes
func Bytes(n int) []byte {
	onceSource.Do(seed)
	buf := make([]byte, n)
	randMutex.Lock() // the mutex doesn't add any significant time
	_, _ = rgen.Read(buf)
	randMutex.Unlock()
	return buf
}

// LetterString returns a random string picked in the [0-9]|[a-z] range
func LetterString(n int) string {
	onceLetters.Do(makeLetters)
	buf := Bytes(n)
	for i, b := range buf {
		buf[i] = letters[b]
	}
	return string(buf)
}

func makeLetters() {
	// adds "a" to pad over 256 locations (0-9 U a-z makes up to 252 only and we want to cover the range of uint8)
	letters = bytes.Repeat([]byte("abcdefghijklmnopqrstuvwxyz0123456789a"), 7)
}

func intn(n int) int {
	onceSource.Do(seed)
	randMutex.Lock()
	defer randMutex.Unlock()
	return rgen.Intn(n)
}

// Edit returns a copy of data with n random edits, each one overwriting,
// inserting or deleting a short run of bytes, the way a database file
// changes between two sessions.
func Edit(data []byte, n int) []byte {
	out := append([]byte(nil), data...)
	for i := 0; i < n; i++ {
		run := 1 + intn(32)
		pos := 0
		if len(out) > 0 {
			pos = intn(len(out))
		}
		switch intn(3) {
		case 0: // overwrite
			end := pos + run
			if end > len(out) {
				end = len(out)
			}
			copy(out[pos:end], Bytes(end-pos))
		case 1: // insert
			out = append(out[:pos], append(Bytes(run), out[pos:]...)...)
		default: // delete
			end := pos + run
			if end > len(out) {
				end = len(out)
			}
			out = append(out[:pos], out[end:]...)
		}
	}
	return out
}
