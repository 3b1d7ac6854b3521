package test

import (
	"math/rand"
	"sync"
	"time"
)

const (
	loginAlphabet  = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	maxLoginLength = 39
)

var (
	rngMu sync.Mutex
	rng   = rand.New(rand.NewSource(time.Now().UnixNano()))
)

// RandomLogin returns a pseudo-random GitHub-style login: alphanumerics with
// at most one inner hyphen, never longer than the 39 characters GitHub allows.
func RandomLogin(minLen, maxLen int) string {
	if minLen <= 0 {
		minLen = 1
	}
	if maxLen > maxLoginLength {
		maxLen = maxLoginLength
	}
	if maxLen < minLen {
		maxLen = minLen
	}
	length := minLen
	if maxLen > minLen {
		length += randomIntn(maxLen - minLen + 1)
	}

	buf := make([]byte, length)
	for i := range buf {
		buf[i] = loginAlphabet[randomIntn(len(loginAlphabet))]
	}
	if length >= 3 && randomIntn(2) == 0 {
		buf[1+randomIntn(length-2)] = '-'
	}
	return string(buf)
}

func randomIntn(n int) int {
	rngMu.Lock()
	defer rngMu.Unlock()
	return rng.Intn(n)
}
