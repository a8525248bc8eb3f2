package tiktok

import (
	"strconv"
	"sync"

	"github.com/sqids/sqids-go"
)

var (
	sq   *sqids.Sqids
	once sync.Once
)

func getSqids() *sqids.Sqids {
	once.Do(func() {
		var err error
		sq, err = sqids.New(sqids.Options{
			Alphabet:  "Tq8vLmZ3aHkW0xYbN5cR7eJ2uPfG9sD4tK1nVhB6yXrQwEoAiSjUgMdCpF",
			MinLength: 6,
		})
		if err != nil {
			panic("sqids init failed: " + err.Error())
		}
	})
	return sq
}

// SubmissionID turns a submission sequence number into a short opaque id.
func SubmissionID(seq uint64) string {
	id, err := getSqids().Encode([]uint64{seq})
	if err != nil {
		return strconv.FormatUint(seq, 10)
	}
	return id
}
