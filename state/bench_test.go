package state

import (
	"fmt"
	"path/filepath"
	"testing"
)

func benchPayload() map[string][]float64 {
	payload := make(map[string][]float64, 8)
	for i := 0; i < 8; i++ {
		data := make([]float64, 4096)
		for j := range data {
			data[j] = float64(i*j) * 0.25
		}
		payload[fmt.Sprintf("series.s%d", i)] = data
	}
	return payload
}

func seedState(b *testing.B) *State {
	b.Helper()
	st := New()
	for key, data := range benchPayload() {
		if err := st.Set(key, data); err != nil {
			b.Fatal(err)
		}
	}
	return st
}

func BenchmarkSave(b *testing.B) {
	for _, level := range []int{-1, 1, 5, 9} {
		name := fmt.Sprintf("level=%d", level)
		if level < 0 {
			name = "level=off"
		}
		b.Run(name, func(b *testing.B) {
			path := filepath.Join(b.TempDir(), "bench.state")
			st := seedState(b)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				// Every iteration must write: mark one key changed.
				if err := st.Set("tick", i); err != nil {
					b.Fatal(err)
				}
				if err := st.Save(path, SaveOptions{CompressionLevel: level}); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkLoadEager(b *testing.B) {
	path := filepath.Join(b.TempDir(), "bench.state")
	st := seedState(b)
	if err := st.Save(path, SaveOptions{}); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		fresh := New()
		if err := fresh.Load(path, LoadOptions{Eager: true}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLoadLazy(b *testing.B) {
	path := filepath.Join(b.TempDir(), "bench.state")
	st := seedState(b)
	if err := st.Save(path, SaveOptions{}); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		fresh := New()
		if err := fresh.Load(path, LoadOptions{}); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkLazySingleGet(b *testing.B) {
	path := filepath.Join(b.TempDir(), "bench.state")
	st := seedState(b)
	if err := st.Save(path, SaveOptions{}); err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		fresh := New()
		if err := fresh.Load(path, LoadOptions{}); err != nil {
			b.Fatal(err)
		}
		if _, err := fresh.Get("series.s3"); err != nil {
			b.Fatal(err)
		}
	}
}
