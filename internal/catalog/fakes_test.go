package catalog

import (
	"context"
	"errors"
	"sync"
)

// fakeIndex is an in-memory Index for tests.
type fakeIndex struct {
	mu      sync.Mutex
	records map[string]Record
	hits    []Hit
	getErr  error
	gets    [][]string
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{records: map[string]Record{}}
}

func (f *fakeIndex) put(rec Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.Key] = rec
}

func (f *fakeIndex) Get(ctx context.Context, ids []string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, append([]string(nil), ids...))
	if f.getErr != nil {
		return nil, f.getErr
	}
	if ids == nil {
		out := make([]Record, 0, len(f.records))
		for _, rec := range f.records {
			out = append(out, rec)
		}
		return out, nil
	}
	out := []Record{}
	for _, id := range ids {
		if rec, ok := f.records[id]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeIndex) Query(ctx context.Context, embedding []float32, topK int) ([]Hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if topK < len(f.hits) {
		return f.hits[:topK], nil
	}
	return f.hits, nil
}

func (f *fakeIndex) Upsert(ctx context.Context, recs []Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range recs {
		f.records[rec.Key] = rec
	}
	return nil
}

func (f *fakeIndex) Delete(ctx context.Context, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		delete(f.records, id)
	}
	return nil
}

var errFakeEmbed = errors.New("embed failed")

// fakeEmbedder records the texts it saw and returns a fixed vector.
type fakeEmbedder struct {
	mu    sync.Mutex
	texts []string
	fail  bool
}

func (f *fakeEmbedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errFakeEmbed
	}
	f.texts = append(f.texts, text)
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *fakeEmbedder) EmbedImage(ctx context.Context, image []byte) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.fail {
		return nil, errFakeEmbed
	}
	return []float32{0.4, 0.5, 0.6}, nil
}

func (f *fakeEmbedder) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}
