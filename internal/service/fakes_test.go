package service

import (
	"context"
	"errors"

	"fashion-muse-go/internal/model"
	"fashion-muse-go/pkg/llm"
)

type fakeEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (f *fakeEmbedder) CreateEmbedding(_ context.Context, _ string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

type fakeSearcher struct {
	hits      []model.SearchHit
	err       error
	calls     int
	lastLimit int
}

func (f *fakeSearcher) VectorSearch(_ context.Context, _ []float32, limit int) ([]model.SearchHit, error) {
	f.calls++
	f.lastLimit = limit
	if f.err != nil {
		return nil, f.err
	}
	out := make([]model.SearchHit, len(f.hits))
	copy(out, f.hits)
	return out, nil
}

type fakeLLM struct {
	output   string
	err      error
	messages []llm.Message
	respond  func(messages []llm.Message) string
}

func (f *fakeLLM) CreateChatCompletion(_ context.Context, messages []llm.Message, _ *llm.GenerationParams) (string, error) {
	f.messages = messages
	if f.err != nil {
		return "", f.err
	}
	if f.respond != nil {
		return f.respond(messages), nil
	}
	return f.output, nil
}

var errBackend = errors.New("backend unavailable")
