package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/yctsai/akasha/internal/core/domain"
	"github.com/yctsai/akasha/internal/core/retrieval"
)

type docsGetterFake struct {
	mu      sync.Mutex
	result  domain.RetrievalResult
	results []domain.RetrievalResult
	err     error
	queries []string
}

func (f *docsGetterFake) GetDocs(_ context.Context, query string, _ retrieval.Options) (domain.RetrievalResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := len(f.queries)
	f.queries = append(f.queries, query)
	if f.err != nil {
		return domain.RetrievalResult{}, f.err
	}
	if len(f.results) > 0 {
		if call >= len(f.results) {
			call = len(f.results) - 1
		}
		return f.results[call], nil
	}
	return f.result, nil
}

type generatorFake struct {
	answer    string
	choice    int
	err       error
	docsSeen  [][]domain.Chunk
	questions []string
}

func (f *generatorFake) GenerateAnswer(_ context.Context, question string, docs []domain.Chunk) (domain.Completion, error) {
	f.questions = append(f.questions, question)
	f.docsSeen = append(f.docsSeen, docs)
	if f.err != nil {
		return domain.Completion{}, f.err
	}
	return domain.Completion{Answer: f.answer, Trace: "trace"}, nil
}

func (f *generatorFake) GenerateChoice(_ context.Context, question string, options []string, docs []domain.Chunk) (int, domain.Completion, error) {
	f.questions = append(f.questions, question)
	f.docsSeen = append(f.docsSeen, docs)
	if f.err != nil {
		return 0, domain.Completion{}, f.err
	}
	return f.choice, domain.Completion{Answer: fmt.Sprintf("%d", f.choice)}, nil
}

func (f *generatorFake) GenerateFromPrompt(_ context.Context, prompt string) (domain.Completion, error) {
	f.questions = append(f.questions, prompt)
	if f.err != nil {
		return domain.Completion{}, f.err
	}
	return domain.Completion{Answer: f.answer}, nil
}

type trackerFake struct {
	experiments []string
	err         error
}

func (f *trackerFake) Record(_ context.Context, experiment string, _ map[string]string, _ map[string]float64, _ []domain.EvalRecord) error {
	f.experiments = append(f.experiments, experiment)
	return f.err
}

func retrievedChunks(contents ...string) domain.RetrievalResult {
	result := domain.RetrievalResult{}
	for _, content := range contents {
		result.Chunks = append(result.Chunks, domain.Chunk{Content: content})
		result.Tokens += len(content)
	}
	return result
}

func TestAskEmptyQuestionIsInvalidInput(t *testing.T) {
	uc := NewAnswerUseCase(&docsGetterFake{}, nil, &generatorFake{}, nil, nil)

	_, err := uc.Ask(context.Background(), "   ", retrieval.Options{}, false)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestAskNoDocumentsIsNotAnError(t *testing.T) {
	uc := NewAnswerUseCase(&docsGetterFake{}, nil, &generatorFake{}, nil, nil)

	answer, err := uc.Ask(context.Background(), "q", retrieval.Options{}, false)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Text != NoDocumentsAnswer {
		t.Fatalf("expected %q, got %q", NoDocumentsAnswer, answer.Text)
	}
	if len(answer.Sources) != 0 {
		t.Fatalf("expected no sources, got %d", len(answer.Sources))
	}
}

func TestAskReturnsAnswerWithSources(t *testing.T) {
	retriever := &docsGetterFake{result: retrievedChunks("doc one", "doc two")}
	generator := &generatorFake{answer: "final"}
	tracker := &trackerFake{}
	uc := NewAnswerUseCase(retriever, nil, generator, tracker, nil)

	answer, err := uc.Ask(context.Background(), "q", retrieval.Options{}, false)
	if err != nil {
		t.Fatalf("Ask() error = %v", err)
	}
	if answer.Text != "final" {
		t.Fatalf("expected answer text, got %q", answer.Text)
	}
	if len(answer.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(answer.Sources))
	}
	if len(tracker.experiments) != 1 || tracker.experiments[0] != "ask" {
		t.Fatalf("expected one tracked ask run, got %v", tracker.experiments)
	}
}

func TestAskPropagatesRetrievalError(t *testing.T) {
	retriever := &docsGetterFake{err: domain.WrapError(domain.ErrRetrievalUnavailable, "search", errors.New("down"))}
	uc := NewAnswerUseCase(retriever, nil, &generatorFake{}, nil, nil)

	_, err := uc.Ask(context.Background(), "q", retrieval.Options{}, false)
	if !domain.IsKind(err, domain.ErrRetrievalUnavailable) {
		t.Fatalf("expected retrieval unavailable, got %v", err)
	}
}

func TestAskGeneratorErrorFails(t *testing.T) {
	retriever := &docsGetterFake{result: retrievedChunks("doc")}
	uc := NewAnswerUseCase(retriever, nil, &generatorFake{err: errors.New("llm down")}, nil, nil)

	if _, err := uc.Ask(context.Background(), "q", retrieval.Options{}, false); err == nil {
		t.Fatalf("expected error")
	}
}

func TestChainOfThoughtFeedsPriorAnswersForward(t *testing.T) {
	retriever := &docsGetterFake{results: []domain.RetrievalResult{
		retrievedChunks("step one doc"),
		retrievedChunks("step two doc"),
	}}
	generator := &generatorFake{answer: "step answer"}
	uc := NewAnswerUseCase(retriever, nil, generator, nil, nil)

	answer, err := uc.ChainOfThought(context.Background(), []string{"p1", "p2"}, retrieval.Options{}, false)
	if err != nil {
		t.Fatalf("ChainOfThought() error = %v", err)
	}
	if answer.Text != "step answer" {
		t.Fatalf("expected final step answer, got %q", answer.Text)
	}
	if len(generator.docsSeen) != 2 {
		t.Fatalf("expected 2 generation calls, got %d", len(generator.docsSeen))
	}

	secondCallDocs := generator.docsSeen[1]
	foundPrior := false
	for _, chunk := range secondCallDocs {
		if chunk.Metadata["source"] == "chain_step_1" {
			foundPrior = true
		}
	}
	if !foundPrior {
		t.Fatalf("expected step 2 to see step 1's answer as context, got %v", secondCallDocs)
	}
}

func TestChainOfThoughtNoPromptsIsInvalidInput(t *testing.T) {
	uc := NewAnswerUseCase(&docsGetterFake{}, nil, &generatorFake{}, nil, nil)

	_, err := uc.ChainOfThought(context.Background(), nil, retrieval.Options{}, false)
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}
