package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/yctsai/akasha/internal/core/domain"
	"github.com/yctsai/akasha/internal/core/retrieval"
)

// ChainOfThought answers a question split into small sequential steps. Each
// step retrieves documents for its own prompt and also sees every previous
// step's answer as an extra context chunk, so later steps can build on
// earlier conclusions. The final step's answer is returned, with the token
// total accumulated across all retrievals.
func (uc *AnswerUseCase) ChainOfThought(
	ctx context.Context,
	prompts []string,
	opts retrieval.Options,
	compress bool,
) (*domain.Answer, error) {
	if len(prompts) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "chain of thought", errors.New("no prompts"))
	}

	var (
		prior      []domain.Chunk
		allSources []domain.Chunk
		totalDocs  int
		last       domain.Completion
	)

	for step, prompt := range prompts {
		result, err := uc.retriever.GetDocs(ctx, prompt, opts)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", step+1, err)
		}
		totalDocs += result.Tokens

		docs := result.Chunks
		if compress && uc.compressor != nil {
			docs = uc.compressor.Compress(ctx, docs, prompt)
		}
		allSources = append(allSources, docs...)

		last, err = uc.generator.GenerateAnswer(ctx, prompt, append(docs, prior...))
		if err != nil {
			return nil, fmt.Errorf("step %d: generate answer: %w", step+1, err)
		}
		prior = append(prior, domain.Chunk{
			Content:  last.Answer,
			Metadata: map[string]string{"source": fmt.Sprintf("chain_step_%d", step+1)},
		})
	}

	return &domain.Answer{
		Text:    last.Answer,
		Sources: allSources,
		Tokens:  totalDocs,
	}, nil
}
