package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yctsai/akasha/internal/core/domain"
	"github.com/yctsai/akasha/internal/core/ports"
)

type ModerateUseCase struct {
	generator ports.CompletionClient
}

func NewModerateUseCase(generator ports.CompletionClient) *ModerateUseCase {
	return &ModerateUseCase{generator: generator}
}

// DetectExploitation asks the model whether the given text contains harmful
// or sensitive content and returns the verdict text.
func (uc *ModerateUseCase) DetectExploitation(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", domain.WrapError(domain.ErrInvalidInput, "moderate", errors.New("text is empty"))
	}

	prompt := fmt.Sprintf(`Check if the texts below have any of: ethical concerns, discrimination, hate speech, illegal information, harmful content, offensive language, or encourage users to share or access copyrighted materials. Return true or false with a short reason.

Texts: %s
Answer: `, text)

	completion, err := uc.generator.GenerateFromPrompt(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("moderation completion: %w", err)
	}
	return completion.Answer, nil
}
