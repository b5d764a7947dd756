package common

import (
	"log/slog"

	"github.com/dtnitsch/site-indexer/models"
	"github.com/dtnitsch/site-indexer/pkg/llm"
	"github.com/dtnitsch/site-indexer/pkg/search"
)

// NewLLMClient connects to the environment's OpenAI resource with the
// site's prompt budget.
func NewLLMClient(env *models.Environment, site *models.Site, logger *slog.Logger) (*llm.Client, error) {
	if err := env.RequireOpenAI(); err != nil {
		return nil, err
	}
	return llm.New(llm.Config{
		Endpoint:            env.OpenAIEndpoint(),
		Key:                 env.OpenAIKey,
		ChatDeployment:      env.ChatDeployment,
		EmbeddingDeployment: env.EmbeddingDeployment,
		PromptTokenBudget:   site.PromptTokenBudget,
	}, logger), nil
}

// NewSearchClient connects to the environment's search index for the brand.
func NewSearchClient(env *models.Environment) (*search.Client, error) {
	if err := env.RequireSearch(); err != nil {
		return nil, err
	}
	return search.New(env.SearchEndpoint(), env.SearchIndex, env.SearchKey), nil
}
