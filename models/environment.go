package models

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

// Environment holds the service credentials for one deployment environment.
type Environment struct {
	Name string

	SearchService string
	SearchKey     string
	SearchIndex   string

	OpenAIService       string
	OpenAIKey           string
	ChatDeployment      string
	EmbeddingDeployment string
}

// LoadEnvironment reads .env.<env> from dir. Values missing from the file
// fall back to the process environment. A missing file is not an error.
func LoadEnvironment(dir, env, brand string) (*Environment, error) {
	if env != EnvDev && env != EnvProd {
		return nil, fmt.Errorf("unknown environment %q (want %s or %s)", env, EnvDev, EnvProd)
	}

	vars := map[string]string{}
	path := filepath.Join(dir, ".env."+env)
	if _, err := os.Stat(path); err == nil {
		vars, err = godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	}

	get := func(key string) string {
		if v, ok := vars[key]; ok && v != "" {
			return v
		}
		return os.Getenv(key)
	}

	return &Environment{
		Name:                env,
		SearchService:       get("AZURE_SEARCH_SERVICE"),
		SearchKey:           get("AZURE_SEARCH_KEY"),
		SearchIndex:         get(strings.ToUpper(brand) + "_AZURE_SEARCH_INDEX_EN"),
		OpenAIService:       get("AZURE_OPENAI_SERVICE"),
		OpenAIKey:           get("AZURE_OPENAI_KEY"),
		ChatDeployment:      get("AZURE_OPENAI_CHATGPT_DEPLOYMENT"),
		EmbeddingDeployment: get("AZURE_OPENAI_EMB_DEPLOYMENT"),
	}, nil
}

func (e *Environment) SearchEndpoint() string {
	return fmt.Sprintf("https://%s.search.windows.net", e.SearchService)
}

func (e *Environment) OpenAIEndpoint() string {
	return fmt.Sprintf("https://%s.openai.azure.com", e.OpenAIService)
}

// RequireSearch reports the search settings that are missing.
func (e *Environment) RequireSearch() error {
	return requireAll(map[string]string{
		"AZURE_SEARCH_SERVICE": e.SearchService,
		"AZURE_SEARCH_KEY":     e.SearchKey,
		"search index":         e.SearchIndex,
	})
}

// RequireOpenAI reports the OpenAI settings that are missing.
func (e *Environment) RequireOpenAI() error {
	return requireAll(map[string]string{
		"AZURE_OPENAI_SERVICE":            e.OpenAIService,
		"AZURE_OPENAI_KEY":                e.OpenAIKey,
		"AZURE_OPENAI_CHATGPT_DEPLOYMENT": e.ChatDeployment,
		"AZURE_OPENAI_EMB_DEPLOYMENT":     e.EmbeddingDeployment,
	})
}

func requireAll(values map[string]string) error {
	var missing []string
	for key, v := range values {
		if v == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return fmt.Errorf("missing environment settings: %s", strings.Join(missing, ", "))
}
