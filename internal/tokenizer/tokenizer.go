// Package tokenizer adapts external tokenization models to a single token counting interface.
package tokenizer

import (
	"fmt"
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// Counter estimates token counts for text content.
type Counter interface {
	Name() string
	CountString(input string) (int, error)
}

// Config captures tokenizer selection parameters provided by the CLI or configuration.
type Config struct {
	// Model names an OpenAI model (tiktoken) or, with the "hf:" prefix, a HuggingFace hub model.
	Model string
	// TokenizerFile points at a local HuggingFace tokenizer.json and takes precedence over Model.
	TokenizerFile string
}

const (
	// DefaultModel is the model used when none is configured.
	DefaultModel = "gpt-4o"
	// WordsModel counts whitespace separated words and needs no model data.
	WordsModel          = "words"
	defaultEncodingName = "cl100k_base"
	huggingFacePrefix   = "hf:"
)

// NewCounter returns a Counter implementation for the requested model along with
// the name of the model or encoding actually used.
func NewCounter(cfg Config) (Counter, string, error) {
	if tokenizerFile := strings.TrimSpace(cfg.TokenizerFile); tokenizerFile != "" {
		counter, err := loadHuggingFaceFile(tokenizerFile)
		if err != nil {
			return nil, "", err
		}
		return counter, tokenizerFile, nil
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	lowerModel := strings.ToLower(model)
	if lowerModel == WordsModel {
		return WordCounter{}, WordsModel, nil
	}

	if strings.HasPrefix(lowerModel, huggingFacePrefix) {
		hubModel := model[len(huggingFacePrefix):]
		counter, err := loadHuggingFaceHub(hubModel)
		if err != nil {
			return nil, "", err
		}
		return counter, model, nil
	}

	if isOpenAIModel(lowerModel) {
		encoding, err := tiktoken.EncodingForModel(lowerModel)
		if err == nil && encoding != nil {
			return openAICounter{encoding: encoding, name: lowerModel}, model, nil
		}
	}
	fallback, fallbackErr := tiktoken.GetEncoding(defaultEncodingName)
	if fallbackErr != nil {
		return nil, "", fmt.Errorf("initialize fallback tokenizer: %w", fallbackErr)
	}
	return openAICounter{encoding: fallback, name: defaultEncodingName}, defaultEncodingName, nil
}

func isOpenAIModel(model string) bool {
	prefixes := []string{
		"gpt-",
		"o1",
		"o3",
		"text-embedding",
		"davinci",
		"curie",
		"babbage",
		"ada",
		"code-",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}
