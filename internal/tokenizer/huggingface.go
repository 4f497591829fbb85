package tokenizer

import (
	"errors"
	"fmt"

	hf "github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

const huggingFaceConfigFileName = "tokenizer.json"

type huggingFaceCounter struct {
	tokenizer *hf.Tokenizer
	name      string
}

func (counter huggingFaceCounter) Name() string {
	return counter.name
}

func (counter huggingFaceCounter) CountString(input string) (int, error) {
	if counter.tokenizer == nil {
		return 0, errors.New("nil huggingface tokenizer")
	}
	encoding, err := counter.tokenizer.EncodeSingle(input)
	if err != nil {
		return 0, fmt.Errorf("huggingface encode: %w", err)
	}
	return len(encoding.Tokens), nil
}

func loadHuggingFaceFile(path string) (Counter, error) {
	loaded, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer from %s: %w", path, err)
	}
	return huggingFaceCounter{tokenizer: loaded, name: path}, nil
}

// loadHuggingFaceHub resolves tokenizer.json for model through the sugarme cache,
// downloading it from the hub when absent.
func loadHuggingFaceHub(model string) (Counter, error) {
	if model == "" {
		return nil, errors.New("huggingface model name is empty")
	}
	configPath, err := hf.CachedPath(model, huggingFaceConfigFileName)
	if err != nil {
		return nil, fmt.Errorf("resolve cached tokenizer for %s: %w", model, err)
	}
	loaded, err := pretrained.FromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer for %s from %s: %w", model, configPath, err)
	}
	return huggingFaceCounter{tokenizer: loaded, name: model}, nil
}
