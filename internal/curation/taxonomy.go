// Package curation turns raw scraped items into a ranked, themed newsletter:
// keyword classification, engagement interpretation, editorial copy and the
// pool/publish selection.
package curation

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Topic is one newsletter subject and the keywords that signal it.
type Topic struct {
	ID       string   `yaml:"id"`
	Label    string   `yaml:"label"`
	Weight   float64  `yaml:"weight"`
	Keywords []string `yaml:"keywords"`
}

// Taxonomy is the ordered topic list plus phrases that mark an item as noise.
// Topic order breaks ties when two topics score the same.
type Taxonomy struct {
	Topics        []Topic  `yaml:"topics"`
	NoiseKeywords []string `yaml:"noise_keywords"`
}

// DefaultTaxonomy is tuned for an AI/tech newsletter.
func DefaultTaxonomy() *Taxonomy {
	return &Taxonomy{
		Topics: []Topic{
			{
				ID: "llm", Label: "Large Language Models", Weight: 1.0,
				Keywords: []string{"llm", "gpt", "claude", "gemini", "openai", "anthropic", "deepseek",
					"language model", "chatgpt", "transformer", "llama", "mistral", "phi-3",
					"copilot", "cursor", "coding agent", "ai agent", "agentic"},
			},
			{
				ID: "ml_research", Label: "ML Research", Weight: 0.9,
				Keywords: []string{"neural network", "deep learning", "machine learning", "training",
					"inference", "model", "benchmark", "fine-tuning", "rlhf", "reasoning",
					"diffusion", "attention", "embedding", "vector"},
			},
			{
				ID: "ai_product", Label: "AI Products", Weight: 0.85,
				Keywords: []string{"ai-powered", "ai app", "ai startup", "ai tool", "ai api",
					"generative ai", "ai feature", "ai integration"},
			},
			{
				ID: "ai_infra", Label: "AI Infrastructure", Weight: 0.9,
				Keywords: []string{"gpu", "cuda", "tpu", "nvidia", "h100", "inference server",
					"model serving", "vllm", "triton", "onnx", "tensorrt"},
			},
			{
				ID: "ai_ethics", Label: "AI Ethics & Safety", Weight: 0.8,
				Keywords: []string{"ai safety", "alignment", "hallucination", "bias", "regulation",
					"ai policy", "ai governance", "responsible ai"},
			},
			{
				ID: "developer_tools", Label: "Developer Tools", Weight: 0.6,
				Keywords: []string{"developer", "devtools", "ide", "vscode", "programming", "coding",
					"software engineering", "api", "sdk", "framework", "library"},
			},
			{
				ID: "tech_industry", Label: "Tech Industry", Weight: 0.5,
				Keywords: []string{"startup", "funding", "acquisition", "layoff", "hiring",
					"tech company", "silicon valley", "yc", "vc", "series a"},
			},
			{
				ID: "data_engineering", Label: "Data Engineering", Weight: 0.5,
				Keywords: []string{"database", "sql", "postgres", "data pipeline", "etl",
					"data warehouse", "analytics", "bigquery", "snowflake"},
			},
		},
		NoiseKeywords: []string{
			"sleep in lax", "where to sleep", "music club", "diy music",
			"linguistics", "passive voice", "grammar", "heating homes",
			"weather satellite", "cancer treatment", "drug trial",
			"wifi only works", "curved things", "board games",
		},
	}
}

// LoadTaxonomy reads a YAML taxonomy. An empty path returns the default.
func LoadTaxonomy(path string) (*Taxonomy, error) {
	if path == "" {
		return DefaultTaxonomy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy: %w", err)
	}
	var t Taxonomy
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse taxonomy %s: %w", path, err)
	}
	if err := t.normalize(); err != nil {
		return nil, fmt.Errorf("taxonomy %s: %w", path, err)
	}
	return &t, nil
}

// normalize lowercases keywords and checks every topic is usable.
func (t *Taxonomy) normalize() error {
	if len(t.Topics) == 0 {
		return fmt.Errorf("no topics defined")
	}
	seen := map[string]bool{}
	for i := range t.Topics {
		topic := &t.Topics[i]
		if topic.ID == "" {
			return fmt.Errorf("topic %d has no id", i)
		}
		if seen[topic.ID] {
			return fmt.Errorf("duplicate topic %q", topic.ID)
		}
		seen[topic.ID] = true
		if topic.Label == "" {
			topic.Label = topic.ID
		}
		if topic.Weight <= 0 {
			return fmt.Errorf("topic %q: weight must be positive", topic.ID)
		}
		for j, kw := range topic.Keywords {
			topic.Keywords[j] = strings.ToLower(strings.TrimSpace(kw))
		}
	}
	for i, kw := range t.NoiseKeywords {
		t.NoiseKeywords[i] = strings.ToLower(strings.TrimSpace(kw))
	}
	return nil
}
