package prompts

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/yoockh/slife/internal/models"
	"github.com/yoockh/slife/internal/providers/llm"
	"gopkg.in/yaml.v3"
)

const (
	KindContextualize = "contextualize"
	KindQA            = "qa"
)

type Role string

const (
	RoleSystem  Role = "system"
	RoleHistory Role = "history"
	RoleUser    Role = "user"
)

//go:embed default.yaml
var defaultYAML []byte

type Message struct {
	Role    Role   `yaml:"role"`
	Content string `yaml:"content"`
}

type Template struct {
	Messages []Message `yaml:"messages"`
}

type Templates struct {
	Version       string   `yaml:"version"`
	Contextualize Template `yaml:"contextualize"`
	QA            Template `yaml:"qa"`
}

// Load reads templates from path, or the embedded defaults when path is empty.
func Load(path string) (*Templates, error) {
	b := defaultYAML
	if path != "" {
		var err error
		if b, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read prompts: %w", err)
		}
	}
	return Parse(b)
}

func Parse(b []byte) (*Templates, error) {
	var t Templates
	if err := yaml.Unmarshal(b, &t); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	if t.Version == "" {
		return nil, fmt.Errorf("prompts: missing version")
	}
	if err := t.Contextualize.validate(KindContextualize, nil); err != nil {
		return nil, err
	}
	if err := t.QA.validate(KindQA, []string{"{context}"}); err != nil {
		return nil, err
	}
	return &t, nil
}

// Default returns the embedded templates.
func Default() *Templates {
	t, err := Parse(defaultYAML)
	if err != nil {
		panic(err)
	}
	return t
}

func (t Template) validate(kind string, systemVars []string) error {
	var system, user, history int
	for _, m := range t.Messages {
		switch m.Role {
		case RoleSystem:
			system++
			for _, v := range systemVars {
				if !strings.Contains(m.Content, v) {
					return fmt.Errorf("prompts: %s system message lacks %s", kind, v)
				}
			}
		case RoleUser:
			user++
			if !strings.Contains(m.Content, "{input}") {
				return fmt.Errorf("prompts: %s user message lacks {input}", kind)
			}
		case RoleHistory:
			history++
		default:
			return fmt.Errorf("prompts: %s has unknown role %q", kind, m.Role)
		}
	}
	if system != 1 || user != 1 || history > 1 {
		return fmt.Errorf("prompts: %s needs one system and one user message, at most one history slot", kind)
	}
	return nil
}

// Render fills {name} placeholders from vars. History is attached only when
// the template has a history slot.
func (t Template) Render(kind string, vars map[string]string, history []models.Turn) llm.Prompt {
	pairs := make([]string, 0, 2*len(vars))
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	r := strings.NewReplacer(pairs...)

	p := llm.Prompt{Kind: kind}
	for _, m := range t.Messages {
		switch m.Role {
		case RoleSystem:
			p.System = strings.TrimSpace(r.Replace(m.Content))
		case RoleHistory:
			p.History = history
		case RoleUser:
			p.User = r.Replace(m.Content)
		}
	}
	return p
}
