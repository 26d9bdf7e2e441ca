// Package testutil holds deterministic collaborators for tests.
package testutil

import (
	"context"
	"encoding/json"
	"hash/fnv"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode"

	"github.com/yoockh/slife/internal/providers/llm"
)

// HashEmbedder embeds text as an L2-normalized bag of hashed lowercase
// tokens. Identical text yields identical vectors.
type HashEmbedder struct {
	Dim int
	Err error

	mu    sync.Mutex
	calls int
}

func (h *HashEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()
	if h.Err != nil {
		return nil, h.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = h.vector(t)
	}
	return out, nil
}

func (h *HashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()
	if h.Err != nil {
		return nil, h.Err
	}
	return h.vector(text), nil
}

func (h *HashEmbedder) Calls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls
}

func (h *HashEmbedder) vector(text string) []float32 {
	dim := h.Dim
	if dim <= 0 {
		dim = 256
	}
	v := make([]float32, dim)
	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, tok := range tokens {
		f := fnv.New32a()
		_, _ = f.Write([]byte(tok))
		v[int(f.Sum32())%dim]++
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		return v
	}
	n := float32(math.Sqrt(norm))
	for i := range v {
		v[i] /= n
	}
	return v
}

// FakeLLM replays scripted replies per prompt kind and records every prompt.
// Respond, when set, takes precedence over Replies.
type FakeLLM struct {
	Replies map[string]string
	Respond func(p llm.Prompt) (string, error)
	Err     error

	mu      sync.Mutex
	prompts []llm.Prompt
}

func (f *FakeLLM) Complete(_ context.Context, p llm.Prompt) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, p)
	f.mu.Unlock()

	if f.Err != nil {
		return "", f.Err
	}
	if f.Respond != nil {
		return f.Respond(p)
	}
	return f.Replies[p.Kind], nil
}

func (f *FakeLLM) Prompts() []llm.Prompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llm.Prompt(nil), f.prompts...)
}

// PromptsOf returns the recorded prompts of one kind.
func (f *FakeLLM) PromptsOf(kind string) []llm.Prompt {
	var out []llm.Prompt
	for _, p := range f.Prompts() {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

const DatasetHeader = "imovel_id;tipo;cidade;valor_aluguel;quartos;vagas_totais;tem_mobilia;tem_internet;tem_lavanderia;distancia_universidade_km;nota_avaliacao"

// WriteDataset writes a ';'-separated dataset with the Portuguese header
// into a temp dir and returns its path.
func WriteDataset(t testing.TB, rows ...string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "slife_imoveis.csv")
	content := DatasetHeader + "\n" + strings.Join(rows, "\n") + "\n"
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write dataset: %v", err)
	}
	return p
}

// MemoryCache is a map-backed cache.Cache. TTLs are ignored.
type MemoryCache struct {
	mu   sync.Mutex
	m    map[string][]byte
	Gets int
	Sets int
	Err  error
}

func NewMemoryCache() *MemoryCache { return &MemoryCache{m: map[string][]byte{}} }

func (c *MemoryCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Gets++
	if c.Err != nil {
		return false, c.Err
	}
	b, ok := c.m[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *MemoryCache) SetJSON(_ context.Context, key string, val any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Sets++
	if c.Err != nil {
		return c.Err
	}
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.m[key] = b
	return nil
}
