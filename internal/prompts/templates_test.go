package prompts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/slife/internal/models"
)

func TestDefault(t *testing.T) {
	tpl := Default()
	assert.Equal(t, "2", tpl.Version)
	assert.Len(t, tpl.Contextualize.Messages, 3)
	assert.Len(t, tpl.QA.Messages, 3)
}

func TestRender_QA(t *testing.T) {
	hist := []models.Turn{{Role: models.RoleHuman, Text: "oi"}}
	p := Default().QA.Render(KindQA, map[string]string{
		"context": "[ID 1] Studio em Campinas",
		"input":   "tem algo barato?",
	}, hist)

	assert.Equal(t, KindQA, p.Kind)
	assert.Contains(t, p.System, "[ID 1] Studio em Campinas")
	assert.Contains(t, p.System, "cite sempre o ID, a Cidade e o Valor")
	assert.NotContains(t, p.System, "{context}")
	assert.Equal(t, "tem algo barato?", p.User)
	assert.Equal(t, hist, p.History)
}

func TestRender_ContextualizeIsRewriteOnly(t *testing.T) {
	p := Default().Contextualize.Render(KindContextualize, map[string]string{"input": "e o preço?"}, nil)
	assert.Contains(t, p.System, "NÃO responda")
	assert.Equal(t, "e o preço?", p.User)
}

func TestParse_Rejects(t *testing.T) {
	cases := map[string]string{
		"no version": `
contextualize: {messages: [{role: system, content: x}, {role: user, content: "{input}"}]}
qa: {messages: [{role: system, content: "{context}"}, {role: user, content: "{input}"}]}`,
		"qa without context": `
version: "9"
contextualize: {messages: [{role: system, content: x}, {role: user, content: "{input}"}]}
qa: {messages: [{role: system, content: "nada"}, {role: user, content: "{input}"}]}`,
		"unknown role": `
version: "9"
contextualize: {messages: [{role: system, content: x}, {role: tool, content: y}, {role: user, content: "{input}"}]}
qa: {messages: [{role: system, content: "{context}"}, {role: user, content: "{input}"}]}`,
		"no user": `
version: "9"
contextualize: {messages: [{role: system, content: x}]}
qa: {messages: [{role: system, content: "{context}"}, {role: user, content: "{input}"}]}`,
	}
	for name, doc := range cases {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLoad_OverrideFile(t *testing.T) {
	doc := `
version: "3-test"
contextualize: {messages: [{role: system, content: reescreva}, {role: history}, {role: user, content: "{input}"}]}
qa: {messages: [{role: system, content: "ctx {context}"}, {role: user, content: "{input}"}]}`
	p := filepath.Join(t.TempDir(), "prompts.yaml")
	require.NoError(t, os.WriteFile(p, []byte(doc), 0o600))

	tpl, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, "3-test", tpl.Version)

	// qa has no history slot, so history is dropped
	out := tpl.QA.Render(KindQA, map[string]string{"context": "C", "input": "I"}, []models.Turn{{Text: "x"}})
	assert.Equal(t, "ctx C", out.System)
	assert.Nil(t, out.History)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
