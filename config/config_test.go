package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2/google"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CONFIG_FILE", "PORT", "DATASET_PATH", "GOOGLE_CLOUD_PROJECT", "GOOGLE_API_KEY",
		"GOOGLE_APPLICATION_CREDENTIALS", "RETRIEVAL_POLICY", "RETRIEVAL_K", "RETRIEVAL_FETCH_K",
		"RETRIEVAL_LAMBDA", "HISTORY_AWARE", "CALL_TIMEOUT", "REDIS_ADDR", "REDIS_URI", "REDIS_URL",
		"CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	s, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", s.Port)
	assert.Equal(t, "data/slife_imoveis.csv", s.DatasetPath)
	assert.Equal(t, "gemini-2.5-flash", s.ChatModel)
	assert.Equal(t, "text-embedding-004", s.EmbeddingModel)
	assert.Equal(t, "mmr", s.RetrievalPolicy)
	assert.Equal(t, 20, s.RetrievalK)
	assert.Equal(t, 100, s.RetrievalFetchK)
	assert.Equal(t, 0.6, s.RetrievalLambda)
	assert.True(t, s.HistoryAware)
	assert.Equal(t, "usuario_padrao", s.DefaultSessionID)
	assert.Equal(t, 30*time.Second, s.CallTimeout)
	assert.Equal(t, []string{"*"}, s.CORSAllowedOrigins)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	clearEnv(t)
	p := filepath.Join(t.TempDir(), "slife.yaml")
	require.NoError(t, os.WriteFile(p, []byte(`
port: "9090"
retrieval_policy: similarity
retrieval_k: 5
call_timeout: 10s
cors_allowed_origins: ["https://slife.app"]
`), 0o600))
	t.Setenv("CONFIG_FILE", p)
	t.Setenv("RETRIEVAL_K", "7")
	t.Setenv("HISTORY_AWARE", "false")
	t.Setenv("REDIS_URL", "redis://cache:6379/0")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "9090", s.Port)
	assert.Equal(t, "similarity", s.RetrievalPolicy)
	assert.Equal(t, 7, s.RetrievalK)
	assert.Equal(t, 10*time.Second, s.CallTimeout)
	assert.False(t, s.HistoryAware)
	assert.Equal(t, "redis://cache:6379/0", s.RedisAddr)
	assert.Equal(t, []string{"https://slife.app"}, s.CORSAllowedOrigins)
	assert.Equal(t, 100, s.RetrievalFetchK)
}

func TestLoad_BadConfigFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func stubDefaultCredentials(t *testing.T, err error) {
	t.Helper()
	prev := findDefaultCredentials
	findDefaultCredentials = func(context.Context, ...string) (*google.Credentials, error) {
		if err != nil {
			return nil, err
		}
		return &google.Credentials{ProjectID: "slife"}, nil
	}
	t.Cleanup(func() { findDefaultCredentials = prev })
}

func TestValidate(t *testing.T) {
	stubDefaultCredentials(t, nil)
	s := Defaults()
	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_CLOUD_PROJECT")

	s.GoogleProject = "slife"
	assert.NoError(t, s.Validate())
	assert.Empty(t, s.ClientOptions())

	bad := s
	bad.RetrievalFetchK = 3
	assert.Error(t, bad.Validate())

	// fetch_k only matters for mmr
	ok := s
	ok.RetrievalPolicy = "similarity"
	ok.RetrievalFetchK = 3
	assert.NoError(t, ok.Validate())

	bad = s
	bad.RetrievalLambda = 1.5
	assert.Error(t, bad.Validate())

	bad = s
	bad.RetrievalPolicy = "bm25"
	assert.Error(t, bad.Validate())

	bad = s
	bad.CredentialsFile = filepath.Join(t.TempDir(), "nope.json")
	assert.Error(t, bad.Validate())
}

func TestValidate_APIKeyAloneIsNotACredential(t *testing.T) {
	stubDefaultCredentials(t, errors.New("could not find default credentials"))
	s := Defaults()
	s.GoogleProject = "slife"
	s.GoogleAPIKey = "key"

	err := s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GOOGLE_API_KEY is not accepted")

	s.GoogleAPIKey = ""
	err = s.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no credential")
}

func TestValidate_CredentialsFileSkipsDefaultLookup(t *testing.T) {
	stubDefaultCredentials(t, errors.New("must not be consulted"))
	f := filepath.Join(t.TempDir(), "sa.json")
	require.NoError(t, os.WriteFile(f, []byte("{}"), 0o600))

	s := Defaults()
	s.GoogleProject = "slife"
	s.CredentialsFile = f
	assert.NoError(t, s.Validate())
	assert.Len(t, s.ClientOptions(), 1)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
}
