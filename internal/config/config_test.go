package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	cli "github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, args ...string) (*Config, error) {
	t.Helper()
	fs := cli.NewFlagSet("test", cli.ContinueOnError)
	return Load(fs, append([]string{"--env", filepath.Join(t.TempDir(), "missing.env")}, args...))
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "gsk-test")

	cfg, err := load(t)
	require.NoError(t, err)

	assert.Equal(t, "gsk-test", cfg.APIKey)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.BaseURL)
	assert.Equal(t, "llama3-70b-8192", cfg.ChatModel)
	assert.Equal(t, "You are a helpful voice to voice AI assistant.", cfg.SystemPrompt)
	assert.Equal(t, "en", cfg.Language)
	assert.Equal(t, 5*time.Second, cfg.OnsetTimeout)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, "/tmp/voxtalk.sock", cfg.Socket)
	assert.Empty(t, cfg.HTTPAddr)
}

func TestLoadMissingKeyFails(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	t.Setenv("VOXTALK_API_KEY", "")

	_, err := load(t)
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestLoadReadsDotEnv(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	os.Unsetenv("GROQ_API_KEY")

	env := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(env, []byte("GROQ_API_KEY=from-file\n"), 0o600))

	fs := cli.NewFlagSet("test", cli.ContinueOnError)
	cfg, err := Load(fs, []string{"--env", env})
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.APIKey)

	// godotenv leaves the variable in the process environment
	os.Unsetenv("GROQ_API_KEY")
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "k")
	t.Setenv("VOXTALK_CHAT_MODEL", "from-env")
	t.Setenv("VOXTALK_VOICE", "Celeste-PlayAI")

	cfg, err := load(t, "--chat-model", "from-flag", "--poll-interval", "50ms")
	require.NoError(t, err)

	assert.Equal(t, "from-flag", cfg.ChatModel)
	assert.Equal(t, "Celeste-PlayAI", cfg.Voice)
	assert.Equal(t, 50*time.Millisecond, cfg.PollInterval)
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "k")

	_, err := load(t, "--poll-interval", "0s")
	assert.Error(t, err)

	_, err = load(t, "--duck-factor", "1.5")
	assert.Error(t, err)
}
