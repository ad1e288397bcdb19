package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/qforge/internal/model"
	"github.com/ppiankov/qforge/internal/passage"
)

func TestSetDefaults_RegistersNestedKeys(t *testing.T) {
	v := viper.New()
	require.NoError(t, setDefaults(v, model.DefaultConfig()))

	assert.Equal(t, "openai", v.GetString("llm.provider"))
	assert.Equal(t, 100, v.GetInt("batch.batch_size"))
	assert.Equal(t, "generated_questions", v.GetString("paths.output_dir"))
	assert.True(t, v.GetBool("batch.resume"))
}

func TestSetDefaults_EnvOverrides(t *testing.T) {
	t.Setenv("QFORGE_GENERATION_QUESTIONS_PER_UNIT", "7")
	t.Setenv("QFORGE_LLM_MODEL", "gpt-4o")

	v := viper.New()
	require.NoError(t, setDefaults(v, model.DefaultConfig()))
	v.SetEnvPrefix("QFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := model.DefaultConfig()
	require.NoError(t, v.Unmarshal(cfg))
	assert.Equal(t, 7, cfg.Generation.QuestionsPerUnit)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, "undergrad", cfg.Generation.Difficulty)
}

func TestApplyEnvKeys(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("OLLAMA_BASE_URL", "http://gpu:11434")

	tests := []struct {
		provider string
		apiKey   string
		baseURL  string
	}{
		{"openai", "sk-openai", ""},
		{"anthropic", "sk-ant", ""},
		{"claude", "sk-ant", ""},
		{"ollama", "", "http://gpu:11434"},
		{"unknown", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			cfg := model.DefaultConfig()
			cfg.LLM.Provider = tt.provider
			applyEnvKeys(cfg)
			assert.Equal(t, tt.apiKey, cfg.LLM.APIKey)
			assert.Equal(t, tt.baseURL, cfg.LLM.BaseURL)
		})
	}
}

func TestApplyEnvKeys_ConfiguredKeyWins(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")
	cfg := model.DefaultConfig()
	cfg.LLM.APIKey = "sk-file"
	applyEnvKeys(cfg)
	assert.Equal(t, "sk-file", cfg.LLM.APIKey)
}

func TestWriteDefaultConfig(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".qforge")

	path, err := writeDefaultConfig(dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# qforge configuration"))

	var cfg model.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, model.DefaultConfig().Batch, cfg.Batch)

	_, err = writeDefaultConfig(dir)
	assert.ErrorContains(t, err, "already exists")
}

func TestMaskKey(t *testing.T) {
	assert.Equal(t, "****", maskKey("short"))
	assert.Equal(t, "sk-a****wxyz", maskKey("sk-abcdefghijklmnopqrstuvwxyz"))
}

func TestStatusTable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "algebra.txt"), []byte(strings.Repeat("a", 25)), 0o644))
	lib := passage.NewLibrary(dir, 10)

	out := statusTable(lib, map[string]int{"algebra": 4, "orphan": 2})

	assert.Contains(t, out, "algebra")
	assert.Contains(t, out, "orphan")
	assert.Contains(t, out, "Total")
	assert.Contains(t, out, "6")
}
