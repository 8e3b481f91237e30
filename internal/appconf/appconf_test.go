package appconf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvFlagToEnvironment(t *testing.T) {
	tests := []struct {
		in   string
		want Environment
	}{
		{"test", Test},
		{"TEST", Test},
		{"production", Production},
		{"prod", Production},
		{"development", Development},
		{"staging", Development},
		{"", Development},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, EnvFlagToEnvironment(tt.in))
		})
	}
	assert.Equal(t, "production", Production.String())
}

func TestLoadEnvFiles(t *testing.T) {
	dir := t.TempDir()
	local := filepath.Join(dir, ".env.local")
	shared := filepath.Join(dir, ".env")
	assert.NoError(t, os.WriteFile(local, []byte("BIKEWATCH_TEST_TOKEN=from-local\n"), 0o600))
	assert.NoError(t, os.WriteFile(shared, []byte("BIKEWATCH_TEST_TOKEN=from-shared\nBIKEWATCH_TEST_OTHER=x\n"), 0o600))
	t.Cleanup(func() {
		_ = os.Unsetenv("BIKEWATCH_TEST_TOKEN")
		_ = os.Unsetenv("BIKEWATCH_TEST_OTHER")
	})

	loaded := LoadEnvFiles(local, shared, filepath.Join(dir, "missing"))

	assert.Equal(t, []string{local, shared}, loaded)
	assert.Equal(t, "from-local", os.Getenv("BIKEWATCH_TEST_TOKEN"))
	assert.Equal(t, "x", os.Getenv("BIKEWATCH_TEST_OTHER"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, SplitList(" a, ,b,"))
	assert.Nil(t, SplitList(""))
}
