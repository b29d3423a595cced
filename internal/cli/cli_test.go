package cli

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dwax1324/roomescape-payment/internal/config"
	"github.com/dwax1324/roomescape-payment/internal/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version", "--env-file", ""})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "roomescape dev")
}

func TestLoadEnvKeepsRealEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ROOMESCAPE_TEST_A=file\nROOMESCAPE_TEST_B=file\n"), 0o600))
	t.Setenv("ROOMESCAPE_TEST_A", "env")
	t.Setenv("ROOMESCAPE_TEST_B", "")
	require.NoError(t, os.Unsetenv("ROOMESCAPE_TEST_B"))

	require.NoError(t, loadEnv(path))
	assert.Equal(t, "env", os.Getenv("ROOMESCAPE_TEST_A"))
	assert.Equal(t, "file", os.Getenv("ROOMESCAPE_TEST_B"))
}

func TestLoadEnvMissingFile(t *testing.T) {
	assert.NoError(t, loadEnv(filepath.Join(t.TempDir(), "absent.env")))
}

func TestServeRequiresSecrets(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("PAYMENT_SECRET_KEY", "")

	root := NewRootCmd()
	root.SetArgs([]string{"serve", "--env-file", ""})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYMENT_SECRET_KEY")
}

func TestNewPublisherWithoutBrokersIsNoop(t *testing.T) {
	pub, closeFn := newPublisher(config.Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	defer closeFn()
	assert.IsType(t, events.Noop{}, pub)
}
