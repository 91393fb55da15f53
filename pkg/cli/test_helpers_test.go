package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"chunkstream/internal/config"
	"chunkstream/internal/domain"
	"chunkstream/internal/storage"
	"chunkstream/internal/testutil"
)

// clearEnv blanks every variable the config layer reads and isolates HOME
// so no real profile is loaded.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CHUNKSTREAM_DESTINATION", "BUCKET", "CHUNKSTREAM_SOURCE", "REGION", "AWS_REGION",
		"CHUNKSTREAM_CHUNK_SIZE", "CHUNKSTREAM_DELAY", "CHUNKSTREAM_KEY_PREFIX", "CHUNKSTREAM_OBJECT_DIR",
		"LOG_LEVEL", "LOG_FORMAT", "KEY_ID", "SECRET", "ENDPOINT", "S3_PATH_STYLE", "GCS_KEY_FILE",
		"AZURE_STORAGE_ACCOUNT", "AZURE_STORAGE_KEY", "AZURE_STORAGE_CONNECTION_STRING",
		configDirEnv,
	} {
		t.Setenv(k, "")
	}
	t.Setenv("HOME", t.TempDir())
}

// testHarness wires a root command to a MockObjectStore and records the
// config the command resolved.
type testHarness struct {
	store  *testutil.MockObjectStore
	cfg    *config.Config
	opened int
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func newHarness() *testHarness {
	return &testHarness{store: &testutil.MockObjectStore{}}
}

func (h *testHarness) open(_ context.Context, cfg *config.Config) (domain.ObjectStore, storage.Location, error) {
	h.opened++
	h.cfg = cfg
	loc, err := storage.ParseDestination(cfg.Destination)
	if err != nil {
		return nil, storage.Location{}, err
	}
	h.store.DestinationName = loc.String()
	return h.store, loc, nil
}

func (h *testHarness) run(args ...string) error {
	cmd := h.rootCmd()
	cmd.SetArgs(args)
	return cmd.Execute()
}

func (h *testHarness) rootCmd() *cobra.Command {
	cmd := newRootCmdWithOpener(h.open)
	cmd.SetOut(&h.stdout)
	cmd.SetErr(&h.stderr)
	return cmd
}

// writeCSV writes a transactions file with rows data rows and returns its path.
func writeCSV(t *testing.T, rows int) string {
	t.Helper()
	var b strings.Builder
	b.WriteString("id,amount,merchant\n")
	for i := range rows {
		fmt.Fprintf(&b, "%d,%d.50,shop-%d\n", i, i*3, i%7)
	}
	p := filepath.Join(t.TempDir(), "transactions.csv")
	if err := os.WriteFile(p, []byte(b.String()), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}
