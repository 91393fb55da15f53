package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunkstream/internal/domain"
	"chunkstream/internal/streamer"
	"chunkstream/internal/testutil"
)

func TestStreamCmd_UploadsEveryChunk(t *testing.T) {
	clearEnv(t)
	src := writeCSV(t, 25)
	h := newHarness()

	err := h.run("stream", "-d", "s3://landing-bucket/raw", "-s", src, "--chunk-size", "10", "--delay", "0", "--log-format", "text")
	require.NoError(t, err)

	keys := h.store.Keys()
	require.Len(t, keys, 3)
	for i, k := range keys {
		assert.True(t, strings.HasPrefix(k, "raw/transactions_chunk_"), "key %q", k)
		assert.True(t, strings.HasSuffix(k, fmt.Sprintf("_%d.csv", i)), "key %q", k)
	}
	assert.True(t, h.store.Closed)

	first := string(h.store.Objects[0].Body)
	assert.True(t, strings.HasPrefix(first, "id,amount,merchant\n"))
	assert.Equal(t, 11, strings.Count(first, "\n"))
	assert.Equal(t, "5", h.store.Objects[2].Metadata["rows"])
	assert.Equal(t, streamer.ContentTypeCSV, h.store.Objects[2].ContentType)

	out := h.stdout.String()
	assert.Contains(t, out, "starting stream")
	assert.Contains(t, out, "stream finished")
	assert.Contains(t, out, "delay is 0")
}

func TestStreamCmd_JSONSummary(t *testing.T) {
	clearEnv(t)
	src := writeCSV(t, 12)
	h := newHarness()

	err := h.run("stream", "-o", "json", "-d", "bucket", "-s", src, "--chunk-size", "5", "--delay", "0")
	require.NoError(t, err)

	var sum streamer.Summary
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &sum))
	assert.Equal(t, 3, sum.Chunks)
	assert.Equal(t, 12, sum.Rows)
	assert.Len(t, sum.Keys, 3)
	assert.NotEmpty(t, sum.RunID)
	assert.Contains(t, h.stderr.String(), "uploaded chunk")
}

func TestStreamCmd_JSONSummaryOnFailure(t *testing.T) {
	clearEnv(t)
	src := writeCSV(t, 12)
	h := newHarness()
	uploadErr := errors.New("connection reset by peer")
	h.store.PutFn = func(_ context.Context, obj domain.Object) error {
		if obj.Metadata["chunk_index"] == "1" {
			return uploadErr
		}
		return nil
	}

	code := execute(h.rootCmd(), []string{"stream", "-o", "json", "-d", "bucket", "-s", src, "--chunk-size", "5", "--delay", "0"})
	assert.Equal(t, 1, code)

	dec := json.NewDecoder(&h.stdout)
	var sum streamer.Summary
	require.NoError(t, dec.Decode(&sum))
	assert.Equal(t, 1, sum.Chunks)
	assert.Equal(t, 5, sum.Rows)
	assert.Len(t, sum.Keys, 1)

	var failure map[string]string
	require.NoError(t, dec.Decode(&failure))
	assert.Contains(t, failure["error"], "connection reset by peer")
	assert.NotContains(t, h.stderr.String(), "Error:")
}

func TestExecute_TextErrorGoesToStderr(t *testing.T) {
	clearEnv(t)
	h := newHarness()

	code := execute(h.rootCmd(), []string{"stream", "-s", writeCSV(t, 1)})
	assert.Equal(t, 1, code)
	assert.Contains(t, h.stderr.String(), "Error: destination is required")
	assert.Zero(t, h.opened)
}

func TestExecute_Success(t *testing.T) {
	clearEnv(t)
	h := newHarness()
	assert.Equal(t, 0, execute(h.rootCmd(), []string{"version"}))
	assert.Empty(t, h.stderr.String())
}

func TestStreamCmd_Precedence(t *testing.T) {
	tests := []struct {
		name       string
		env        map[string]string
		profile    *Profile
		args       []string
		wantChunk  int
		wantRegion string
	}{
		{
			name:       "defaults",
			wantChunk:  10000,
			wantRegion: "us-east-1",
		},
		{
			name:       "profile over default",
			profile:    &Profile{ChunkSize: 20, Region: "eu-west-1"},
			wantChunk:  20,
			wantRegion: "eu-west-1",
		},
		{
			name:       "env over profile",
			env:        map[string]string{"CHUNKSTREAM_CHUNK_SIZE": "7", "REGION": "ap-south-1"},
			profile:    &Profile{ChunkSize: 20, Region: "eu-west-1"},
			wantChunk:  7,
			wantRegion: "ap-south-1",
		},
		{
			name:       "flag over env",
			env:        map[string]string{"CHUNKSTREAM_CHUNK_SIZE": "7"},
			profile:    &Profile{ChunkSize: 20},
			args:       []string{"--chunk-size", "3", "--region", "us-west-2"},
			wantChunk:  3,
			wantRegion: "us-west-2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if tt.profile != nil {
				require.NoError(t, SaveUserConfig(&UserConfig{
					CurrentProfile: "default",
					Profiles:       map[string]Profile{"default": *tt.profile},
				}))
			}

			h := newHarness()
			args := append([]string{"stream", "-d", "bucket", "-s", writeCSV(t, 1), "--delay", "0"}, tt.args...)
			require.NoError(t, h.run(args...))
			require.NotNil(t, h.cfg)
			assert.Equal(t, tt.wantChunk, h.cfg.ChunkSize)
			assert.Equal(t, tt.wantRegion, h.cfg.Region)
		})
	}
}

func TestStreamCmd_NamedProfile(t *testing.T) {
	clearEnv(t)
	src := writeCSV(t, 4)
	require.NoError(t, SaveUserConfig(&UserConfig{
		CurrentProfile: "default",
		Profiles: map[string]Profile{
			"default": {Destination: "s3://wrong"},
			"staging": {Destination: "s3://staging-bucket", Source: src, Delay: "0s", ObjectDir: "feed"},
		},
	}))

	h := newHarness()
	require.NoError(t, h.run("stream", "--profile", "staging"))
	assert.Equal(t, "s3://staging-bucket", h.cfg.Destination)
	require.Len(t, h.store.Objects, 1)
	assert.True(t, strings.HasPrefix(h.store.Objects[0].Key, "feed/transactions_chunk_"))
}

func TestStreamCmd_UnknownProfile(t *testing.T) {
	clearEnv(t)
	h := newHarness()
	err := h.run("stream", "--profile", "missing", "-d", "bucket")
	require.EqualError(t, err, `profile "missing" not found`)
	assert.Zero(t, h.opened)
}

func TestStreamCmd_MissingDestination(t *testing.T) {
	clearEnv(t)
	h := newHarness()

	err := h.run("stream", "-s", writeCSV(t, 1))
	require.Error(t, err)
	var ve *domain.ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Zero(t, h.opened)
}

func TestStreamCmd_PreflightFailure(t *testing.T) {
	clearEnv(t)
	h := newHarness()
	h.store.PreflightFn = testutil.PreflightError(&domain.PreflightError{Destination: "s3://nope", Reason: domain.ReasonBucketNotFound})

	err := h.run("stream", "-d", "nope", "-s", writeCSV(t, 30), "--delay", "0", "--log-format", "text")
	require.Error(t, err)
	var pe *domain.PreflightError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, domain.ReasonBucketNotFound, pe.Reason)
	assert.Empty(t, h.store.Objects)
	assert.Contains(t, h.stdout.String(), "destination check failed")
}

func TestStreamCmd_MissingSource(t *testing.T) {
	clearEnv(t)
	h := newHarness()

	err := h.run("stream", "-d", "bucket", "-s", "/does/not/exist.csv", "--delay", "0", "--log-format", "text")
	require.Error(t, err)
	var nf *domain.SourceNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "/does/not/exist.csv", nf.Path)
	assert.Empty(t, h.store.Objects)
	assert.Contains(t, h.stdout.String(), "/does/not/exist.csv")
}

func TestCheckCmd(t *testing.T) {
	clearEnv(t)
	src := writeCSV(t, 3)

	t.Run("ok", func(t *testing.T) {
		h := newHarness()
		require.NoError(t, h.run("check", "-d", "s3://bucket", "-s", src, "--log-format", "json"))
		assert.Contains(t, h.stdout.String(), "OK: s3://bucket reachable")
		assert.Empty(t, h.store.Objects)
	})

	t.Run("json", func(t *testing.T) {
		h := newHarness()
		require.NoError(t, h.run("check", "-o", "json", "-d", "s3://bucket", "-s", src))
		var got map[string]string
		require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &got))
		assert.Equal(t, "ok", got["status"])
		assert.Equal(t, src, got["source"])
	})

	t.Run("missing source", func(t *testing.T) {
		h := newHarness()
		err := h.run("check", "-d", "s3://bucket", "-s", "/nope.csv")
		var nf *domain.SourceNotFoundError
		require.True(t, errors.As(err, &nf))
	})

	t.Run("preflight failure", func(t *testing.T) {
		h := newHarness()
		h.store.PreflightFn = testutil.PreflightError(&domain.PreflightError{Destination: "s3://bucket", Reason: domain.ReasonAccessDenied})
		err := h.run("check", "-d", "s3://bucket", "-s", src)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "access denied")
	})
}

func TestVersionCmd(t *testing.T) {
	clearEnv(t)

	h := newHarness()
	require.NoError(t, h.run("version"))
	assert.Equal(t, "chunkstream version dev (commit: none)\n", h.stdout.String())

	h = newHarness()
	require.NoError(t, h.run("version", "-o", "json"))
	var got map[string]string
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &got))
	assert.Equal(t, "dev", got["version"])
}

func TestRootCmd_InvalidOutputFormat(t *testing.T) {
	clearEnv(t)
	h := newHarness()
	err := h.run("version", "-o", "table")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported output format")
}

func TestCompletionCmd(t *testing.T) {
	clearEnv(t)
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			h := newHarness()
			require.NoError(t, h.run("completion", shell))
			assert.NotEmpty(t, h.stdout.String())
		})
	}

	h := newHarness()
	require.Error(t, h.run("completion", "tcsh"))
}
