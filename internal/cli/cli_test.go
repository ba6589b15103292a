// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-credstore.
//
// go-credstore is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeremyhahn/go-credstore/pkg/adapters/kdf"
	"github.com/jeremyhahn/go-credstore/pkg/credstore"
	"github.com/jeremyhahn/go-credstore/pkg/health"
	"github.com/jeremyhahn/go-credstore/pkg/metrics"
)

// cliEnv points every invocation at one file-backed local store with cheap
// KDF parameters.
type cliEnv struct {
	t   *testing.T
	dir string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("CREDSTORE_LOCAL_KDF_MEMORY", "8192")
	t.Setenv("CREDSTORE_LOCAL_KDF_TIME", "1")
	t.Setenv("CREDSTORE_LOCAL_KDF_THREADS", "1")
	t.Setenv("CREDSTORE_LOG_LEVEL", "error")
	return &cliEnv{t: t, dir: t.TempDir()}
}

func (e *cliEnv) run(stdin string, args ...string) (string, error) {
	e.t.Helper()
	var out, errOut bytes.Buffer
	root := NewRootCommand(&out, &errOut)
	root.SetArgs(append([]string{
		"--no-native",
		"--passphrase", "cli-test-passphrase",
		"--local-path", e.dir,
	}, args...))
	root.SetIn(strings.NewReader(stdin))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run("", args...)
	require.NoError(e.t, err, "credstore %s", strings.Join(args, " "))
	return out
}

func TestCLI_SetGetRemove(t *testing.T) {
	e := newCLIEnv(t)

	e.mustRun("set", "greeting", "hello")
	assert.Equal(t, "hello\n", e.mustRun("get", "greeting"))
	assert.Equal(t, "true\n", e.mustRun("has", "greeting"))

	e.mustRun("rm", "greeting")
	assert.Equal(t, "greeting: not found\n", e.mustRun("get", "greeting"))
	assert.Equal(t, "false\n", e.mustRun("has", "greeting"))
}

func TestCLI_SetFromStdin(t *testing.T) {
	e := newCLIEnv(t)

	_, err := e.run("from-stdin\n", "set", "piped")
	require.NoError(t, err)
	assert.Equal(t, "from-stdin\n", e.mustRun("get", "piped"))
}

func TestCLI_KeysJSON(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun("set", "b", "2")
	e.mustRun("set", "a", "1")

	var got struct {
		Keys []string `json:"keys"`
	}
	require.NoError(t, json.Unmarshal([]byte(e.mustRun("-o", "json", "keys")), &got))
	assert.ElementsMatch(t, []string{"a", "b"}, got.Keys)

	assert.Equal(t, "No keys found\n", newCLIEnv(t).mustRun("keys"))
}

func TestCLI_JSONAndCredentials(t *testing.T) {
	e := newCLIEnv(t)

	e.mustRun("json", "set", "cred_1", `{"type":"email","value":"a@example.com"}`)
	e.mustRun("set", "presentation_jti-1", `{"vp":true}`)

	var cred map[string]any
	require.NoError(t, json.Unmarshal([]byte(e.mustRun("json", "get", "cred_1")), &cred))
	assert.Equal(t, "email", cred["type"])

	assert.Equal(t, `{"type":"email","value":"a@example.com"}`+"\n", e.mustRun("creds"))
	assert.Equal(t, `{"vp":true,"keyToRemove":"presentation_jti-1"}`+"\n", e.mustRun("match", "^presentation_"))

	e.mustRun("remove-presentation", "jti-1")
	_, err := e.run("", "remove-presentation", "jti-1")
	assert.ErrorIs(t, err, credstore.ErrNotFound)

	_, err = e.run("", "json", "set", "bad", "{nope")
	assert.ErrorIs(t, err, credstore.ErrParse)
}

func TestCLI_Identity(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun("did", "set", "did:example:123")
	e.mustRun("login-type", "set", "pin")

	var id map[string]*string
	require.NoError(t, json.Unmarshal([]byte(e.mustRun("-o", "json", "identity")), &id))
	require.NotNil(t, id["userDID"])
	assert.Equal(t, "did:example:123", *id["userDID"])
	assert.Nil(t, id["userPKU"])

	assert.Equal(t, "pin\n", e.mustRun("login-type", "get"))
	assert.Equal(t, "username: not found\n", e.mustRun("username"))
}

func TestCLI_Authorize(t *testing.T) {
	e := newCLIEnv(t)

	assert.Equal(t, "false\n", e.mustRun("authorize", "42"))
	e.mustRun("access-key", "set", "42")
	assert.Equal(t, "true\n", e.mustRun("authorize", " 42abc"))
	assert.Equal(t, "false\n", e.mustRun("authorize", "43"))
}

func TestCLI_AuthorizeVerboseShowsLimiter(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun("access-key", "set", "42")

	var out, errOut bytes.Buffer
	root := NewRootCommand(&out, &errOut)
	root.SetArgs([]string{
		"--no-native",
		"--passphrase", "cli-test-passphrase",
		"--local-path", e.dir,
		"--verbose",
		"authorize", "42",
	})
	require.NoError(t, root.ExecuteContext(context.Background()))

	assert.Equal(t, "true\n", out.String())
	assert.Contains(t, errOut.String(), "[VERBOSE] attempt limiter: 10 attempts/min")
	assert.Contains(t, errOut.String(), "1 active subjects")
}

func TestCLI_ClearRequiresConfirmation(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun("set", "k", "v")

	_, err := e.run("", "clear")
	assert.ErrorIs(t, err, errAborted)
	assert.Equal(t, "v\n", e.mustRun("get", "k"))

	e.mustRun("clear", "--yes")
	assert.Equal(t, "No keys found\n", e.mustRun("keys"))
}

func TestCLI_Backend(t *testing.T) {
	e := newCLIEnv(t)
	out := e.mustRun("backend")
	assert.Contains(t, out, "local")
	assert.Contains(t, out, "ready")
}

func TestCLI_WrongPassphrase(t *testing.T) {
	e := newCLIEnv(t)
	e.mustRun("set", "k", "v")

	var out bytes.Buffer
	root := NewRootCommand(&out, &out)
	root.SetArgs([]string{"--no-native", "--passphrase", "other", "--local-path", e.dir, "get", "k"})
	assert.Error(t, root.Execute())
}

func TestCLI_InvalidConfig(t *testing.T) {
	e := newCLIEnv(t)
	t.Setenv("CREDSTORE_LOG_FORMAT", "xml")
	_, err := e.run("", "keys")
	assert.Error(t, err)
}

func TestCLI_Version(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCommand(&out, &out)
	root.SetArgs([]string{"version"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "credstore version dev")
}

func TestCLI_NodeInfo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     json.RawMessage `json:"id"`
			Method string          `json:"method"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		result := "0x1"
		if req.Method == "eth_blockNumber" {
			result = "0x64"
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}))
	defer srv.Close()

	e := newCLIEnv(t)
	var got map[string]string
	require.NoError(t, json.Unmarshal([]byte(e.mustRun("-o", "json", "node", "info", "--endpoint", srv.URL)), &got))
	assert.Equal(t, map[string]string{
		"endpoint": srv.URL,
		"chain_id": "1",
		"block":    "100",
	}, got)

	_, err := e.run("", "node", "info")
	assert.ErrorIs(t, err, errNoEndpoint)
}

func TestMetricsHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec := metrics.NewPrometheus(reg)
	rec.RecordFallback("unavailable")

	srv := httptest.NewServer(metricsHandler(reg))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	var body bytes.Buffer
	_, err = body.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), `credstore_backend_fallbacks_total{reason="unavailable"} 1`)
	assert.Contains(t, body.String(), "go_goroutines")
}

func TestPrinter_UnknownFormat(t *testing.T) {
	p := NewPrinter("yaml", &bytes.Buffer{})
	assert.Error(t, p.PrintKeys(nil))
	assert.Error(t, p.PrintSuccess("x"))
}

func TestStoreCheck(t *testing.T) {
	ctx := context.Background()
	cfg := credstore.DefaultConfig()
	cfg.SkipNative = true
	cfg.Local.Passphrase = "check"
	cfg.Local.KDFParams = &kdf.Params{
		Algorithm: kdf.AlgorithmArgon2id,
		Memory:    kdf.MinArgon2Memory,
		Time:      1,
		Threads:   1,
		KeyLength: 32,
	}
	s := credstore.New(cfg)

	result := storeCheck(s)(ctx)
	assert.Equal(t, health.StatusUnhealthy, result.Status)

	require.NoError(t, s.Initialize(ctx))
	require.NoError(t, s.Set(ctx, "k", "v"))
	result = storeCheck(s)(ctx)
	assert.Equal(t, health.StatusDegraded, result.Status)
	assert.Equal(t, "local backend, 1 keys", result.Message)

	require.NoError(t, s.Close())
	assert.Equal(t, health.StatusUnhealthy, storeCheck(s)(ctx).Status)
}
