package main

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"jwbindex/internal/services"
)

type cliTestEnv struct {
	server      *httptest.Server
	configPath  string
	downloadDir string
	outputDir   string
	files       map[string]string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("JWB_LANGUAGE", "")
	t.Setenv("JWB_API_BASE_URL", "")

	env := &cliTestEnv{
		downloadDir: filepath.Join(base, "media"),
		outputDir:   filepath.Join(base, "index"),
		files:       map[string]string{"alpha.mp4": "hello", "beta.mp4": "world!"},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/categories/E/Root", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"category":{"key":"Root","name":"Root Videos","subcategories":[{"key":"Child","name":"Child Videos"},{"key":"Skip","name":"Skipped"}],"media":[%s]}}`,
			env.mediaJSON("Alpha", "alpha.mp4", "2022-01-02T10:00:00.000Z"))
	})
	mux.HandleFunc("/v1/categories/E/Child", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"category":{"key":"Child","name":"Child Videos","media":[%s]}}`,
			env.mediaJSON("Beta", "beta.mp4", "2023-05-06T10:00:00Z"))
	})
	mux.HandleFunc("/v1/languages/E/web", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"languages":[{"code":"E","locale":"en","name":"English","vernacular":"English"},{"code":"S","locale":"es","name":"Spanish","vernacular":"español"}]}`)
	})
	mux.HandleFunc("/files/", func(w http.ResponseWriter, r *http.Request) {
		body, ok := env.files[filepath.Base(r.URL.Path)]
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, body)
	})
	env.server = httptest.NewServer(mux)
	t.Cleanup(env.server.Close)

	env.configPath = filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[crawl]
categories = ["Root"]
exclude = ["Skip"]
language = "E"
quality = 720

[api]
base_url = %q
cache_ttl_seconds = 0

[paths]
download_dir = %q
output_dir = %q
history_db = %q
log_dir = %q

[download]
keep_free_mib = 0
`, env.server.URL+"/v1", env.downloadDir, env.outputDir, filepath.Join(base, "history.db"), filepath.Join(base, "logs"))
	if err := os.WriteFile(env.configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return env
}

func (e *cliTestEnv) mediaJSON(title, name, published string) string {
	body := e.files[name]
	sum := md5.Sum([]byte(body))
	return fmt.Sprintf(`{"type":"video","title":%q,"firstPublished":%q,"files":[{"progressiveDownloadURL":%q,"checksum":%q,"filesize":%d,"label":"720p","frameHeight":720,"subtitled":false}]}`,
		title, published, e.server.URL+"/files/"+name, hex.EncodeToString(sum[:]), len(body))
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func TestCrawlPrintsTree(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, "crawl", "--media")
	if err != nil {
		t.Fatalf("crawl: %v", err)
	}
	requireContains(t, out, "Root Videos (Root) - 1 media item")
	requireContains(t, out, "  Child Videos (Child) - 1 media item")
	requireContains(t, out, "  Skipped (Skip) [not indexed]")
	requireContains(t, out, "* Alpha [2022-01-02, 5 B]")
}

func TestCrawlJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, "crawl", "--json")
	if err != nil {
		t.Fatalf("crawl --json: %v", err)
	}
	var roots []map[string]any
	if err := json.Unmarshal([]byte(out), &roots); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(roots) != 1 || roots[0]["key"] != "Root" {
		t.Fatalf("unexpected roots: %s", out)
	}
}

func TestCategoryFlagOverridesSeeds(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, "-c", "Child", "crawl")
	if err != nil {
		t.Fatalf("crawl: %v", err)
	}
	if strings.Contains(out, "Root Videos") {
		t.Fatalf("expected only the Child seed, got:\n%s", out)
	}
	requireContains(t, out, "Child Videos (Child)")
}

func TestSinceFlagFiltersMedia(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, "--since", "2023-01-01", "output", "txt", "--stdout")
	if err != nil {
		t.Fatalf("output: %v", err)
	}
	if strings.Contains(out, "alpha.mp4") || !strings.Contains(out, "beta.mp4") {
		t.Fatalf("unexpected filtered list:\n%s", out)
	}
}

func TestInvalidFlagIsValidationError(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, env, "--quality=-1", "crawl")
	if err == nil {
		t.Fatal("expected error for negative quality")
	}
	if code := services.ExitCode(err); code != 2 {
		t.Fatalf("expected exit code 2, got %d (%v)", code, err)
	}
}

func TestDownloadAndHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, "download")
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	requireContains(t, out, "Download summary")
	for name, body := range env.files {
		data, err := os.ReadFile(filepath.Join(env.downloadDir, name))
		if err != nil || string(data) != body {
			t.Fatalf("expected %s with %q, got %q (%v)", name, body, data, err)
		}
	}

	out, _, err = runCLI(t, env, "download", "--json")
	if err != nil {
		t.Fatalf("second download: %v", err)
	}
	var summary map[string]any
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, out)
	}
	if summary["downloaded"] != float64(0) || summary["skipped"] != float64(2) {
		t.Fatalf("expected everything skipped on rerun, got %v", summary)
	}

	out, _, err = runCLI(t, env, "history", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "alpha.mp4")
	requireContains(t, out, "beta.mp4")

	if _, _, err := runCLI(t, env, "history", "remove", "alpha.mp4"); err != nil {
		t.Fatalf("history remove: %v", err)
	}
	_, _, err = runCLI(t, env, "history", "remove", "alpha.mp4")
	if code := services.ExitCode(err); code != 3 {
		t.Fatalf("expected not-found exit code 3, got %d (%v)", code, err)
	}
}

func TestOutputWritesPlaylists(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, "output", "m3u")
	if err != nil {
		t.Fatalf("output m3u: %v", err)
	}
	requireContains(t, out, "Wrote m3u index")
	data, err := os.ReadFile(filepath.Join(env.outputDir, "Root.m3u"))
	if err != nil {
		t.Fatalf("read playlist: %v", err)
	}
	requireContains(t, string(data), "#EXTINF:-1,Child Videos\nChild.m3u\n")

	if _, _, err := runCLI(t, env, "output", "m3u", "--stdout"); err == nil {
		t.Fatal("expected --stdout to reject m3u")
	}
	if _, _, err := runCLI(t, env, "output", "pdf"); services.ExitCode(err) != 2 {
		t.Fatalf("expected validation exit code for unknown mode, got %v", err)
	}
}

func TestLanguagesTable(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, "languages", "--filter", "span")
	if err != nil {
		t.Fatalf("languages: %v", err)
	}
	requireContains(t, out, "Spanish")
	requireContains(t, out, "español")
	if strings.Contains(out, "English") {
		t.Fatalf("filter should hide English:\n%s", out)
	}
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, env, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, env.configPath)

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, env, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
	if _, _, err := runCLI(t, env, "config", "init", "--path", target); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestStatusReportsChecks(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, env, "status")
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	requireContains(t, out, "Download directory:")
	requireContains(t, out, "Catalog API:")

	env.server.Close()
	out, _, err = runCLI(t, env, "status")
	if services.ExitCode(err) != 2 {
		t.Fatalf("expected configuration exit code when catalog is down, got %v\n%s", err, out)
	}
	requireContains(t, out, "[ERROR]")
}

func TestCloseAfterRunReleasesOnFailure(t *testing.T) {
	released := 0
	root := &cobra.Command{Use: "root", RunE: func(*cobra.Command, []string) error { return nil }}
	child := &cobra.Command{Use: "child", RunE: func(*cobra.Command, []string) error { return fmt.Errorf("boom") }}
	root.AddCommand(child)
	closeAfterRun(root, func() { released++ })

	root.SetArgs([]string{"child"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	if err := root.Execute(); err == nil {
		t.Fatal("expected child error")
	}
	if released != 1 {
		t.Fatalf("expected release after failed run, got %d", released)
	}
}
