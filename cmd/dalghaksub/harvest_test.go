package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/skybow044/dalghaksub/internal/config"
	"github.com/skybow044/dalghaksub/internal/crawler"
	"github.com/skybow044/dalghaksub/internal/model"
	"github.com/skybow044/dalghaksub/internal/sharelink"
)

// renderPage renders a channel preview page; texts may contain <br>.
func renderPage(firstID int64, texts ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i, text := range texts {
		fmt.Fprintf(&b, `<div class="tgme_widget_message_wrap"><div class="tgme_widget_message" data-post="chan/%d">`+
			`<div class="tgme_widget_message_text">%s</div></div></div>`, firstID+int64(i), text)
	}
	b.WriteString("</body></html>")
	return b.String()
}

// channelServer serves page as the first page and empty pages after it.
func channelServer(t *testing.T, page string) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("before") != "" {
			_, _ = w.Write([]byte(renderPage(0)))
			return
		}
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(server.Close)

	return server
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testConfig returns a config whose files all live in a temporary directory.
func testConfig(t *testing.T) (*config.Config, string) {
	t.Helper()

	dir := t.TempDir()
	cfg := config.NewConfig()
	cfg.Channel = "chan"
	cfg.Count = 10
	cfg.CrawlDelay = 0
	cfg.Output = filepath.Join(dir, "sub.txt")
	cfg.EncodedOutput = filepath.Join(dir, "sub_base64.txt")
	cfg.HistoryDB = filepath.Join(dir, "history.db")
	cfg.GeoDBPath = filepath.Join(dir, "geo.db")
	cfg.GeoBackend = config.GeoBackendNone
	return cfg, dir
}

func newTestHarvester(cfg *config.Config, server *httptest.Server, out io.Writer) *harvester {
	return &harvester{
		cfg:    cfg,
		logger: quietLogger(),
		client: server.Client(),
		out:    out,
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

const channelPosts = "Fresh servers:<br>vless://a@203.0.113.5:443?type=ws#fast<br>vmess://not.valid"

// TestHarvest runs whole harvests against a fake channel.
func TestHarvest(t *testing.T) {
	t.Parallel()

	t.Run("writes every output", func(t *testing.T) {
		t.Parallel()

		server := channelServer(t, renderPage(1,
			channelPosts,
			"trojan://secret@198.51.100.7:8443#tr<br>ss://YWVzOnBhc3M@192.0.2.9:8388#ss",
		))
		cfg, dir := testConfig(t)
		cfg.SplitDir = filepath.Join(dir, "split")
		cfg.CombinedOutput = filepath.Join(dir, "combined.txt")
		cfg.IncludeSS = true
		cfg.MessagesOutput = filepath.Join(dir, "messages.txt")

		var out bytes.Buffer
		hr, err := newTestHarvester(cfg, server, &out).harvest(context.Background(), server.URL, harvestInput{})
		if err != nil {
			t.Fatalf("harvest failed: %v", err)
		}

		plain := readFile(t, cfg.Output)
		want := "vless://a@203.0.113.5:443?type=ws#fast-01\n" +
			"trojan://secret@198.51.100.7:8443#tr-02\n" +
			"ss://YWVzOnBhc3M@192.0.2.9:8388#ss-03\n"
		if plain != want {
			t.Errorf("got plain output %q, want %q", plain, want)
		}

		decoded, err := base64.StdEncoding.DecodeString(readFile(t, cfg.EncodedOutput))
		if err != nil || string(decoded) != plain {
			t.Errorf("encoded output does not decode to the plain output (err=%v)", err)
		}

		for _, name := range []string{"vless.txt", "vless_base64.txt", "trojan.txt", "ss.txt"} {
			if _, err := os.Stat(filepath.Join(cfg.SplitDir, name)); err != nil {
				t.Errorf("expected split file %s: %v", name, err)
			}
		}
		if !strings.HasPrefix(readFile(t, cfg.CombinedOutput), "# VLESS\n") {
			t.Error("combined output should start with the VLESS section")
		}
		if !strings.Contains(readFile(t, cfg.MessagesOutput), "\n\n-----\n\n") {
			t.Error("message dump should separate messages")
		}

		if hr.Channel != "chan" || len(hr.Links) != 3 {
			t.Errorf("unexpected report channel=%q links=%d", hr.Channel, len(hr.Links))
		}
		if !strings.Contains(out.String(), "DALGHAKSUB HARVEST") {
			t.Errorf("expected text summary, got %q", out.String())
		}
	})

	t.Run("second identical run is unchanged", func(t *testing.T) {
		t.Parallel()

		server := channelServer(t, renderPage(1, channelPosts))
		cfg, _ := testConfig(t)

		h := newTestHarvester(cfg, server, io.Discard)
		first, err := h.harvest(context.Background(), server.URL, harvestInput{})
		if err != nil {
			t.Fatalf("first harvest failed: %v", err)
		}
		if first.Unchanged() {
			t.Error("first run cannot be unchanged")
		}

		second, err := h.harvest(context.Background(), server.URL, harvestInput{})
		if err != nil {
			t.Fatalf("second harvest failed: %v", err)
		}
		if !second.Unchanged() {
			t.Errorf("expected unchanged run, digests %q and %q", second.Digest, second.PreviousDigest)
		}

		var out bytes.Buffer
		if err := listHistory(context.Background(), &out, cfg, "chan", 0, false); err != nil {
			t.Fatalf("listHistory failed: %v", err)
		}
		if !strings.Contains(out.String(), "(2 runs)") {
			t.Errorf("expected two runs in history, got %q", out.String())
		}
	})

	t.Run("no valid links writes nothing", func(t *testing.T) {
		t.Parallel()

		server := channelServer(t, renderPage(1, "hello", "vless://nohost"))
		cfg, _ := testConfig(t)

		_, err := newTestHarvester(cfg, server, io.Discard).harvest(context.Background(), server.URL, harvestInput{})
		if !errors.Is(err, sharelink.ErrNoValidLinks) {
			t.Fatalf("expected ErrNoValidLinks, got %v", err)
		}
		if _, err := os.Stat(cfg.Output); !os.IsNotExist(err) {
			t.Error("no output file expected after a failed run")
		}
	})

	t.Run("first page failure is fatal", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		t.Cleanup(server.Close)
		cfg, _ := testConfig(t)

		_, err := newTestHarvester(cfg, server, io.Discard).harvest(context.Background(), server.URL, harvestInput{})
		var transportErr *crawler.TransportError
		if !errors.As(err, &transportErr) || transportErr.StatusCode != http.StatusBadGateway {
			t.Errorf("expected TransportError with status 502, got %v", err)
		}
	})

	t.Run("json and markdown summaries", func(t *testing.T) {
		t.Parallel()

		server := channelServer(t, renderPage(1, channelPosts))
		cfg, dir := testConfig(t)
		cfg.JSONReport = true
		cfg.NoHistory = true

		var out bytes.Buffer
		if _, err := newTestHarvester(cfg, server, &out).harvest(context.Background(), server.URL, harvestInput{}); err != nil {
			t.Fatalf("harvest failed: %v", err)
		}

		var summary map[string]any
		if err := json.Unmarshal(out.Bytes(), &summary); err != nil {
			t.Fatalf("summary is not JSON: %v\n%s", err, out.String())
		}
		if summary["channel"] != "chan" || summary["links"] != float64(1) {
			t.Errorf("unexpected summary %v", summary)
		}

		cfg.JSONReport = false
		cfg.MarkdownReport = filepath.Join(dir, "reports", "summary.md")
		if _, err := newTestHarvester(cfg, server, io.Discard).harvest(context.Background(), server.URL, harvestInput{}); err != nil {
			t.Fatalf("harvest failed: %v", err)
		}
		if !strings.Contains(readFile(t, cfg.MarkdownReport), "# Subscription Harvest") {
			t.Error("expected Markdown summary heading")
		}
	})

	t.Run("annotation without geolocation adds the attribution", func(t *testing.T) {
		t.Parallel()

		server := channelServer(t, renderPage(1, channelPosts))
		cfg, _ := testConfig(t)
		cfg.Annotate = true
		cfg.NoHistory = true

		if _, err := newTestHarvester(cfg, server, io.Discard).harvest(context.Background(), server.URL, harvestInput{}); err != nil {
			t.Fatalf("harvest failed: %v", err)
		}
		if got := readFile(t, cfg.Output); got != "vless://a@203.0.113.5:443?type=ws#fast-01%20%40chan\n" {
			t.Errorf("unexpected annotated output %q", got)
		}
	})

	t.Run("unreachable geo database degrades to attribution", func(t *testing.T) {
		t.Parallel()

		server := channelServer(t, renderPage(1, channelPosts))
		cfg, _ := testConfig(t)
		cfg.Annotate = true
		cfg.NoHistory = true
		cfg.GeoBackend = config.GeoBackendDatabase
		missing := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(missing.Close)
		cfg.GeoDBURL = missing.URL + "/ranges.csv"

		if _, err := newTestHarvester(cfg, server, io.Discard).harvest(context.Background(), server.URL, harvestInput{}); err != nil {
			t.Fatalf("harvest failed: %v", err)
		}
		if got := readFile(t, cfg.Output); !strings.HasSuffix(got, "#fast-01%20%40chan\n") {
			t.Errorf("unexpected annotated output %q", got)
		}
	})
}

// geoServer answers every lookup with code and counts requests.
func geoServer(t *testing.T, code string, requests *atomic.Int32) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"success","countryCode":%q}`, code)
	}))
	t.Cleanup(server.Close)

	return server
}

// TestAnnotateLines runs the line annotation variant.
func TestAnnotateLines(t *testing.T) {
	t.Parallel()

	t.Run("input lines are tagged through the http backend", func(t *testing.T) {
		t.Parallel()

		var requests atomic.Int32
		geoSrv := geoServer(t, "DE", &requests)

		cfg, dir := testConfig(t)
		cfg.GeoBackend = config.GeoBackendHTTP
		cfg.GeoAPIURL = geoSrv.URL + "/json/{ip}"
		cfg.GeoRateLimit = 0
		cfg.NoHistory = true
		cfg.Output = filepath.Join(dir, "normal.txt")
		cfg.EncodedOutput = ""

		messages, err := readInput("-", strings.NewReader(
			"vless://a@203.0.113.5:443#x\r\nnot a link\ntrojan://b@203.0.113.5:443\nvless://a@203.0.113.5:443#x\n"))
		if err != nil {
			t.Fatalf("readInput failed: %v", err)
		}

		h := &harvester{cfg: cfg, logger: quietLogger(), client: geoSrv.Client(), out: io.Discard}
		hr, err := h.harvest(context.Background(), "http://127.0.0.1:1/unused", harvestInput{messages: messages, lineMode: true})
		if err != nil {
			t.Fatalf("harvest failed: %v", err)
		}

		flag := "\U0001F1E9\U0001F1EA"
		want := "vless://a@203.0.113.5:443#x " + flag + " @chan\n" +
			"trojan://b@203.0.113.5:443 " + flag + " @chan\n"
		if got := readFile(t, cfg.Output); got != want {
			t.Errorf("got %q, want %q", got, want)
		}
		if n := requests.Load(); n != 1 {
			t.Errorf("expected one backend query for a repeated IP, got %d", n)
		}
		if hr.Annotated != 2 {
			t.Errorf("expected 2 annotated lines, got %d", hr.Annotated)
		}
	})

	t.Run("http answers persist across runs", func(t *testing.T) {
		t.Parallel()

		var requests atomic.Int32
		geoSrv := geoServer(t, "NL", &requests)

		cfg, _ := testConfig(t)
		cfg.GeoBackend = config.GeoBackendHTTP
		cfg.GeoAPIURL = geoSrv.URL + "/json/{ip}"
		cfg.NoHistory = true

		h := &harvester{cfg: cfg, logger: quietLogger(), client: geoSrv.Client(), out: io.Discard}
		in := harvestInput{messages: []model.Message{{Text: "ss://x@192.0.2.1:8388"}}, lineMode: true}
		for i := 0; i < 2; i++ {
			if _, err := h.harvest(context.Background(), "http://127.0.0.1:1/unused", in); err != nil {
				t.Fatalf("run %d failed: %v", i, err)
			}
		}
		if n := requests.Load(); n != 1 {
			t.Errorf("expected the second run to use the stored answer, got %d queries", n)
		}
	})

	t.Run("empty input fails", func(t *testing.T) {
		t.Parallel()

		messages, err := readInput("-", strings.NewReader("  \n"))
		if err != nil {
			t.Fatalf("readInput failed: %v", err)
		}

		cfg, _ := testConfig(t)
		cfg.NoHistory = true
		h := &harvester{cfg: cfg, logger: quietLogger(), client: http.DefaultClient, out: io.Discard}
		_, err = h.harvest(context.Background(), "http://127.0.0.1:1/unused", harvestInput{messages: messages, lineMode: true})
		if !errors.Is(err, crawler.ErrNoMessages) {
			t.Errorf("expected ErrNoMessages, got %v", err)
		}
	})

	t.Run("missing input file", func(t *testing.T) {
		t.Parallel()

		if _, err := readInput(filepath.Join(t.TempDir(), "missing.txt"), nil); err == nil {
			t.Error("expected an error for a missing input file")
		}
	})
}
