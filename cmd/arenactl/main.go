// Command arenactl inspects and drives a running arena server.
//
//	arenactl [-server URL] state
//	arenactl [-server URL] history [-limit N]
//	arenactl [-server URL] start|reset
//
// start and reset sign a short-lived operator token with the secret from the
// config file or ADMIN_JWT_SECRET.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/coindelisi66/token-hunger-arena/internal/arena"
	"github.com/coindelisi66/token-hunger-arena/internal/auth"
	"github.com/coindelisi66/token-hunger-arena/internal/config"
)

const tokenTTL = time.Minute

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	serverURL := flag.String("server", "http://localhost:4000", "arena server base URL")
	limit := flag.Int("limit", 10, "number of finished games to list")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: arenactl [flags] state|history|start|reset")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := &client{base: strings.TrimRight(*serverURL, "/"), http: &http.Client{Timeout: 10 * time.Second}}

	var err error
	switch cmd := flag.Arg(0); cmd {
	case "state":
		var snap arena.Snapshot
		if err = c.getJSON(ctx, "/api/state", &snap); err == nil {
			renderState(os.Stdout, snap)
		}
	case "history":
		var entries []historyEntry
		if err = c.getJSON(ctx, "/api/history?limit="+strconv.Itoa(*limit), &entries); err == nil {
			renderHistory(os.Stdout, entries)
		}
	case "start", "reset":
		cfg, loadErr := config.Load(*configPath)
		if loadErr != nil {
			slog.Error("failed to load config", "err", loadErr, "path", *configPath)
			os.Exit(1)
		}
		var tok string
		tok, err = auth.NewConfig(cfg.Auth.JWTSecret, cfg.Auth.Issuer).IssueToken("arenactl", tokenTTL)
		if err == nil {
			err = c.post(ctx, "/api/"+cmd, tok, os.Stdout)
		}
	default:
		err = fmt.Errorf("unknown command %q", cmd)
	}
	if err != nil {
		slog.Error("arenactl failed", "err", err)
		os.Exit(1)
	}
}

type client struct {
	base string
	http *http.Client
}

func (c *client) getJSON(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("GET %s: decode: %w", path, err)
	}
	return nil
}

func (c *client) post(ctx context.Context, path, token string, out io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, nil)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("POST %s: %w", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode >= 300 {
		return fmt.Errorf("POST %s: %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
	}
	fmt.Fprintf(out, "%s: %s %s\n", path, resp.Status, strings.TrimSpace(string(body)))
	return nil
}

// historyEntry mirrors one element of GET /api/history.
type historyEntry struct {
	ID         string            `json:"id"`
	StartedAt  *time.Time        `json:"startedAt,omitempty"`
	FinishedAt time.Time         `json:"finishedAt"`
	Survivors  []arena.TokenView `json:"survivors"`
	Tokens     []arena.TokenView `json:"tokens"`
}

func renderState(w io.Writer, snap arena.Snapshot) {
	if !snap.Initialized {
		fmt.Fprintln(w, "no arena (waiting for the first join)")
		return
	}
	fmt.Fprintf(w, "phase=%s started=%t tradeLeft=%ds burnLeft=%ds alive=%d\n",
		snap.Phase, snap.Started, snap.TradeSecondsLeft, snap.BurnSecondsLeft, len(snap.Survivors()))

	table := tablewriter.NewWriter(w)
	table.Header("ID", "Name", "Alive", "Volume", "Supply")
	for _, t := range snap.Tokens {
		alive := "yes"
		if !t.Alive {
			alive = "burned"
		}
		table.Append(strconv.Itoa(t.ID), t.Name, alive, strconv.FormatInt(t.Volume, 10), strconv.FormatInt(t.Total, 10))
	}
	table.Render()
}

func renderHistory(w io.Writer, entries []historyEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no finished games")
		return
	}
	table := tablewriter.NewWriter(w)
	table.Header("Game", "Started", "Finished", "Duration", "Survivors")
	for _, e := range entries {
		started, duration := "-", "-"
		if e.StartedAt != nil {
			started = e.StartedAt.Local().Format(time.DateTime)
			duration = e.FinishedAt.Sub(*e.StartedAt).Round(time.Second).String()
		}
		names := make([]string, 0, len(e.Survivors))
		for _, s := range e.Survivors {
			names = append(names, s.Name)
		}
		table.Append(shortID(e.ID), started, e.FinishedAt.Local().Format(time.DateTime), duration, strings.Join(names, ", "))
	}
	table.Render()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
