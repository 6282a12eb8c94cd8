package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"

	"github.com/lomavis/n8n-lomavis-go/internal/api"
	"github.com/lomavis/n8n-lomavis-go/internal/config"
	"github.com/lomavis/n8n-lomavis-go/internal/logger"
	"github.com/lomavis/n8n-lomavis-go/internal/lomavis"
	"github.com/lomavis/n8n-lomavis-go/internal/runner"
	"github.com/lomavis/n8n-lomavis-go/internal/server"
)

const usage = `usage: lomavis <command> [flags]

commands:
  run    -resource R -operation O [-in items.json] [-continue-on-fail]
  check  verify LOMAVIS_API_KEY against the account endpoint
  serve  [-addr :8080] expose POST /api/v1/:resource/:operation
`

func main() {
	log.SetFlags(0)

	cfg, err := config.NewConfig()
	must(err)
	base, err := logger.New(cfg.Log, os.Stderr)
	must(err)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, base.WithField("app", "lomavis"), os.Args[1:], os.Stdin, os.Stdout); err != nil {
		stop()
		log.Fatal(err)
	}
}

func must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, cfg *config.Configuration, log *logrus.Entry, args []string, stdin io.Reader, stdout io.Writer) error {
	if len(args) == 0 {
		return errors.New(usage)
	}
	switch args[0] {
	case "run":
		return runItems(ctx, cfg, log, args[1:], stdin, stdout)
	case "check":
		return checkCredentials(ctx, cfg, log, stdout)
	case "serve":
		return serve(ctx, cfg, log, args[1:])
	case "-h", "-help", "--help", "help":
		fmt.Fprint(stdout, usage)
		return nil
	}
	return fmt.Errorf("unknown command %q\n%s", args[0], usage)
}

func newService(cfg *config.Configuration, log *logrus.Entry) (*lomavis.Service, *api.Client) {
	client := api.NewClient(&http.Client{Timeout: cfg.HTTPTimeout}, cfg.APIKey, log)
	return lomavis.NewService(client, client, cfg.BaseURL, log), client
}

func runItems(ctx context.Context, cfg *config.Configuration, log *logrus.Entry, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	resource := fs.String("resource", "", "resource (profileGroup, post, media, competitor)")
	operation := fs.String("operation", "", "operation, e.g. list or createDraftAndSendApproval")
	inFile := fs.String("in", "-", "JSON file with the input items (- for stdin)")
	continueOnFail := fs.Bool("continue-on-fail", cfg.ContinueOnFail, "emit an error record per failed item instead of stopping")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *resource == "" || *operation == "" {
		return errors.New("run: -resource and -operation are required")
	}
	key := lomavis.Key{Resource: lomavis.Resource(*resource), Operation: lomavis.Operation(*operation)}

	raw, err := readInput(*inFile, stdin)
	if err != nil {
		return err
	}
	items, err := decodeItems(raw)
	if err != nil {
		return fmt.Errorf("read items: %w", err)
	}
	log.WithFields(logrus.Fields{
		"input": humanize.Bytes(uint64(len(raw))),
		"items": humanize.Comma(int64(len(items))),
	}).Debug("items loaded")

	svc, _ := newService(cfg, log)
	registry := svc.Registry()

	// Dry run: check the key and inputs, never touch the network.
	if cfg.DryRun {
		if _, err := registry.Lookup(key); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "DRY RUN ✅ (no network calls)")
		fmt.Fprintf(stdout, "Will run %s over %s item(s)\n", key, humanize.Comma(int64(len(items))))
		return nil
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	start := time.Now()
	out, runErr := runner.New(registry, log).Run(ctx, key, items, runner.Options{
		ContinueOnFail: *continueOnFail,
		AllowPaths:     true,
	})
	if err := writeJSON(stdout, out); err != nil {
		return err
	}
	if runErr != nil {
		return runErr
	}
	log.WithFields(logrus.Fields{
		"outputs": len(out),
		"took":    time.Since(start).Round(time.Millisecond).String(),
	}).Info("done")
	return nil
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" || path == "" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// decodeItems accepts a list of host items ({"json": ..., "binary": ...}),
// a list of bare parameter objects, or a single object.
func decodeItems(raw []byte) ([]runner.Item, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return []runner.Item{{JSON: json.RawMessage("{}")}}, nil
	}
	if raw[0] == '{' {
		raw = append(append([]byte{'['}, raw...), ']')
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, err
	}
	items := make([]runner.Item, 0, len(entries))
	for i, e := range entries {
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(e, &probe); err != nil {
			return nil, fmt.Errorf("item %d: expected an object", i)
		}
		if _, ok := probe["json"]; !ok {
			items = append(items, runner.Item{JSON: e})
			continue
		}
		var it runner.Item
		if err := json.Unmarshal(e, &it); err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		items = append(items, it)
	}
	return items, nil
}

// writeJSON pretty-prints on a terminal and writes compact JSON otherwise.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func checkCredentials(ctx context.Context, cfg *config.Configuration, log *logrus.Entry, stdout io.Writer) error {
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}
	_, client := newService(cfg, log)
	if _, err := client.Request(ctx, api.Call{Method: http.MethodGet, URL: cfg.CredentialTestURL}); err != nil {
		return fmt.Errorf("credential test failed: %w", err)
	}
	fmt.Fprintln(stdout, "credentials OK")
	return nil
}

func serve(ctx context.Context, cfg *config.Configuration, log *logrus.Entry, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", cfg.ListenAddress, "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return err
	}

	svc, _ := newService(cfg, log)
	app := server.New(runner.New(svc.Registry(), log), cfg.ContinueOnFail, cfg.RequestTimeout, log).App()

	errc := make(chan error, 1)
	go func() { errc <- app.Listen(*addr) }()
	log.WithField("addr", *addr).Info("listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	log.Info("shutting down")
	return app.ShutdownWithContext(shutdownCtx)
}
