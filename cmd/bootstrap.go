package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/pagetutor/pagetutor/internal/config"
	"github.com/pagetutor/pagetutor/internal/display"
	"github.com/pagetutor/pagetutor/internal/llm"
	"github.com/pagetutor/pagetutor/internal/page"
	"github.com/pagetutor/pagetutor/internal/store"
	"github.com/pagetutor/pagetutor/internal/tutor"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := applyProviderOverrides(cfg, providerFlag); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyProviderOverrides(cfg *config.Config, flag string) error {
	if flag == "" {
		return nil
	}
	provider, model, err := llm.ParseProviderModel(flag)
	if err != nil {
		return err
	}
	cfg.ApplyOverrides(provider, model)
	return nil
}

// session bundles what a command needs to run flows.
type session struct {
	cfg   *config.Config
	store store.Store
	tutor *tutor.Tutor
}

func (s *session) Close() {
	if s.store != nil {
		s.store.Close()
	}
}

// newSession loads config and wires provider, store and tutor.
func newSession() (*session, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	provider, err := llm.NewProvider(cfg)
	if err != nil {
		return nil, err
	}
	st, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	opts, err := tutor.FromConfig(cfg, st)
	if err != nil {
		st.Close()
		return nil, err
	}
	opts.Debug = debugFlag
	return &session{cfg: cfg, store: st, tutor: tutor.New(provider, opts)}, nil
}

func openStore(cfg *config.Config) (store.Store, error) {
	st, err := store.NewStore(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return st, nil
}

// requireEnabled refuses to run flows while the tutor is switched off.
// Without a database the switch cannot outlive a process, so one-shot
// commands skip it.
func (s *session) requireEnabled(ctx context.Context) error {
	if !s.cfg.Store.Enabled {
		return nil
	}
	enabled, err := s.store.GetEnabled(ctx)
	if err != nil {
		return err
	}
	if !enabled {
		return errors.New("pagetutor is disabled (run 'pagetutor state on' to enable it)")
	}
	return nil
}

// newSurface picks the output surface from the --html and --frames flags.
func newSurface() display.Surface {
	if htmlFlag {
		return display.NewHTMLWriter(os.Stdout, framesFlag)
	}
	return display.NewTerminal(os.Stdout)
}

// readText returns the positional text, or stdin when requested or when
// no argument was given and stdin is not a terminal.
func readText(args []string, stdin io.Reader, useStdin bool) (string, error) {
	if len(args) > 0 && !useStdin {
		return strings.Join(args, " "), nil
	}
	if !useStdin && isTerminal(stdin) {
		return "", errors.New("no text given (pass it as an argument or pipe it on stdin)")
	}
	b, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(b), nil
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// extractPage reads a URL with the configured extractor. browser forces
// the headless Chrome extractor.
func extractPage(ctx context.Context, cfg *config.Config, rawURL string, browser bool) (page.Page, error) {
	pc := cfg.Page
	if browser {
		pc.Extractor = page.ExtractorBrowser
	}
	ex, err := page.NewExtractor(pc)
	if err != nil {
		return page.Page{}, err
	}
	return ex.Extract(ctx, rawURL)
}

// flowError drops ErrStopped; the surface already showed the stop.
func flowError(err error) error {
	if err == nil || errors.Is(err, tutor.ErrStopped) {
		return nil
	}
	return err
}
