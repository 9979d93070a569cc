package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pagetutor/pagetutor/internal/page"
	"github.com/pagetutor/pagetutor/internal/serve"
	"github.com/pagetutor/pagetutor/internal/signal"
)

var (
	serveHost        string
	servePort        int
	serveToken       string
	serveAllowNoAuth bool
	serveUI          bool
	serveCORSOrigins []string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the tutor as an HTTP server",
	Long: `Run an HTTP server that streams tutor answers as server-sent events.

Endpoints:
  GET/PUT /api/state
  POST    /api/summarize, /api/simplify, /api/quiz, /api/translate, /api/chat
  POST    /api/render
  GET     /api/conversations, /api/conversations/{id}
  DELETE  /api/conversations/{id}
  GET     /healthz

Use --ui to also serve the popup page at /.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveHost, "host", "", "Bind host (default from config, 127.0.0.1)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Bind port (default from config, 8765)")
	serveCmd.Flags().StringVar(&serveToken, "token", "", "Bearer token for API auth (auto-generated if omitted)")
	serveCmd.Flags().BoolVar(&serveAllowNoAuth, "allow-no-auth", false, "Disable auth (only allowed on loopback host)")
	serveCmd.Flags().BoolVar(&serveUI, "ui", false, "Serve the popup page")
	serveCmd.Flags().StringArrayVar(&serveCORSOrigins, "cors-origin", nil, "Allowed CORS origin (repeatable, or '*' for all)")
}

func runServe(cmd *cobra.Command, args []string) error {
	sess, err := newSession()
	if err != nil {
		return err
	}
	defer sess.Close()

	host := firstNonEmpty(serveHost, sess.cfg.Serve.Host, "127.0.0.1")
	port := servePort
	if port == 0 {
		port = sess.cfg.Serve.Port
	}
	if port <= 0 || port > 65535 {
		return fmt.Errorf("invalid --port %d (must be 1-65535)", port)
	}

	requireAuth := !serveAllowNoAuth
	if !requireAuth && !serve.IsLoopbackHost(host) {
		return fmt.Errorf("--allow-no-auth is only allowed on loopback hosts (got %q)", host)
	}

	token := strings.TrimSpace(firstNonEmpty(serveToken, sess.cfg.Serve.Token))
	if requireAuth && token == "" {
		generated, err := serve.GenerateToken()
		if err != nil {
			return fmt.Errorf("generate auth token: %w", err)
		}
		token = generated
	}

	pages, err := page.NewExtractor(sess.cfg.Page)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background())
	defer stop()

	s := serve.New(serve.Config{
		Host:        host,
		Port:        port,
		RequireAuth: requireAuth,
		Token:       token,
		CORSOrigins: append([]string(nil), serveCORSOrigins...),
		UI:          serveUI,
	}, sess.tutor, pages)

	if err := s.Start(); err != nil {
		return err
	}

	errOut := cmd.ErrOrStderr()
	fmt.Fprintf(errOut, "pagetutor serve listening on http://%s:%d\n", host, port)
	fmt.Fprintf(errOut, "auth: %s\n", authSummary(requireAuth))
	if requireAuth {
		fmt.Fprintf(errOut, "token: %s\n", token)
	}
	fmt.Fprintf(errOut, "ui: %v\n", serveUI)
	fmt.Fprintf(errOut, "provider: %s\n", sess.tutor.Provider().Name())

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.Stop(shutdownCtx)
}

func authSummary(required bool) string {
	if required {
		return "bearer required"
	}
	return "disabled"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
