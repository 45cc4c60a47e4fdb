package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/jeanpaul/sakemate/internal/config"
	"github.com/jeanpaul/sakemate/internal/kv"
	"github.com/jeanpaul/sakemate/internal/logging"
	"github.com/jeanpaul/sakemate/internal/provider"
	"github.com/jeanpaul/sakemate/internal/session"
	"github.com/jeanpaul/sakemate/internal/sommelier"
	"github.com/jeanpaul/sakemate/internal/store"
	"github.com/jeanpaul/sakemate/internal/tui"
	"github.com/jeanpaul/sakemate/pkg/version"
)

var configFlag = flag.String("config", "", "Path to config file (default: ./config.yaml or ~/.config/sakemate/config.yaml)")

func main() {
	versionFlag := flag.Bool("version", false, "Print version")
	helpFlag := flag.Bool("help", false, "Show help")
	flag.BoolVar(helpFlag, "h", false, "Show help")

	flag.Usage = showHelp
	flag.Parse()

	if *helpFlag {
		showHelp()
		return
	}
	if *versionFlag {
		cmdVersion()
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		showHelp()
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "serve":
		cmdServe(ctx, rest)
	case "users":
		cmdUsers(ctx)
	case "adduser":
		cmdAddUser(ctx, rest)
	case "use":
		cmdUse(ctx, rest)
	case "whoami":
		cmdWhoami(ctx)
	case "logout":
		cmdLogout(ctx)
	case "brands":
		cmdBrands(ctx, rest)
	case "addbrand":
		cmdAddBrand(ctx, rest)
	case "rmbrand":
		cmdRemoveBrand(ctx, rest)
	case "recommend":
		cmdRecommend(ctx, rest)
	case "export":
		cmdExport(ctx, rest)
	case "import":
		cmdImport(ctx, rest)
	case "doctor":
		cmdDoctor(ctx)
	case "setup":
		cmdSetup(ctx)
	case "reset":
		cmdReset(ctx, rest)
	case "version":
		cmdVersion()
	case "help":
		showHelp()
	default:
		fmt.Fprintln(os.Stderr, tui.ErrorStyle.Render("unknown command: "+cmd))
		showHelp()
		os.Exit(2)
	}
}

// app holds what every command needs: configuration, the store and the
// session restored from it.
type app struct {
	cfg     *config.Config
	backend kv.Backend
	store   *store.Store
	session *session.Session
}

func openApp(ctx context.Context) *app {
	cfg, err := config.Load(*configFlag)
	if err != nil {
		fatal("config error: %s", err)
	}
	logging.Init(logging.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: os.Stderr,
	})

	path := cfg.Storage.Path
	if cfg.Storage.Driver == kv.DriverFile && filepath.Ext(path) == "" {
		path = filepath.Join(path, "sakemate.json")
	}
	backend, err := kv.Open(kv.Options{
		Driver:    cfg.Storage.Driver,
		Path:      path,
		KeyPrefix: cfg.Storage.KeyPrefix,
	})
	if err != nil {
		fatal("cannot open storage: %s", err)
	}

	st := store.New(backend)
	return &app{
		cfg:     cfg,
		backend: backend,
		store:   st,
		session: session.Load(ctx, st),
	}
}

func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		logging.Warn().Err(err).Msg("closing storage")
	}
}

// newProvider builds the Gemini client with the retry and breaker layers
// the configuration asks for.
func (a *app) newProvider() provider.Provider {
	if err := a.cfg.RequireAPIKey(); err != nil {
		fatal("%s", err)
	}
	ai := a.cfg.AI
	var p provider.Provider = provider.NewGoogle(ai.APIKey, ai.Model,
		provider.WithBaseURL(ai.BaseURL),
		provider.WithTimeout(ai.Timeout),
	)
	p = provider.WithRetry(p, ai.MaxRetries)
	if ai.Breaker.Enabled {
		p = provider.WithBreaker(p, provider.BreakerSettings{
			FailureThreshold: ai.Breaker.FailureThreshold,
			OpenTimeout:      ai.Breaker.OpenTimeout,
		})
	}
	return p
}

func (a *app) newSommelier() *sommelier.Sommelier {
	return sommelier.New(a.newProvider(), sommelier.WithLanguage(a.cfg.AI.Language))
}

// requireSession exits with a hint when nobody is selected.
func (a *app) requireSession() {
	if _, err := a.session.Require(); errors.Is(err, session.ErrNoSession) {
		fatal("no user selected; run: sakemate use <name>")
	}
}

// isTerminal reports whether stdin and stdout are both terminals.
func isTerminal() bool {
	for _, f := range []*os.File{os.Stdin, os.Stdout} {
		fi, err := f.Stat()
		if err != nil || fi.Mode()&os.ModeCharDevice == 0 {
			return false
		}
	}
	return true
}

func fatal(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, tui.ErrorStyle.Render("error: "+msg))
	os.Exit(1)
}

func cmdVersion() {
	fmt.Printf("sakemate %s (%s)\n", version.Version, version.Commit)
}

func showHelp() {
	help := tui.BannerStyle.Render(strings.TrimPrefix(tui.Banner, "\n")) + `
` + tui.BannerStyle.Render("sakemate") + ` - remembers the sake you love, reads the menu for you

` + tui.LabelStyle.Render("USAGE:") + `
  sakemate [flags] <command> [args]

` + tui.LabelStyle.Render("PEOPLE:") + `
  users                       List registered users (max 10)
  adduser <name>              Register a user
  use [name|id]               Select who is drinking (picker when omitted)
  whoami                      Show the selected user
  logout                      Forget the selected user

` + tui.LabelStyle.Render("SAKE:") + `
  brands [--all]              List your favourite brands (--all: everyone's)
  addbrand <name>             Look up a brand and add it to your favourites
  rmbrand <id> [--any]        Remove one of your brands (--any: whoever owns it)
  recommend <image|glob>      Read a menu photo or PDF and pick sake for you

` + tui.LabelStyle.Render("DATA:") + `
  export --format F --out P   Export brands (xlsx, yaml or json)
  import <file.yaml>          Add brands from a YAML catalogue
  reset [--yes]               Delete all users and brands

` + tui.LabelStyle.Render("OTHER:") + `
  serve                       Run the HTTP API
  setup                       Write a config file interactively
  doctor                      Check the Gemini API and storage
  version                     Show version
  help                        Show this help

` + tui.LabelStyle.Render("FLAGS:") + `
  --config <path>             Use a specific config file
  --version                   Show version
  --help, -h                  Show this help

` + tui.LabelStyle.Render("EXAMPLES:") + `
  export GEMINI_API_KEY=...
  sakemate adduser Hanako && sakemate use Hanako
  sakemate addbrand 獺祭
  sakemate recommend ~/Pictures/izakaya-menu.jpg
  sakemate export --format xlsx --out sake.xlsx
`
	fmt.Print(help)
}
