package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jeanpaul/sakemate/internal/api"
	"github.com/jeanpaul/sakemate/internal/config"
	"github.com/jeanpaul/sakemate/internal/export"
	"github.com/jeanpaul/sakemate/internal/health"
	"github.com/jeanpaul/sakemate/internal/menu"
	"github.com/jeanpaul/sakemate/internal/setup"
	"github.com/jeanpaul/sakemate/internal/store"
	"github.com/jeanpaul/sakemate/internal/tui"
	"github.com/jeanpaul/sakemate/internal/types"
)

func cmdServe(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", "", "Listen address (overrides server.addr)")
	fs.Parse(args)

	a := openApp(ctx)
	defer a.Close()

	opts := api.Options{
		Addr:              a.cfg.Server.Addr,
		CORSOrigins:       a.cfg.Server.CORSOrigins,
		RateLimitRequests: a.cfg.Server.RateLimitRequests,
		RateLimitWindow:   a.cfg.Server.RateLimitWindow,
		MaxImageBytes:     a.cfg.AI.MaxImageBytes,
	}
	if *addr != "" {
		opts.Addr = *addr
	}

	srv := api.NewServer(a.store, a.session, a.newSommelier(), opts)
	fmt.Println(tui.BannerStyle.Render("  sakemate API on http://" + opts.Addr))
	if err := srv.Serve(ctx); err != nil {
		fatal("server error: %s", err)
	}
}

func cmdUsers(ctx context.Context) {
	a := openApp(ctx)
	defer a.Close()

	users := a.store.ListUsers(ctx)
	if len(users) == 0 {
		fmt.Println(tui.HelpStyle.Render("  No users yet. Run: sakemate adduser <name>"))
		return
	}
	cur, _ := a.session.Current()
	for _, u := range users {
		marker := "  "
		if u.ID == cur.ID {
			marker = tui.BulletStyle.Render("* ")
		}
		fmt.Printf("%s%s %s\n", marker, tui.LabelStyle.Render(u.Name), tui.HelpStyle.Render(u.ID))
	}
	fmt.Println(tui.HelpStyle.Render(fmt.Sprintf("\n  %d/%d users", len(users), types.MaxUsers)))
}

func cmdAddUser(ctx context.Context, args []string) {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		fatal("usage: sakemate adduser <name>")
	}
	a := openApp(ctx)
	defer a.Close()

	u := types.NewUser(name)
	if err := a.store.AddUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrCapacityExceeded) {
			fatal("%s; remove data with `sakemate reset` to start over", err)
		}
		fatal("could not save user: %s", err)
	}
	fmt.Printf("%s %s %s\n", tui.SuccessStyle.Render("✓ added"), tui.LabelStyle.Render(u.Name), tui.HelpStyle.Render(u.ID))
}

// findUser matches ref against ids first, then names (case-insensitive).
func findUser(users []types.User, ref string) (types.User, bool) {
	for _, u := range users {
		if u.ID == ref {
			return u, true
		}
	}
	for _, u := range users {
		if strings.EqualFold(u.Name, ref) {
			return u, true
		}
	}
	return types.User{}, false
}

func cmdUse(ctx context.Context, args []string) {
	a := openApp(ctx)
	defer a.Close()

	users := a.store.ListUsers(ctx)
	var (
		u  types.User
		ok bool
	)
	if ref := strings.TrimSpace(strings.Join(args, " ")); ref != "" {
		if u, ok = findUser(users, ref); !ok {
			fatal("no user named %q", ref)
		}
	} else {
		if !isTerminal() {
			fatal("usage: sakemate use <name|id>")
		}
		if len(users) == 0 {
			fatal("no users yet; run: sakemate adduser <name>")
		}
		cur, _ := a.session.Current()
		var err error
		if u, ok, err = tui.PickUser(os.Stdout, users, cur.ID); err != nil {
			fatal("%s", err)
		}
		if !ok {
			return
		}
	}

	if _, err := a.session.Select(ctx, u.ID); err != nil {
		fatal("could not select user: %s", err)
	}
	fmt.Printf("%s %s\n", tui.SuccessStyle.Render("✓ drinking as"), tui.LabelStyle.Render(u.Name))
}

func cmdWhoami(ctx context.Context) {
	a := openApp(ctx)
	defer a.Close()

	u, ok := a.session.Current()
	if !ok {
		fmt.Println(tui.HelpStyle.Render("  nobody (run: sakemate use <name>)"))
		return
	}
	n := len(a.store.ListBrands(ctx, u.ID))
	fmt.Printf("%s %s\n", tui.LabelStyle.Render(u.Name), tui.HelpStyle.Render(fmt.Sprintf("(%d brands)", n)))
}

func cmdLogout(ctx context.Context) {
	a := openApp(ctx)
	defer a.Close()

	if err := a.session.Logout(ctx); err != nil {
		fatal("%s", err)
	}
	fmt.Println(tui.SuccessStyle.Render("✓ logged out"))
}

func cmdBrands(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("brands", flag.ExitOnError)
	all := fs.Bool("all", false, "Show every user's brands")
	fs.Parse(args)

	a := openApp(ctx)
	defer a.Close()

	names := map[string]string{}
	for _, u := range a.store.ListUsers(ctx) {
		names[u.ID] = u.Name
	}

	var brands []types.SakeBrand
	if *all {
		brands = a.store.ListBrands(ctx, "")
	} else {
		a.requireSession()
		u, _ := a.session.Current()
		brands = a.store.ListBrands(ctx, u.ID)
	}
	if len(brands) == 0 {
		fmt.Println(tui.HelpStyle.Render("  No brands yet. Run: sakemate addbrand <name>"))
		return
	}
	for _, b := range brands {
		owner := ""
		if *all {
			owner = names[b.UserID]
		}
		fmt.Println(tui.BrandCard(b, owner))
	}
}

func cmdAddBrand(ctx context.Context, args []string) {
	name := strings.TrimSpace(strings.Join(args, " "))
	if name == "" {
		fatal("usage: sakemate addbrand <name>")
	}
	a := openApp(ctx)
	defer a.Close()
	a.requireSession()
	u, _ := a.session.Current()
	som := a.newSommelier()

	analysis, err := lookupBrand(ctx, som, name, isTerminal())
	if errors.Is(err, context.Canceled) {
		fmt.Println(tui.HelpStyle.Render("  cancelled"))
		return
	}
	if err != nil {
		fatal("%s", err)
	}

	b := types.NewBrand(u.ID, analysis)
	if err := a.store.AddBrand(ctx, b); err != nil {
		fatal("could not save brand: %s", err)
	}
	fmt.Println(tui.BrandCard(b, ""))
}

// lookupBrand runs the brand analysis behind a spinner. A cancelled lookup
// returns the context error instead of the fallback profile.
func lookupBrand(ctx context.Context, a export.Analyzer, name string, interactive bool) (types.BrandAnalysis, error) {
	var analysis types.BrandAnalysis
	err := tui.Wait(ctx, os.Stdout, "Looking up "+name, interactive, func(ctx context.Context) error {
		analysis = a.AnalyzeSakeBrand(ctx, name)
		return ctx.Err()
	})
	return analysis, err
}

func cmdRemoveBrand(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("rmbrand", flag.ExitOnError)
	anyOwner := fs.Bool("any", false, "Remove the brand whoever owns it")
	fs.Parse(args)
	if fs.NArg() != 1 {
		fatal("usage: sakemate rmbrand [--any] <id>")
	}
	id := fs.Arg(0)

	a := openApp(ctx)
	defer a.Close()

	if *anyOwner {
		if err := a.store.DeleteBrand(ctx, id); err != nil {
			fatal("%s", err)
		}
		fmt.Println(tui.SuccessStyle.Render("✓ removed " + id))
		return
	}

	a.requireSession()
	u, _ := a.session.Current()
	removed, err := a.store.DeleteUserBrand(ctx, u.ID, id)
	if err != nil {
		fatal("%s", err)
	}
	if !removed {
		fatal("%s has no brand %s", u.Name, id)
	}
	fmt.Println(tui.SuccessStyle.Render("✓ removed " + id))
}

func cmdRecommend(ctx context.Context, args []string) {
	if len(args) != 1 {
		fatal("usage: sakemate recommend <image|pdf|glob>")
	}
	paths, err := menu.Glob(args[0])
	if err != nil {
		fatal("%s", err)
	}
	if len(paths) == 0 {
		fatal("no files match %s", args[0])
	}

	a := openApp(ctx)
	defer a.Close()
	a.requireSession()
	u, _ := a.session.Current()

	brands := a.store.ListBrands(ctx, u.ID)
	if len(brands) == 0 {
		fatal("register at least one favourite brand first: sakemate addbrand <name>")
	}
	som := a.newSommelier()
	interactive := isTerminal()

	failed := 0
	for _, path := range paths {
		doc, err := menu.Load(path, a.cfg.AI.MaxImageBytes)
		if err != nil {
			fmt.Fprintln(os.Stderr, tui.ErrorStyle.Render("✗ "+err.Error()))
			failed++
			continue
		}

		var result types.MenuAnalysisResult
		err = tui.Wait(ctx, os.Stdout, "Reading "+path, interactive, func(ctx context.Context) error {
			var err error
			result, err = som.AnalyzeMenuAndRecommend(ctx, doc, brands)
			return err
		})
		if err != nil {
			fmt.Fprintln(os.Stderr, tui.ErrorStyle.Render("✗ "+path+": "+err.Error()))
			failed++
			continue
		}

		if len(paths) > 1 {
			fmt.Println(tui.TitleStyle.Render(path))
		}
		fmt.Print(tui.RenderMarkdown(tui.ReportMarkdown(result), 100, interactive))
	}
	if failed == len(paths) {
		os.Exit(1)
	}
}

func cmdExport(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	formatFlag := fs.String("format", "xlsx", "Output format: xlsx, yaml or json")
	out := fs.String("out", "", "Output file (default: stdout for yaml and json)")
	all := fs.Bool("all", false, "Export every user's brands instead of the current user's")
	fs.Parse(args)

	format, err := export.ParseFormat(*formatFlag)
	if err != nil {
		fatal("%s", err)
	}
	if format == export.FormatXLSX && *out == "" {
		fatal("xlsx export needs --out <file.xlsx>")
	}

	a := openApp(ctx)
	defer a.Close()

	users := a.store.ListUsers(ctx)
	var brands []types.SakeBrand
	if *all {
		brands = a.store.ListBrands(ctx, "")
	} else {
		a.requireSession()
		u, _ := a.session.Current()
		brands = a.store.ListBrands(ctx, u.ID)
	}

	if *out == "" {
		if err := export.Write(os.Stdout, format, users, brands); err != nil {
			fatal("export failed: %s", err)
		}
		return
	}
	if err := writeExportFile(*out, format, users, brands); err != nil {
		fatal("export failed: %s", err)
	}
	fmt.Printf("%s %d brands to %s\n", tui.SuccessStyle.Render("✓ exported"), len(brands), *out)
}

// writeExportFile writes the export to path. The file is closed before
// returning so a failed flush is reported.
func writeExportFile(path string, format export.Format, users []types.User, brands []types.SakeBrand) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.Write(f, format, users, brands); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func cmdImport(ctx context.Context, args []string) {
	if len(args) != 1 {
		fatal("usage: sakemate import <file.yaml>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		fatal("%s", err)
	}
	defer f.Close()
	entries, err := export.ReadYAML(f)
	if err != nil {
		fatal("%s", err)
	}

	a := openApp(ctx)
	defer a.Close()
	a.requireSession()
	u, _ := a.session.Current()

	var analyzer export.Analyzer = noLookup{}
	for _, e := range entries {
		if e.FlavorProfile == nil {
			analyzer = a.newSommelier()
			break
		}
	}

	var n int
	err = tui.Wait(ctx, os.Stdout, fmt.Sprintf("Importing %d brands", len(entries)), isTerminal(), func(ctx context.Context) error {
		var err error
		n, err = export.Import(ctx, a.store, analyzer, u.ID, entries)
		return err
	})
	if err != nil {
		fatal("imported %d of %d: %s", n, len(entries), err)
	}
	fmt.Printf("%s %d brands for %s\n", tui.SuccessStyle.Render("✓ imported"), n, u.Name)
}

// noLookup is used when every catalogue entry carries its own profile, so
// no API key is needed.
type noLookup struct{}

func (noLookup) AnalyzeSakeBrand(_ context.Context, name string) types.BrandAnalysis {
	return types.BrandAnalysis{IdentifiedName: name, FlavorProfile: types.NeutralFlavorProfile()}
}

func cmdDoctor(ctx context.Context) {
	a := openApp(ctx)
	defer a.Close()

	fmt.Println(tui.BannerStyle.Render("  Health Check"))
	fmt.Println()
	healthy := true

	report := func(label string, s health.Status, extra string) {
		fmt.Printf("  %s %s ... ", tui.BulletStyle.Render("●"), tui.LabelStyle.Render(label))
		if s.Reachable {
			fmt.Printf("%s%s %s\n",
				tui.SuccessStyle.Render("✓ OK"),
				tui.HelpStyle.Render(extra),
				tui.HelpStyle.Render(s.Latency.Round(time.Millisecond).String()),
			)
			return
		}
		healthy = false
		fmt.Println(tui.ErrorStyle.Render("✗ " + s.Error))
	}

	gem := health.CheckGemini(ctx, a.cfg.AI.BaseURL, a.cfg.AI.APIKey)
	extra := ""
	if len(gem.Models) > 0 {
		extra = fmt.Sprintf(" (%d models)", len(gem.Models))
	}
	report("gemini", gem, extra)
	if gem.Reachable {
		fmt.Printf("  %s %s ... ", tui.BulletStyle.Render("●"), tui.LabelStyle.Render("model "+a.cfg.AI.Model))
		if err := health.CheckModel(gem, a.cfg.AI.Model); err != nil {
			healthy = false
			fmt.Println(tui.ErrorStyle.Render("✗ " + err.Error()))
		} else {
			fmt.Println(tui.SuccessStyle.Render("✓ available"))
		}
	}

	report("storage", health.CheckStore(ctx, a.backend), " ("+a.cfg.Storage.Driver+" "+a.cfg.Storage.Path+")")

	fmt.Printf("  %s %s ... ", tui.BulletStyle.Render("●"), tui.LabelStyle.Render("config"))
	if _, err := os.Stat(config.Path()); err == nil {
		fmt.Println(tui.SuccessStyle.Render("✓ " + config.Path()))
	} else {
		fmt.Println(tui.HelpStyle.Render("- using defaults (create " + config.Path() + " to customize)"))
	}

	fmt.Println()
	if healthy {
		fmt.Println(tui.BannerStyle.Render("  All good. Kanpai!"))
		return
	}
	fmt.Println(tui.ErrorStyle.Render("  Some checks failed."))
	os.Exit(1)
}

func cmdReset(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)
	yes := fs.Bool("yes", false, "Do not ask for confirmation")
	fs.Parse(args)

	if !*yes {
		if !isTerminal() {
			fatal("refusing to reset without --yes")
		}
		fmt.Print(tui.ErrorStyle.Render("Delete all users and brands? [y/N] "))
		var answer string
		fmt.Scanln(&answer)
		if !strings.EqualFold(strings.TrimSpace(answer), "y") {
			fmt.Println(tui.HelpStyle.Render("  cancelled"))
			return
		}
	}

	a := openApp(ctx)
	defer a.Close()
	if err := a.store.ClearAll(ctx); err != nil {
		fatal("%s", err)
	}
	a.session.Reset()
	fmt.Println(tui.SuccessStyle.Render("✓ all data deleted"))
}

func cmdSetup(ctx context.Context) {
	path := *configFlag
	if path == "" {
		path = config.Path()
	}
	baseURL := config.DefaultConfig().AI.BaseURL
	check := func(ctx context.Context, key string) health.Status {
		return health.CheckGemini(ctx, baseURL, key)
	}
	if _, err := setup.Run(ctx, os.Stdin, os.Stdout, path, check); err != nil {
		fatal("%s", err)
	}
	fmt.Println(tui.HelpStyle.Render("  Next: sakemate adduser <name> && sakemate doctor"))
}
