// Package setup runs the first-time wizard that writes config.yaml.
package setup

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jeanpaul/sakemate/internal/health"
	"github.com/jeanpaul/sakemate/internal/tui"
)

// KeyChecker verifies an API key; health.CheckGemini bound to a base URL.
type KeyChecker func(ctx context.Context, apiKey string) health.Status

// Answers is what the wizard collects.
type Answers struct {
	APIKey   string
	Language string
	Driver   string
}

type wizard struct {
	in  *bufio.Reader
	out io.Writer
}

func (w *wizard) info(msg string)    { fmt.Fprintf(w.out, "  %s %s\n", tui.BulletStyle.Render("●"), msg) }
func (w *wizard) fail(msg string)    { fmt.Fprintf(w.out, "  %s %s\n", tui.ErrorStyle.Render("●"), msg) }
func (w *wizard) success(msg string) { fmt.Fprintf(w.out, "  %s\n", tui.SuccessStyle.Render("✓ "+msg)) }
func (w *wizard) step(msg string)    { fmt.Fprintf(w.out, "\n  %s\n", tui.LabelStyle.Render(msg)) }

// ask prints prompt and returns the trimmed answer, or def on empty input.
func (w *wizard) ask(prompt, def string) string {
	hint := ""
	if def != "" {
		hint = " " + tui.HelpStyle.Render("["+def+"]")
	}
	fmt.Fprintf(w.out, "  %s%s ", tui.ValueStyle.Render(prompt), hint)
	line, _ := w.in.ReadString('\n')
	line = strings.TrimSpace(line)
	if line == "" {
		return def
	}
	return line
}

// askYN prompts the user for y/n input. Default is the value returned on empty input.
func (w *wizard) askYN(prompt string, defaultYes bool) bool {
	def := "y/N"
	if defaultYes {
		def = "Y/n"
	}
	ans := strings.ToLower(w.ask(prompt, def))
	if ans == strings.ToLower(def) {
		return defaultYes
	}
	return ans == "y" || ans == "yes"
}

// Run asks for the settings, checks the key, and writes them to path.
// An existing file is only replaced after confirmation.
func Run(ctx context.Context, in io.Reader, out io.Writer, path string, check KeyChecker) (Answers, error) {
	w := &wizard{in: bufio.NewReader(in), out: out}
	fmt.Fprintln(out, tui.BannerStyle.Render(tui.Banner))

	if _, err := os.Stat(path); err == nil {
		if !w.askYN(path+" exists. Overwrite?", false) {
			return Answers{}, fmt.Errorf("setup cancelled, %s left unchanged", path)
		}
	}

	var a Answers
	w.step("Gemini API")
	envKey := os.Getenv("GEMINI_API_KEY")
	if envKey != "" {
		w.info("GEMINI_API_KEY is set; press enter to reference it instead of storing the key")
	}
	for {
		def := ""
		if envKey != "" {
			def = "$GEMINI_API_KEY"
		}
		a.APIKey = w.ask("API key (https://aistudio.google.com/apikey):", def)
		if a.APIKey == "" {
			w.fail("an API key is required")
			continue
		}
		key := a.APIKey
		if key == "$GEMINI_API_KEY" {
			key = envKey
		}
		if check == nil {
			break
		}
		s := check(ctx, key)
		if s.Reachable {
			w.success(fmt.Sprintf("key works (%d models)", len(s.Models)))
			break
		}
		w.fail(s.Error)
		if !w.askYN("Try another key?", true) {
			break
		}
	}

	w.step("Preferences")
	a.Language = w.ask("Language for sake names and notes:", "Japanese")
	for {
		a.Driver = w.ask("Storage (badger, file, memory):", "badger")
		if a.Driver == "badger" || a.Driver == "file" || a.Driver == "memory" {
			break
		}
		w.fail("choose badger, file or memory")
	}

	if err := WriteConfig(path, a); err != nil {
		return a, err
	}
	w.success("wrote " + path)
	return a, nil
}

// WriteConfig writes a minimal config.yaml holding only what the wizard
// asked; everything else keeps its default.
func WriteConfig(path string, a Answers) error {
	doc := map[string]any{
		"ai": map[string]any{
			"api_key":  a.APIKey,
			"language": a.Language,
		},
		"storage": map[string]any{
			"driver": a.Driver,
		},
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	// the file may hold a secret
	return os.WriteFile(path, data, 0o600)
}
