// Copyright (c) 2026 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/hashicorp/jsonapi"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/tfctl/kmsctl/internal/attrs"
	"github.com/tfctl/kmsctl/internal/config"
	"github.com/tfctl/kmsctl/internal/log"
	"github.com/tfctl/kmsctl/internal/meta"
	"github.com/tfctl/kmsctl/internal/output"
	"github.com/tfctl/kmsctl/internal/report"
)

// kiMaxHistory caps the saved history file.
const kiMaxHistory = 1000

// kiCommandAction is the action handler for the "ki" subcommand. It loads a
// CSV report and starts an interactive console where every line entered is
// a --filter expression over the report's keys.
func kiCommandAction(ctx context.Context, cmd *cli.Command) error {
	config.Config.Namespace = "ki"

	path := cmd.Args().First()
	if path == "" {
		return errors.New("a CSV report is required")
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("ki needs an interactive terminal")
	}

	payload, err := loadKiPayload(path)
	if err != nil {
		return err
	}

	al, err := BuildAttrs(cmd, kqDefaultAttrs...)
	if err != nil {
		return err
	}

	opts := output.FromCommand(cmd)
	// Only text fits the console.
	opts.Output = "text"

	p := tea.NewProgram(initialKiModel(payload, al, opts), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

// loadKiPayload reads a CSV report and marshals its rows as a JSON:API
// document.
func loadKiPayload(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	rows, err := report.ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	log.Debugf("report loaded: path=%s, rows=%d", path, len(rows))

	var buf bytes.Buffer
	if err := jsonapi.MarshalPayload(&buf, pointers(rows)); err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return buf.Bytes(), nil
}

// kiModel is the Bubble Tea model of the key inspector.
type kiModel struct {
	input textinput.Model
	// history spans sessions and drives up/down navigation.
	history []string
	// sessionHistory pairs with output, after the two greeting lines.
	sessionHistory []string
	histIndex      int
	output         []string
	payload        []byte
	attrs          attrs.AttrList
	opts           output.Options
}

func initialKiModel(payload []byte, al attrs.AttrList, opts output.Options) kiModel {
	ti := textinput.New()
	ti.Placeholder = ""
	ti.Focus()
	ti.CharLimit = 2048
	ti.Width = 999
	ti.Prompt = ""
	ti.Cursor.SetMode(cursor.CursorBlink)

	count := gjson.GetBytes(payload, "data.#").Int()
	return kiModel{
		input:     ti,
		history:   loadKiHistory(kiHistoryFile()),
		histIndex: -1,
		output: []string{
			fmt.Sprintf("Key inspector loaded. %d keys found.", count),
			"Type a filter, 'help' for syntax, 'exit' or Ctrl+C to quit.",
		},
		payload: payload,
		attrs:   al,
		opts:    opts,
	}
}

func (m kiModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m kiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			entry := strings.TrimSpace(m.input.Value())
			m.input.SetValue("")
			if entry == "" {
				return m, nil
			}
			if entry == "exit" || entry == "quit" {
				return m, tea.Quit
			}

			m.history = append(m.history, entry)
			m.sessionHistory = append(m.sessionHistory, entry)
			m.histIndex = -1
			m.output = append(m.output, processKiQuery(m.payload, m.attrs, m.opts, entry))
			saveKiHistory(kiHistoryFile(), m.history)
			return m, nil

		case "up":
			if len(m.history) == 0 {
				return m, nil
			}
			if m.histIndex == -1 {
				m.histIndex = len(m.history) - 1
			} else if m.histIndex > 0 {
				m.histIndex--
			}
			m.input.SetValue(m.history[m.histIndex])
			m.input.CursorEnd()
			return m, nil

		case "down":
			if len(m.history) == 0 {
				return m, nil
			}
			if m.histIndex >= 0 && m.histIndex < len(m.history)-1 {
				m.histIndex++
				m.input.SetValue(m.history[m.histIndex])
				m.input.CursorEnd()
			} else {
				m.histIndex = -1
				m.input.SetValue("")
			}
			return m, nil

		case "ctrl+c", "esc":
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m kiModel) View() string {
	promptStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#DD344C"))

	lines := append([]string{}, m.output[:2]...)
	for i, entry := range m.sessionHistory {
		lines = append(lines, promptStyle.Render("> ")+entry)
		if i+2 < len(m.output) {
			lines = append(lines, m.output[i+2])
		}
	}
	lines = append(lines, promptStyle.Render("> ")+m.input.View())

	return strings.Join(lines, "\n")
}

// processKiQuery runs one console line against the payload and returns the
// rendered result.
func processKiQuery(payload []byte, al attrs.AttrList, opts output.Options, entry string) string {
	switch entry {
	case "help":
		return kiHelp
	case "all", "*":
		entry = ""
	}

	// "sort <spec>" lists every key in that order.
	opts.Filter = entry
	if spec, ok := strings.CutPrefix(entry, "sort "); ok {
		opts.Filter = ""
		opts.Sort = strings.TrimSpace(spec)
	}
	opts.Titles = true

	var out bytes.Buffer
	if err := output.SliceDiceSpit(*bytes.NewBuffer(payload), al, opts, "data", &out); err != nil {
		return "error: " + err.Error()
	}
	if out.Len() == 0 {
		return "No matching keys."
	}
	return strings.TrimSuffix(out.String(), "\n")
}

const kiHelp = `Each line is a filter over the report, the same syntax as --filter:
  type=RSA_2048                   - exact match
  application~payments            - case-insensitive match
  type^ECC                        - prefix
  size_bits>2048                  - numeric compare (<, >, =)
  configuration_summary@Enabled   - substring
  .id/^arn:aws:kms:us-east-1      - regular expression
  !  before an operator negates it, e.g. type!^ECC
  ,  joins filters that must all match

  all                             - every key
  sort <spec>                     - show every key sorted, e.g. sort -size_bits

  Navigation:
     ↑/↓ arrows                   - Navigate command history
     Ctrl+C                       - Exit`

// kiHistoryFile returns the path to the ki history file.
func kiHistoryFile() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".kmsctl_ki_history"
	}
	return filepath.Join(homeDir, ".kmsctl_ki_history")
}

func loadKiHistory(filename string) []string {
	var history []string

	file, err := os.Open(filename)
	if err != nil {
		return history
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			history = append(history, line)
		}
	}

	return history
}

func saveKiHistory(filename string, history []string) {
	start := 0
	if len(history) > kiMaxHistory {
		start = len(history) - kiMaxHistory
	}

	file, err := os.Create(filename)
	if err != nil {
		log.Debugf("history not saved: err=%v", err)
		return
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	for _, line := range history[start:] {
		fmt.Fprintln(w, line)
	}
	if err := w.Flush(); err != nil {
		log.Debugf("history not saved: err=%v", err)
	}
}

// kiCommandBuilder constructs the cli.Command for "ki" and wires up metadata,
// flags, and the action handler.
func kiCommandBuilder(meta meta.Meta) *cli.Command {
	return &cli.Command{
		Name:      "ki",
		Hidden:    true,
		Usage:     "interactive key inspector over a CSV report",
		UsageText: "kmsctl ki <report.csv> [options]",
		Metadata: map[string]any{
			"meta": meta,
		},
		Flags: NewGlobalFlags("ki"),
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			return ctx, GlobalFlagsValidator(ctx, c)
		},
		Action: kiCommandAction,
	}
}
