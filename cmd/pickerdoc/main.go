// pickerdoc is a CLI for inspecting and editing a picker document stored
// in a file-backed store.
//
// Usage:
//
//	pickerdoc [options] <store-dir>
//
// Options:
//
//	-k, --key            Attribute name the document is stored under (default: PickerToolData)
//	-d, --batch-delay    Debounce window for high-frequency saves (default: 200ms)
//	-e, --edit           Start with edit mode (undo recording) enabled (default: true)
//
// Commands (in REPL):
//
//	tabs                          List tabs in order
//	show <tab>                    Show a tab's settings and buttons
//	add-tab <name>                Create a tab
//	rm-tab <name>                 Delete a tab
//	rename <old> <new>            Rename a tab
//	reorder <name>...             Reorder tabs (unlisted tabs are dropped)
//	add <tab> [id]                Add a button (id generated if omitted)
//	rm <tab> <id>                 Delete a button
//	move <tab> <id> <x> <y>       Move a button
//	set <tab> <id> <field> <json> Set a button field to a JSON value
//	ns <tab> <namespace>          Set a tab's namespace
//	grid <tab> <size>             Set a tab's grid size
//	thumb [dir]                   Show or set the thumbnail directory
//	undo                          Undo the last recorded edit
//	redo                          Redo
//	edit on|off                   Toggle edit mode (the undo gate)
//	export <file>                 Export the document to a JSON file
//	import <file> [skip|rename|overwrite]  Merge tabs from a JSON file
//	flush                         Force any pending save out to the store
//	help                          Show this help
//	exit / quit / q               Exit (flushes first)
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/munorr/ft-anim-picker-sub000/pkg/pickerdata"
)

func main() {
	err := run(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("pickerdoc", flag.ContinueOnError)

	key := fs.StringP("key", "k", pickerdata.DefaultStoreKey, "attribute name the document is stored under")
	delay := fs.DurationP("batch-delay", "d", pickerdata.DefaultBatchDelay, "debounce window for high-frequency saves")
	edit := fs.BoolP("edit", "e", true, "start with edit mode (undo recording) enabled")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: pickerdoc [options] <store-dir>\n\nOptions:\n")
		fs.PrintDefaults()
	}

	err := fs.Parse(args)
	if err != nil {
		return err
	}

	if fs.NArg() < 1 {
		fs.Usage()

		return errors.New("missing store directory")
	}

	store, err := pickerdata.NewFileStore(fs.Arg(0))
	if err != nil {
		return err
	}

	repl := &REPL{editMode: *edit}

	mgr, err := pickerdata.New(pickerdata.Options{
		Store:      store,
		Key:        *key,
		BatchDelay: *delay,
		EditMode:   func() bool { return repl.editMode },
	})
	if err != nil {
		return err
	}

	repl.mgr = mgr

	defer func() { _ = mgr.Close() }()

	return repl.Run()
}

// REPL is the interactive command loop.
type REPL struct {
	mgr      *pickerdata.Manager
	editMode bool
	liner    *liner.State
}

var replCommands = []string{
	"tabs", "show", "add-tab", "rm-tab", "rename", "reorder", "add", "rm",
	"move", "set", "ns", "grid", "thumb", "undo", "redo", "edit", "export",
	"import", "flush", "help", "exit", "quit",
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	return filepath.Join(home, ".pickerdoc_history")
}

// Run starts the REPL loop.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Printf("pickerdoc - picker document CLI (%d tabs, edit=%v)\n", r.mgr.Data().TabCount(), r.editMode)
	fmt.Println("Type 'help' for available commands.")
	fmt.Println()

	for {
		line, err := r.liner.Prompt("pickerdoc> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Println("\nBye!")

				break
			}

			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)

		parts := strings.Fields(line)
		cmd := strings.ToLower(parts[0])
		args := parts[1:]

		if cmd == "exit" || cmd == "quit" || cmd == "q" {
			fmt.Println("Bye!")

			break
		}

		r.dispatch(cmd, args)
	}

	r.saveHistory()

	return r.mgr.Flush()
}

func (r *REPL) dispatch(cmd string, args []string) {
	switch cmd {
	case "help", "?":
		r.printHelp()

	case "tabs":
		r.cmdTabs()

	case "show":
		r.cmdShow(args)

	case "add-tab":
		r.cmdAddTab(args)

	case "rm-tab":
		r.cmdRmTab(args)

	case "rename":
		r.cmdRename(args)

	case "reorder":
		r.cmdReorder(args)

	case "add":
		r.cmdAdd(args)

	case "rm":
		r.cmdRm(args)

	case "move":
		r.cmdMove(args)

	case "set":
		r.cmdSet(args)

	case "ns":
		r.cmdNamespace(args)

	case "grid":
		r.cmdGrid(args)

	case "thumb":
		r.cmdThumb(args)

	case "undo":
		r.cmdUndo()

	case "redo":
		r.cmdRedo()

	case "edit":
		r.cmdEdit(args)

	case "export":
		r.cmdExport(args)

	case "import":
		r.cmdImport(args)

	case "flush":
		r.cmdFlush()

	case "clear", "cls":
		fmt.Print("\033[H\033[2J")

	default:
		fmt.Printf("Unknown command: %s (type 'help' for commands)\n", cmd)
	}
}

func (r *REPL) saveHistory() {
	if path := historyFile(); path != "" {
		if f, err := os.Create(path); err == nil {
			r.liner.WriteHistory(f)
			f.Close()
		}
	}
}

func (r *REPL) completer(line string) []string {
	var out []string

	for _, c := range replCommands {
		if strings.HasPrefix(c, strings.ToLower(line)) {
			out = append(out, c)
		}
	}

	return out
}

func (r *REPL) printHelp() {
	fmt.Println(`Commands:
  tabs                          List tabs in order
  show <tab>                    Show a tab's settings and buttons
  add-tab <name>                Create a tab
  rm-tab <name>                 Delete a tab
  rename <old> <new>            Rename a tab
  reorder <name>...             Reorder tabs (unlisted tabs are dropped)
  add <tab> [id]                Add a button (id generated if omitted)
  rm <tab> <id>                 Delete a button
  move <tab> <id> <x> <y>       Move a button
  set <tab> <id> <field> <json> Set a button field to a JSON value
  ns <tab> <namespace>          Set a tab's namespace
  grid <tab> <size>             Set a tab's grid size
  thumb [dir]                   Show or set the thumbnail directory
  undo                          Undo the last recorded edit
  redo                          Redo
  edit on|off                   Toggle edit mode (the undo gate)
  export <file>                 Export the document to a JSON file
  import <file> [skip|rename|overwrite]  Merge tabs from a JSON file
  flush                         Force any pending save out to the store
  exit / quit / q               Exit (flushes first)`)
}

func (r *REPL) cmdTabs() {
	d := r.mgr.Data()

	for i, name := range d.TabNames() {
		t, _ := d.Tab(name)
		fmt.Printf("%2d. %s (%d buttons)\n", i+1, name, len(t.Buttons))
	}
}

func (r *REPL) cmdShow(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: show <tab>")

		return
	}

	d := r.mgr.Data()

	t, ok := d.Tab(args[0])
	if !ok {
		fmt.Printf("No such tab: %s\n", args[0])

		return
	}

	image := "(none)"
	if t.ImagePath != nil {
		image = *t.ImagePath
	}

	fmt.Printf("image: %s (opacity %.2f, scale %.2f)\n", image, t.ImageOpacity, t.ImageScale)
	fmt.Printf("namespace: %s  background: %.0f\n", t.Namespace, t.BackgroundValue)
	fmt.Printf("dots: %v  axes: %v  grid: %v (size %.0f)\n", t.ShowDots, t.ShowAxes, t.ShowGrid, t.GridSize)
	fmt.Printf("buttons (%d):\n", len(t.Buttons))

	for _, b := range t.Buttons {
		if x, y, hasPos := b.Position(); hasPos {
			fmt.Printf("  %s at (%.1f, %.1f)\n", b.ID(), x, y)
		} else {
			fmt.Printf("  %s\n", b.ID())
		}
	}
}

func (r *REPL) cmdAddTab(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: add-tab <name>")

		return
	}

	r.mgr.AddTab(strings.Join(args, " "))
}

func (r *REPL) cmdRmTab(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: rm-tab <name>")

		return
	}

	r.mgr.DeleteTab(strings.Join(args, " "))
}

func (r *REPL) cmdRename(args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: rename <old> <new>")

		return
	}

	r.mgr.RenameTab(args[0], args[1])
}

func (r *REPL) cmdReorder(args []string) {
	if len(args) == 0 {
		fmt.Println("Usage: reorder <name>...")

		return
	}

	r.mgr.ReorderTabs(args)
}

func (r *REPL) cmdAdd(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: add <tab> [id]")

		return
	}

	btn := pickerdata.NewObject()
	if len(args) > 1 {
		btn.Set("id", args[1])
	}

	el := r.mgr.AddButton(args[0], btn)
	fmt.Printf("added %s\n", el.ID())
}

func (r *REPL) cmdRm(args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: rm <tab> <id>")

		return
	}

	r.mgr.DeleteButton(args[0], args[1])
}

func (r *REPL) cmdMove(args []string) {
	if len(args) != 4 {
		fmt.Println("Usage: move <tab> <id> <x> <y>")

		return
	}

	x, errX := strconv.ParseFloat(args[2], 64)
	y, errY := strconv.ParseFloat(args[3], 64)

	if errX != nil || errY != nil {
		fmt.Println("x and y must be numbers")

		return
	}

	r.mgr.UpdateButtonPositions(args[0], map[string]pickerdata.Point{
		args[1]: {X: x, Y: y},
	})
}

func (r *REPL) cmdSet(args []string) {
	if len(args) < 4 {
		fmt.Println("Usage: set <tab> <id> <field> <json>")

		return
	}

	raw := strings.Join(args[3:], " ")

	var value any

	err := json.Unmarshal([]byte(raw), &value)
	if err != nil {
		fmt.Printf("invalid JSON value: %v\n", err)

		return
	}

	fields := pickerdata.NewObject()
	fields.Set(args[2], value)
	r.mgr.UpdateButton(args[0], args[1], fields)
}

func (r *REPL) cmdNamespace(args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: ns <tab> <namespace>")

		return
	}

	r.mgr.SetNamespace(args[0], args[1])
}

func (r *REPL) cmdGrid(args []string) {
	if len(args) != 2 {
		fmt.Println("Usage: grid <tab> <size>")

		return
	}

	size, err := strconv.ParseFloat(args[1], 64)
	if err != nil {
		fmt.Println("size must be a number")

		return
	}

	r.mgr.SetGridSize(args[0], size)
}

func (r *REPL) cmdThumb(args []string) {
	if len(args) == 0 {
		fmt.Printf("thumbnail directory: %q\n", r.mgr.ThumbnailDirectory())

		return
	}

	r.mgr.SetThumbnailDirectory(strings.Join(args, " "))
}

func (r *REPL) cmdUndo() {
	op, _, ok := r.mgr.Undo()
	if !ok {
		fmt.Println("Nothing to undo.")

		return
	}

	fmt.Printf("Undid: %s\n", op)
}

func (r *REPL) cmdRedo() {
	_, _, ok := r.mgr.Redo()
	if !ok {
		fmt.Println("Nothing to redo.")

		return
	}

	fmt.Println("Redid.")
}

func (r *REPL) cmdEdit(args []string) {
	if len(args) != 1 {
		fmt.Printf("edit mode: %v\n", r.editMode)

		return
	}

	switch strings.ToLower(args[0]) {
	case "on", "true", "1":
		r.editMode = true
	case "off", "false", "0":
		r.editMode = false
	default:
		fmt.Println("Usage: edit on|off")

		return
	}

	fmt.Printf("edit mode: %v\n", r.editMode)
}

func (r *REPL) cmdExport(args []string) {
	if len(args) != 1 {
		fmt.Println("Usage: export <file>")

		return
	}

	err := r.mgr.ExportFile(args[0])
	if err != nil {
		fmt.Printf("export failed: %v\n", err)

		return
	}

	fmt.Println("Exported.")
}

func (r *REPL) cmdImport(args []string) {
	if len(args) < 1 {
		fmt.Println("Usage: import <file> [skip|rename|overwrite]")

		return
	}

	policy := pickerdata.ConflictSkip

	if len(args) > 1 {
		switch strings.ToLower(args[1]) {
		case "skip":
			policy = pickerdata.ConflictSkip
		case "rename":
			policy = pickerdata.ConflictRename
		case "overwrite":
			policy = pickerdata.ConflictOverwrite
		default:
			fmt.Println("policy must be skip, rename, or overwrite")

			return
		}
	}

	err := r.mgr.ImportFile(args[0], policy)
	if err != nil {
		fmt.Printf("import failed: %v\n", err)

		return
	}

	fmt.Println("Imported.")
}

func (r *REPL) cmdFlush() {
	err := r.mgr.Flush()
	if err != nil {
		fmt.Printf("flush failed: %v\n", err)

		return
	}

	fmt.Println("Flushed.")
}
