package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"

	"genbi/agent"
)

func main() {
	defaultDir, err := os.UserConfigDir()
	if err != nil {
		defaultDir = "."
	}
	dataDir := flag.String("data", filepath.Join(defaultDir, "genbi"), "directory for configuration, logs and chat history")
	database := flag.String("db", "", "database backend to use (defaults to the first configured one)")
	flag.Parse()

	app, err := NewApp(*dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer app.Shutdown()

	if *database != "" {
		if err := app.SelectDatabase(*database); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if err := app.OpenThread(time.Now().Format("Session 2006-01-02 15:04")); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: chat history disabled: %v\n", err)
	}

	fmt.Println("genbi: ask questions about your data. Type /help for commands.")
	if name := app.CurrentBackend(); name != "" {
		fmt.Printf("Connected backend: %s\n", name)
	} else {
		fmt.Println("No database backend configured yet; add one to database_config.json.")
	}

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if runCommand(app, line) {
				return
			}
			continue
		}

		answer := app.HandleQuestion(context.Background(), line)
		fmt.Println(answer.Text)
		if answer.Table != nil {
			printTable(answer.Table)
		}
		fmt.Println()
	}
}

// runCommand handles a slash command; returns true when the REPL should exit.
func runCommand(app *App, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/help":
		fmt.Println("Commands:")
		fmt.Println("  /dbs           list configured database backends")
		fmt.Println("  /db <name>     switch to a backend")
		fmt.Println("  /refresh       refresh the schema from the live database")
		fmt.Println("  /quit          exit")
	case "/dbs":
		names, err := app.Databases()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		for _, name := range names {
			marker := "  "
			if name == app.CurrentBackend() {
				marker = "* "
			}
			fmt.Println(marker + name)
		}
	case "/db":
		if len(fields) < 2 {
			fmt.Println("Usage: /db <name>")
			return false
		}
		if err := app.SelectDatabase(fields[1]); err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		fmt.Printf("Switched to %s\n", fields[1])
	case "/refresh":
		schema, err := app.RefreshSchema(context.Background())
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return false
		}
		fmt.Printf("Schema refreshed: %d tables\n", len(schema.Tables))
	default:
		fmt.Printf("Unknown command: %s\n", fields[0])
	}
	return false
}

func printTable(table *agent.TableData) {
	w := tablewriter.NewWriter(os.Stdout)
	w.SetHeader(table.Columns)
	w.SetAutoWrapText(false)
	for _, row := range table.Rows {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = fmt.Sprintf("%v", v)
		}
		w.Append(cells)
	}
	w.Render()
}
