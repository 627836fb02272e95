package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"rootie/application"
	"rootie/domain/config"
	"rootie/domain/core/entities"
	"rootie/infrastructure/backend"
)

func chatCmd() *cobra.Command {
	var graphID string
	var ephemeral bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat on the conversation canvas",
		Long: "Each reply spawns a follow-up prompt below it. Use /branch to fork a new\n" +
			"line of questioning from the last answer, /nodes to inspect the canvas.",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := backend.NewClient(backendURL, newLogger())

			opts := application.Options{
				Streamer: client,
				Logger:   newLogger(),
			}
			if !ephemeral {
				opts.Store = client
			}
			engine, err := application.NewEngine(opts)
			if err != nil {
				return err
			}

			printer := newStreamPrinter()
			engine.SetObserver(printer)

			if graphID != "" {
				if err := engine.SwitchTopic(cmd.Context(), graphID); err != nil {
					return err
				}
				if summary, ok := engine.ActiveTopic(); ok {
					brand.Printf("Resumed: %s\n", summary.Title)
				}
			}

			return runChatLoop(cmd, engine, printer)
		},
	}

	cmd.Flags().StringVar(&graphID, "graph", "", "Resume an existing graph by ID")
	cmd.Flags().BoolVar(&ephemeral, "ephemeral", false, "Do not persist the conversation")
	return cmd
}

func runChatLoop(cmd *cobra.Command, engine *application.Engine, printer *streamPrinter) error {
	subtle.Println("Type a prompt, /branch to fork from the last answer, /quit to exit.")
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		current := printer.CurrentInput()
		if current == "" {
			bad.Println("No input node on the canvas.")
			return nil
		}
		subtle.Printf("[%s] ", current)
		fmt.Print("> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/nodes":
			printer.PrintCanvas()
			continue
		case line == "/branch":
			source := printer.LastAnswered()
			if source == "" {
				warn.Println("Nothing to branch from yet.")
				continue
			}
			if err := engine.Branch(cmd.Context(), source); err != nil {
				bad.Printf("branch failed: %v\n", err)
			}
			continue
		case strings.HasPrefix(line, "/"):
			warn.Printf("Unknown command %s\n", line)
			continue
		}

		printer.BeginExchange(current)
		if err := engine.Submit(cmd.Context(), current, line); err != nil {
			bad.Printf("submit failed: %v\n", err)
			continue
		}
		fmt.Println()
	}
}

// streamPrinter mirrors canvas updates onto the terminal. During an
// exchange it prints only the growth of the answered node's text, so
// wholesale snapshot updates render as a smooth stream.
type streamPrinter struct {
	mu       sync.Mutex
	answers  map[string]string
	nodes    []*entities.Node
	edges    []*entities.Edge
	active   string
	lastDone string
}

func newStreamPrinter() *streamPrinter {
	return &streamPrinter{answers: make(map[string]string)}
}

// BeginExchange marks the node whose answer should stream to stdout
func (p *streamPrinter) BeginExchange(nodeID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = nodeID
}

// CanvasUpdated implements ports.CanvasObserver
func (p *streamPrinter) CanvasUpdated(nodes []*entities.Node, edges []*entities.Edge) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.nodes = nodes
	p.edges = edges

	for _, node := range nodes {
		if !node.IsConversation() {
			continue
		}
		id := node.ID().String()
		answer := node.Dialogue().Answer()
		previous := p.answers[id]
		p.answers[id] = answer

		if id != p.active || answer == previous {
			continue
		}
		if strings.HasPrefix(answer, previous) && previous != "" {
			fmt.Print(answer[len(previous):])
		} else if previous == "" || previous == placeholderAnswer() {
			fmt.Print(answer)
		} else {
			// Authoritative final text diverged from the streamed
			// concatenation; reprint it whole.
			fmt.Printf("\n%s", answer)
		}
		p.lastDone = id
	}
}

// CurrentInput returns the input node the next prompt should go to: the
// child of the last answered node, or the first input node on a fresh
// canvas.
func (p *streamPrinter) CurrentInput() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.lastDone != "" {
		for _, edge := range p.edges {
			if edge.SourceID.String() != p.lastDone {
				continue
			}
			for _, node := range p.nodes {
				if node.ID().Equals(edge.TargetID) && node.IsInput() {
					return node.ID().String()
				}
			}
		}
	}
	for _, node := range p.nodes {
		if node.IsInput() {
			return node.ID().String()
		}
	}
	return ""
}

// LastAnswered returns the most recently completed conversation node
func (p *streamPrinter) LastAnswered() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastDone
}

// PrintCanvas dumps the node tree
func (p *streamPrinter) PrintCanvas() {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, node := range p.nodes {
		if node.IsInput() {
			subtle.Printf("  %s (input)\n", node.ID().String())
			continue
		}
		question := node.Dialogue().Question()
		if runes := []rune(question); len(runes) > 60 {
			question = string(runes[:60]) + "..."
		}
		brand.Printf("  %s", node.ID().String())
		fmt.Printf("  %s\n", question)
	}
}

func placeholderAnswer() string {
	return config.DefaultDomainConfig().ThinkingPlaceholder
}
