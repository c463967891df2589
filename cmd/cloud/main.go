// Command cloud is the demo front-end for the dispatch framework: a cobra
// CLI exposing the same Manager three different ways, wiring one
// cobra.Command tree over several independent subcommands rather than one
// monolithic binary.
package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	_ "github.com/tliron/commonlog/simple"

	"github.com/dispatchtree/cloud/caption"
	"github.com/dispatchtree/cloud/help"
	"github.com/dispatchtree/cloud/transport/wsconsole"
)

// printHelp renders a help.Result to stdout via help.Renderer, the same
// color/width-aware path wsconsole's JSON-RPC "help" method bypasses in
// favor of a wire-friendly helpResponse.
func printHelp(res help.Result) {
	help.NewRenderer(os.Stdout).Render(res)
}

func main() {
	root := &cobra.Command{
		Use:   "cloud",
		Short: "demo dispatch-tree command manager",
	}
	root.AddCommand(replCmd(), serveCmd(), benchCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func replCmd() *cobra.Command {
	var operator bool
	cmd := &cobra.Command{
		Use:   "repl",
		Short: "read commands from stdin and execute them against the demo tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := buildDemoManager()
			if err != nil {
				return err
			}
			captions := caption.NewRegistry()
			sender := &ConsoleSender{Name: "console", Operator: operator, Permissions: map[string]bool{"admin.use": operator}}

			scanner := bufio.NewScanner(os.Stdin)
			for scanner.Scan() {
				line := scanner.Text()
				switch {
				case line == "":
					continue
				case line == "help" || strings.HasPrefix(line, "help "):
					printHelp(m.HelpQuery(sender, strings.TrimPrefix(line, "help")))
				default:
					result, err := m.Execute(context.Background(), sender, line).Wait()
					if err != nil {
						key, vars := caption.FromError(err)
						fmt.Println(captions.Format(key, vars))
						continue
					}
					for _, k := range result.Context.Keys() {
						v, _ := result.Context.RawGet(k)
						fmt.Printf("  %s = %v\n", k.Name, v)
					}
				}
			}
			return scanner.Err()
		},
	}
	cmd.Flags().BoolVar(&operator, "operator", false, "grant the console sender admin.use and make IsAdmin report true")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the demo tree over a websocket JSON-RPC 2.0 endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := buildDemoManager()
			if err != nil {
				return err
			}
			server := wsconsole.NewServer(m)
			mux := http.NewServeMux()
			mux.Handle("/ws", server)
			fmt.Fprintf(os.Stderr, "listening on %s/ws\n", addr)
			return http.ListenAndServe(addr, mux)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	return cmd
}

func benchCmd() *cobra.Command {
	var iterations int
	var line string
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "run a fixed line through the inline coordinator N times and report elapsed time",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := buildDemoManager()
			if err != nil {
				return err
			}
			sender := &ConsoleSender{Name: "bench"}

			start := time.Now()
			var failures int
			for i := 0; i < iterations; i++ {
				if _, err := m.Execute(context.Background(), sender, line).Wait(); err != nil {
					failures++
				}
			}
			elapsed := time.Since(start)
			fmt.Printf("%d iterations in %s (%.1f/ms), %d failures\n",
				iterations, elapsed, float64(iterations)/float64(elapsed.Milliseconds()+1), failures)
			return nil
		},
	}
	cmd.Flags().IntVar(&iterations, "n", 1000, "number of iterations")
	cmd.Flags().StringVar(&line, "line", "greet Alice", "input line to execute repeatedly")
	return cmd
}
