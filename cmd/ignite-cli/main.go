// Command ignite-cli is an interactive REPL client for ignited, grounded in
// original_source/cli/src/main.rs's connect-prompt-send-receive loop.
// Multi-line responses (ls, help) are read until a blank line, matching the
// server's framing, rather than the source's literal "\n" rewrite.
package main

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"os"
	"strings"

	"github.com/spf13/pflag"
)

func main() {
	var addr string
	pflag.StringVar(&addr, "addr", "127.0.0.1:7878", "ignited address to connect to")
	pflag.Parse()

	conn, err := net.Dial("tcp", addr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ignite-cli: failed to connect to %s: %v\n", addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	reader := bufio.NewReader(conn)
	stdin := bufio.NewReader(os.Stdin)

	for {
		fmt.Print("> ")
		line, err := stdin.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return
			}
			fmt.Fprintf(os.Stderr, "ignite-cli: failed to read command: %v\n", err)
			return
		}

		if _, err := conn.Write([]byte(line)); err != nil {
			fmt.Fprintf(os.Stderr, "ignite-cli: failed to send command: %v\n", err)
			return
		}

		cmd := strings.Fields(line)
		multiLine := len(cmd) > 0 && (cmd[0] == "ls" || cmd[0] == "help")

		if strings.TrimSpace(line) == "exit" {
			return
		}

		if err := printResponse(reader, multiLine); err != nil {
			if err == io.EOF {
				fmt.Fprintln(os.Stderr, "ignite-cli: connection closed by server")
				return
			}
			fmt.Fprintf(os.Stderr, "ignite-cli: failed to read response: %v\n", err)
			return
		}
	}
}

// printResponse copies one response from r to stdout. A single-record
// response is one line; a multi-line response (ls, help) is read until a
// blank line terminator, which is itself not printed.
func printResponse(r *bufio.Reader, multiLine bool) error {
	for {
		resp, err := r.ReadString('\n')
		if err != nil {
			return err
		}

		if resp == "\n" {
			if multiLine {
				return nil
			}
			fmt.Println()
			return nil
		}

		fmt.Print(resp)
		if !multiLine {
			return nil
		}
	}
}
