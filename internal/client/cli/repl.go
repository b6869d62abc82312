package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Signup(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Deploy(ctx context.Context, kind string) error
	Increase(ctx context.Context) error
	Counter(ctx context.Context) error
	Profile(ctx context.Context) error
	Rewards(ctx context.Context) error
}

// runREPL starts a read–eval–print loop for the wallet CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
//	Not logged in:
//	  - help           — show available commands
//	  - signup         — create an account
//	  - login          — authenticate
//	  - exit | quit    — leave the program
//
//	Logged in:
//	  - help                      — show available commands
//	  - deploy <argent|braavos>   — deploy a wallet of that kind
//	  - increase                  — submit a sponsored increase_counter call
//	  - counter                   — read the on-chain counter value
//	  - profile                   — show the stored profile
//	  - rewards                   — show remaining sponsored transactions
//	  - logout                    — log out and wipe the local record
//	  - exit | quit               — leave the program
//
// Any errors returned by command handlers are ignored here; handlers print
// their own errors. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("iw> %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		line := scanner.Text()
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd := parts[0]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: deploy <argent|braavos>, increase, counter, profile, rewards, logout, exit")
			} else {
				printlnFn("Available commands: signup, login, exit")
			}

		case "signup":
			_ = a.Signup(ctx)

		case "login":
			_ = a.Login(ctx)

		case "deploy":
			kind := ""
			if len(parts) > 1 {
				kind = parts[1]
			}
			_ = a.Deploy(ctx, kind)

		case "increase":
			_ = a.Increase(ctx)

		case "counter":
			_ = a.Counter(ctx)

		case "profile":
			_ = a.Profile(ctx)

		case "rewards":
			_ = a.Rewards(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
