package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output.
var printlnFn = fmt.Println

// execIface is the command surface the REPL dispatches to. App satisfies
// it; tests use a stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	Lots(ctx context.Context) error
	CreateLot(ctx context.Context, name string) error
	List(ctx context.Context, lot string) error
	Put(ctx context.Context, path, value string) error
	PutAttrs(ctx context.Context, path string) error
	Get(ctx context.Context, path string) error
	Rotate(ctx context.Context, lot string) error
	Clear(ctx context.Context) error
	Lock(ctx context.Context) error
}

const (
	helpLocked   = "Available commands: register, login, exit"
	helpUnlocked = "Available commands: lots, lot create <name>, list [lot], put <path> <value>, putattrs <path>, get <path>, rotate <lot>, clear, lock, exit\n" +
		"Paths are lot::label; a path without a lot uses the default lot."
)

// runREPL reads commands line by line from reader and dispatches them to a.
// It returns on EOF or after "exit" or "quit". Command errors are printed
// and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, reader *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("valet %s> ", statusFn()))
		line, err := reader.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		if ctx.Err() != nil {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "exit", "quit":
			printlnFn("Bye!")
			return
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpUnlocked)
			} else {
				printlnFn(helpLocked)
			}
			continue
		case "register":
			report(a.Register(ctx))
			continue
		case "login":
			report(a.Login(ctx))
			continue
		}

		if !a.isLoggedIn() {
			printlnFn("Not logged in. Use register or login first.")
			continue
		}

		switch cmd {
		case "lots":
			report(a.Lots(ctx))

		case "lot":
			if len(args) != 2 || args[0] != "create" {
				printlnFn("Usage: lot create <name>")
				continue
			}
			report(a.CreateLot(ctx, args[1]))

		case "l", "list":
			if len(args) > 1 {
				printlnFn("Usage: list [lot]")
				continue
			}
			lot := ""
			if len(args) == 1 {
				lot = args[0]
			}
			report(a.List(ctx, lot))

		case "put":
			if len(args) < 2 {
				printlnFn("Usage: put <path> <value>")
				continue
			}
			// The value is the rest of the line, inner spacing kept.
			rest := strings.TrimSpace(strings.TrimSpace(line)[len(cmd):])
			value := strings.TrimSpace(rest[len(args[0]):])
			report(a.Put(ctx, args[0], value))

		case "putattrs":
			if len(args) != 1 {
				printlnFn("Usage: putattrs <path>")
				continue
			}
			report(a.PutAttrs(ctx, args[0]))

		case "get":
			if len(args) != 1 {
				printlnFn("Usage: get <path>")
				continue
			}
			report(a.Get(ctx, args[0]))

		case "rotate":
			if len(args) != 1 {
				printlnFn("Usage: rotate <lot>")
				continue
			}
			report(a.Rotate(ctx, args[0]))

		case "clear":
			report(a.Clear(ctx))

		case "lock", "logout":
			report(a.Lock(ctx))

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}

func report(err error) {
	if err != nil {
		printlnFn("Error:", describe(err))
	}
}
