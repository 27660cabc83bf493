package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/valet/internal/common"
	"github.com/dmitrijs2005/valet/internal/payload"
	"github.com/dmitrijs2005/valet/internal/services"
)

// getSimpleText, getPassword and getAttributes are swapped in tests.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	getAttributes = GetAttributes
)

const clearScreen = "\033[H\033[2J"

// App is one interactive shell. It holds at most one open session.
type App struct {
	svc     *services.VaultService
	session *services.Session
	reader  *bufio.Reader
	out     io.Writer
}

func NewApp(svc *services.VaultService, in io.Reader, out io.Writer) *App {
	return &App{svc: svc, reader: bufio.NewReader(in), out: out}
}

// Run runs the REPL until EOF, exit or ctx is done, then locks the session.
func (a *App) Run(ctx context.Context) {
	defer func() { _ = a.Lock(ctx) }()
	runREPL(ctx, a, a.status, a.reader)
}

func (a *App) isLoggedIn() bool {
	return a.session != nil
}

func (a *App) status() string {
	if a.session == nil {
		return "(locked)"
	}
	return a.session.Username()
}

// describe renders err for the user. A lot the user may not open and a lot
// that does not exist look the same.
func describe(err error) string {
	switch {
	case errors.Is(err, common.ErrInvalidCredentials):
		return "invalid username or password"
	case errors.Is(err, services.ErrNoSuchLabel):
		return "no such label"
	case errors.Is(err, common.ErrNotAuthorized), errors.Is(err, common.ErrNotFound):
		return "lot not accessible"
	case errors.Is(err, common.ErrAlreadyExists):
		return "already exists"
	case errors.Is(err, context.DeadlineExceeded):
		return "operation timed out"
	default:
		return err.Error()
	}
}

func (a *App) credentials() (string, error) {
	username, err := getSimpleText(a.reader, "Username", a.out)
	if err != nil {
		return "", err
	}
	if username == "" {
		return "", errors.New("username must not be empty")
	}
	return username, nil
}

// Register creates an account and opens a session for it.
func (a *App) Register(ctx context.Context) error {
	username, err := a.credentials()
	if err != nil {
		return err
	}
	pw, err := getPassword(a.out)
	if err != nil {
		return err
	}

	sess, err := a.svc.Register(ctx, username, pw)
	if err != nil {
		return err
	}
	a.replace(sess)
	printlnFn("Registered as", username)
	return nil
}

// Login opens a session for an existing account.
func (a *App) Login(ctx context.Context) error {
	username, err := a.credentials()
	if err != nil {
		return err
	}
	pw, err := getPassword(a.out)
	if err != nil {
		return err
	}

	sess, err := a.svc.Login(ctx, username, pw)
	if err != nil {
		return err
	}
	a.replace(sess)
	printlnFn("Logged in as", username)
	return nil
}

func (a *App) replace(sess *services.Session) {
	if a.session != nil {
		a.session.Close()
	}
	a.session = sess
}

func (a *App) Lots(ctx context.Context) error {
	names, err := a.session.Lots(ctx)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		printlnFn("No lots.")
		return nil
	}
	for _, n := range names {
		printlnFn("-", n)
	}
	return nil
}

func (a *App) CreateLot(ctx context.Context, name string) error {
	if err := a.session.CreateLot(ctx, name); err != nil {
		return err
	}
	printlnFn("Created lot", name)
	return nil
}

// List prints the labels of lot, the default lot when lot is empty.
func (a *App) List(ctx context.Context, lot string) error {
	lot = parseLot(lot, a.svc.DefaultLot())
	entries, err := a.session.List(ctx, lot)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		printlnFn("Lot", lot, "is empty.")
		return nil
	}
	for _, e := range entries {
		printlnFn(fmt.Sprintf("- %s (%s)", Path{Lot: lot, Label: e.Label}, e.Payload.Kind()))
	}
	return nil
}

// Put stores a plain value under path.
func (a *App) Put(ctx context.Context, path, value string) error {
	p, err := ParsePath(path, a.svc.DefaultLot())
	if err != nil {
		return err
	}
	if _, err := a.session.Put(ctx, p.Lot, payload.Plain(p.Label, value)); err != nil {
		return err
	}
	printlnFn("Stored", p.String())
	return nil
}

// PutAttrs prompts for attributes and stores them under path.
func (a *App) PutAttrs(ctx context.Context, path string) error {
	p, err := ParsePath(path, a.svc.DefaultLot())
	if err != nil {
		return err
	}
	attrs, err := getAttributes(a.reader, a.out)
	if err != nil {
		return err
	}
	if _, err := a.session.Put(ctx, p.Lot, payload.Domain(p.Label, attrs)); err != nil {
		return err
	}
	printlnFn("Stored", p.String())
	return nil
}

func (a *App) Get(ctx context.Context, path string) error {
	p, err := ParsePath(path, a.svc.DefaultLot())
	if err != nil {
		return err
	}
	e, err := a.session.Get(ctx, p.Lot, p.Label)
	if err != nil {
		return err
	}
	printlnFn(e.Payload.Reveal())
	return nil
}

func (a *App) Rotate(ctx context.Context, lot string) error {
	lot = parseLot(lot, a.svc.DefaultLot())
	n, err := a.session.Rotate(ctx, lot)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("Rotated key of lot %s, %d record(s) re-sealed", lot, n))
	return nil
}

func (a *App) Clear(ctx context.Context) error {
	_, err := fmt.Fprint(a.out, clearScreen)
	return err
}

// Lock closes the session and destroys the user key.
func (a *App) Lock(ctx context.Context) error {
	if a.session == nil {
		return nil
	}
	a.session.Close()
	a.session = nil
	printlnFn("Locked.")
	return nil
}
