// cmd/guard/main.go
//
// Pursuit – companion session guard.
//
// Context
// -------
// This is the device-local half of the access gate.  It keeps the
// plaintext secret in a keyfile, validates it against the deployment on
// start, and then stands watch: a 60-second recheck plus an fsnotify
// notification both catch the keyfile being cleared by another process,
// and either one triggers the re-entry prompt.
//
// Subcommand-ish flags, in the spirit of keeping one small binary:
//
//	pursuit-guard             – run the guard loop.
//	pursuit-guard -register   – interactive registration; stores the secret.
//	pursuit-guard -delete     – destroy the instance and clear the keyfile.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/pursuithq/pursuit/internal/client"
	"github.com/pursuithq/pursuit/internal/config"
	"github.com/pursuithq/pursuit/internal/guard"
	"github.com/pursuithq/pursuit/internal/keystore"
	"github.com/pursuithq/pursuit/internal/logger"
)

func main() {
	register := flag.Bool("register", false, "register a new instance (replaces any existing one)")
	destroy := flag.Bool("delete", false, "delete the instance and all its records")
	flag.Parse()

	rootDir, _ := os.Getwd()
	logOut, err := logger.New(rootDir, true)
	if err != nil {
		log.Fatalf("start logger: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logOut.Fatalf("load config: %v", err)
	}

	api := client.New(cfg.Guard.BaseURL)
	store := keystore.New(os.ExpandEnv(cfg.Guard.Keyfile))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	in := bufio.NewReader(os.Stdin)

	switch {
	case *register:
		runRegister(ctx, api, store, in, logOut)
	case *destroy:
		runDelete(ctx, api, store, in, logOut)
	default:
		runGuard(ctx, api, store, in, logOut)
	}
}

/*──────────────────────────────── guard ───────────────────────────────────*/

func runGuard(ctx context.Context, api *client.Client, store *keystore.Store, in *bufio.Reader, logOut *zap.SugaredLogger) {
	removals, err := store.Watch(ctx)
	if err != nil {
		logOut.Fatalf("watch keyfile: %v", err)
	}

	g := guard.New(api, store, &stdinPrompter{in: in},
		config.Get().Guard.RecheckInterval, nil)

	err = g.Run(ctx, removals)
	switch {
	case errors.Is(err, guard.ErrRegistrationRequired):
		fmt.Fprintln(os.Stderr, "No usable secret on this device.  Run `pursuit-guard -register` first.")
		os.Exit(1)
	case errors.Is(err, context.Canceled):
		logOut.Infow("guard stopped")
	case err != nil:
		logOut.Fatalf("guard: %v", err)
	}
}

// stdinPrompter implements guard.Prompter over the terminal.  EOF
// (Ctrl-D) counts as cancel, mirroring the prompt's Cancel button.
type stdinPrompter struct {
	in *bufio.Reader
}

func (p *stdinPrompter) PromptSecret(_ context.Context) (string, bool, error) {
	fmt.Print("Your authentication details were cleared.  Re-enter your secret: ")
	line, err := p.in.ReadString('\n')
	if errors.Is(err, io.EOF) {
		fmt.Println()
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return strings.TrimSpace(line), true, nil
}

/*────────────────────────── register / delete ─────────────────────────────*/

func runRegister(ctx context.Context, api *client.Client, store *keystore.Store, in *bufio.Reader, logOut *zap.SugaredLogger) {
	name := promptLine(in, "Display name: ")
	email := promptLine(in, "Contact email: ")
	sec := promptLine(in, "Choose a secret: ")

	inst, err := api.Register(ctx, name, email, sec)
	if err != nil {
		logOut.Fatalf("register: %v", err)
	}
	if err := store.Save(sec); err != nil {
		logOut.Fatalf("save keyfile: %v", err)
	}
	fmt.Printf("Registered %q <%s>.  Secret stored in %s.\n", inst.Name, inst.Email, store.Path())
}

func runDelete(ctx context.Context, api *client.Client, store *keystore.Store, in *bufio.Reader, logOut *zap.SugaredLogger) {
	sec, ok, err := store.Load()
	if err != nil {
		logOut.Fatalf("read keyfile: %v", err)
	}
	if !ok {
		sec = promptLine(in, "Secret: ")
	}

	if err := api.Delete(ctx, sec); err != nil {
		logOut.Fatalf("delete: %v", err)
	}
	if err := store.Clear(); err != nil {
		logOut.Fatalf("clear keyfile: %v", err)
	}
	fmt.Println("Instance and all records deleted.")
}

func promptLine(in *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := in.ReadString('\n')
	return strings.TrimSpace(line)
}
