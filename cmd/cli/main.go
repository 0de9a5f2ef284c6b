// Command bp is the local BankPrep client. It reads and writes the profile
// store directly and keeps the signed-in user in the store's session marker.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/and161185/bankprep/internal/config"
	pkgcrypto "github.com/and161185/bankprep/internal/crypto"
	"github.com/and161185/bankprep/internal/errs"
	"github.com/and161185/bankprep/internal/kv"
	"github.com/and161185/bankprep/internal/repository/kvrepo"
	"github.com/and161185/bankprep/internal/service"
	"github.com/and161185/bankprep/internal/storage"
	"github.com/and161185/bankprep/internal/tutor"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// usageError marks bad invocations; they exit with status 2.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{msg: fmt.Sprintf(format, args...)}
}

// app holds the process environment and the services bound to the store.
type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	getenv func(string) string

	hasher       pkgcrypto.Hasher
	newTutor     func(log *zap.Logger) tutor.Asker
	readPassword func(prompt string) (string, error)

	store     kv.Store
	log       *zap.Logger
	auth      service.AuthService
	profiles  service.ProfileService
	syllabus  service.SyllabusService
	scores    service.ScoreService
	tasks     service.TaskService
	dashboard service.DashboardService
}

func newApp(stdin io.Reader, stdout, stderr io.Writer, getenv func(string) string) *app {
	a := &app{
		stdin:  stdin,
		stdout: stdout,
		stderr: stderr,
		getenv: getenv,
		hasher: pkgcrypto.DefaultHasher,
	}
	a.newTutor = func(log *zap.Logger) tutor.Asker {
		return tutor.New(tutor.Options{
			BaseURL: a.getenv(config.EnvTutorURL),
			Model:   a.getenv(config.EnvTutorModel),
			Getenv:  a.getenv,
			Logger:  log,
		})
	}
	a.readPassword = a.promptPassword
	return a
}

func (a *app) usage() {
	fmt.Fprint(a.stderr, `bp - BankPrep exam tracker
Usage:
  bp [-store URL] [-v] <cmd> [args]

Commands:
  version
  register     -u <username> -e <email> [-p <password>]
  login        -u <username> [-p <password>]
  logout
  whoami
  syllabus
  subject-add  -name <name>
  subject-rm   -id <subject>
  topic-add    -subject <subject> -name <name>
  topic-rm     -subject <subject> -id <topic>
  topic-set    -subject <subject> -id <topic> -field <completed|prelimsRevisions|mainsRevisions> -value <v>
  revise       -subject <subject> -id <topic> -stage <prelims|mains> [-delta N]
  scores
  score-add    -date YYYY-MM-DD [-provider P] -total N -obtained N [-percentile N]
               [-quant N -reasoning N -english N -ga N]
  score-rm     -id <score>
  tasks
  task-add     -title <title> [-date YYYY-MM-DD]
  task-toggle  -id <task>
  task-rm      -id <task>
  target       [-date YYYY-MM-DD | -clear]
  stats
  export       [-o file.xlsx]
  ask          <question...>
  chat
`)
}

// open binds the services to the store at storeURL.
func (a *app) open(ctx context.Context, storeURL string, verbose bool) error {
	a.log = zap.NewNop()
	if verbose {
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		a.log = l
	}
	store, err := storage.Open(ctx, storeURL)
	if err != nil {
		return err
	}
	a.store = store

	users := kvrepo.NewUserRepo(store)
	profiles := kvrepo.NewProfileRepo(store)
	sessions := kvrepo.NewSessionRepo(store)
	locks := service.NewLocks()
	pub := service.NopPublisher{}

	a.auth = service.NewAuthService(users, sessions, a.hasher, locks, pub, a.log)
	a.profiles = service.NewProfileService(profiles, locks)
	a.syllabus = service.NewSyllabusService(profiles, locks, pub, a.log)
	a.scores = service.NewScoreService(profiles, locks, pub, a.log)
	a.tasks = service.NewTaskService(profiles, locks, pub, a.log)
	a.dashboard = service.NewDashboardService(profiles, locks)
	return nil
}

func (a *app) close() {
	if a.store != nil {
		_ = a.store.Close()
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
}

// run executes one invocation and returns the process exit code.
func (a *app) run(ctx context.Context, args []string) int {
	set := flag.NewFlagSet("bp", flag.ContinueOnError)
	set.SetOutput(a.stderr)
	set.Usage = a.usage
	storeURL := set.String("store", config.DefaultCLIStore(a.getenv), "storage URL")
	verbose := set.Bool("v", false, "verbose logging to stderr")
	if err := set.Parse(args); err != nil {
		return 2
	}
	if set.NArg() < 1 {
		a.usage()
		return 2
	}
	name, rest := set.Arg(0), set.Args()[1:]

	if name == "version" {
		fmt.Fprintf(a.stdout, "bp %s (%s)\n", version, buildDate)
		return 0
	}
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(a.stderr, "unknown command %q\n", name)
		a.usage()
		return 2
	}

	if err := a.open(ctx, *storeURL, *verbose); err != nil {
		return a.fail(err)
	}
	defer a.close()

	if err := cmd(a, ctx, rest); err != nil {
		return a.fail(err)
	}
	return 0
}

func (a *app) fail(err error) int {
	var ue usageError
	if errors.As(err, &ue) {
		if ue.msg != "" {
			fmt.Fprintln(a.stderr, ue.msg)
		}
		return 2
	}
	fmt.Fprintln(a.stderr, "bp:", describe(err))
	return 1
}

func describe(err error) string {
	switch {
	case errors.Is(err, errs.ErrInvalidCredentials):
		return "invalid username or password"
	case errors.Is(err, errs.ErrDuplicateUsername):
		return "username already taken"
	case errors.Is(err, errs.ErrStorageUnavailable):
		return "storage unavailable: " + err.Error()
	default:
		return err.Error()
	}
}

func printJSON(w io.Writer, v any) {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

// main dispatches subcommands against the configured store.
func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := newApp(os.Stdin, os.Stdout, os.Stderr, os.Getenv).run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
