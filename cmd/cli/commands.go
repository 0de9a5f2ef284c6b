package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/and161185/bankprep/internal/export"
	"github.com/and161185/bankprep/internal/model"
	"github.com/and161185/bankprep/internal/tutor"
)

type command func(a *app, ctx context.Context, args []string) error

var commands = map[string]command{
	"register":    (*app).register,
	"login":       (*app).login,
	"logout":      (*app).logout,
	"whoami":      (*app).whoami,
	"syllabus":    (*app).showSyllabus,
	"subject-add": (*app).subjectAdd,
	"subject-rm":  (*app).subjectRm,
	"topic-add":   (*app).topicAdd,
	"topic-rm":    (*app).topicRm,
	"topic-set":   (*app).topicSet,
	"revise":      (*app).revise,
	"scores":      (*app).showScores,
	"score-add":   (*app).scoreAdd,
	"score-rm":    (*app).scoreRm,
	"tasks":       (*app).showTasks,
	"task-add":    (*app).taskAdd,
	"task-toggle": (*app).taskToggle,
	"task-rm":     (*app).taskRm,
	"target":      (*app).target,
	"stats":       (*app).stats,
	"export":      (*app).export,
	"ask":         (*app).ask,
	"chat":        (*app).chat,
}

var errSignedOut = errors.New("not signed in; run bp login")

func (a *app) flags(name string) *flag.FlagSet {
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	set.SetOutput(a.stderr)
	return set
}

// parse reports flag errors as usage errors; the flag package already
// printed them.
func parse(set *flag.FlagSet, args []string) error {
	if err := set.Parse(args); err != nil {
		return usageError{}
	}
	return nil
}

// current returns the signed-in user id.
func (a *app) current(ctx context.Context) (string, error) {
	sess, err := a.auth.Resume(ctx)
	if err != nil {
		return "", err
	}
	if !sess.Active() {
		return "", errSignedOut
	}
	return sess.User().ID, nil
}

type userView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func viewOf(u model.User) userView {
	return userView{ID: u.ID, Username: u.Username, Email: u.Email}
}

// ---- auth ----

func (a *app) register(ctx context.Context, args []string) error {
	set := a.flags("register")
	u := set.String("u", "", "username")
	e := set.String("e", "", "email")
	p := set.String("p", "", "password (prompted when empty)")
	if err := parse(set, args); err != nil {
		return err
	}
	if *u == "" || *e == "" {
		return usagef("need -u and -e")
	}
	pw, err := a.password(*p)
	if err != nil {
		return err
	}
	sess, err := a.auth.Register(ctx, *u, *e, pw)
	if err != nil {
		return err
	}
	printJSON(a.stdout, viewOf(sess.User()))
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	set := a.flags("login")
	u := set.String("u", "", "username")
	p := set.String("p", "", "password (prompted when empty)")
	if err := parse(set, args); err != nil {
		return err
	}
	if *u == "" {
		return usagef("need -u")
	}
	pw, err := a.password(*p)
	if err != nil {
		return err
	}
	sess, err := a.auth.Login(ctx, *u, pw)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "signed in as %s\n", sess.User().Username)
	return nil
}

func (a *app) logout(ctx context.Context, _ []string) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "signed out")
	return nil
}

func (a *app) whoami(ctx context.Context, _ []string) error {
	sess, err := a.auth.Resume(ctx)
	if err != nil {
		return err
	}
	if !sess.Active() {
		return errSignedOut
	}
	printJSON(a.stdout, viewOf(sess.User()))
	return nil
}

// ---- syllabus ----

func (a *app) showSyllabus(ctx context.Context, _ []string) error {
	uid, err := a.current(ctx)
	if err != nil {
		return err
	}
	p, err := a.profiles.Profile(ctx, uid)
	if err != nil {
		return err
	}
	for _, s := range p.Syllabus {
		fmt.Fprintf(a.stdout, "%s  %s\n", s.ID, s.Name)
		for _, t := range s.Topics {
			mark := " "
			if t.Completed {
				mark = "x"
			}
			fmt.Fprintf(a.stdout, "  [%s] %s  %s  (prelims %d, mains %d)\n",
				mark, t.ID, t.Name, t.PrelimsRevisions, t.MainsRevisions)
		}
	}
	return nil
}

func (a *app) subjectAdd(ctx context.Context, args []string) error {
	set := a.flags("subject-add")
	name := set.String("name", "", "subject name")
	if err := parse(set, args); err != nil {
		return err
	}
	uid, err := a.current(ctx)
	if err != nil {
		return err
	}
	id, _, err := a.syllabus.AddSubject(ctx, uid, *name)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, id)
	return nil
}

func (a *app) subjectRm(ctx context.Context, args []string) error {
	set := a.flags("subject-rm")
	id := set.String("id", "", "subject id")
	if err := parse(set, args); err != nil {
		return err
	}
	uid, err := a.current(ctx)
	if err != nil {
		return err
	}
	_, err = a.syllabus.DeleteSubject(ctx, uid, *id)
	return err
}

func (a *app) topicAdd(ctx context.Context, args []string) error {
	set := a.flags("topic-add")
	sub := set.String("subject", "", "subject id")
	name := set.String("name", "", "topic name")
	if err := parse(set, args); err != nil {
		return err
	}
	uid, err := a.current(ctx)
	if err != nil {
		return err
	}
	id, _, err := a.syllabus.AddTopic(ctx, uid, *sub, *name)
	if err != nil {
		return err
	}
	if id == "" {
		fmt.Fprintf(a.stderr, "no subject %q; nothing changed\n", *sub)
		return nil
	}
	fmt.Fprintln(a.stdout, id)
	return nil
}

func (a *app) topicRm(ctx context.Context, args []string) error {
	set := a.flags("topic-rm")
	sub := set.String("subject", "", "subject id")
	id := set.String("id", "", "topic id")
	if err := parse(set, args); err != nil {
		return err
	}
	uid, err := a.current(ctx)
	if err != nil {
		return err
	}
	_, err = a.syllabus.DeleteTopic(ctx, uid, *sub, *id)
	return err
}

// fieldValue converts the textual -value for field.
func fieldValue(field model.TopicField, raw string) (any, error) {
	if field == model.FieldCompleted {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, usagef("-value for completed must be true or false")
		}
		return b, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, usagef("-value for %s must be an integer", field)
	}
	return n, nil
}

func (a *app) topicSet(ctx context.Context, args []string) error {
	set := a.flags("topic-set")
	sub := set.String("subject", "", "subject id")
	id := set.String("id", "", "topic id")
	field := set.String("field", "", "completed, prelimsRevisions or mainsRevisions")
	raw := set.String("value", "", "new value")
	if err := parse(set, args); err != nil {
		return err
	}
	v, err := fieldValue(model.TopicField(*field), *raw)
	if err != nil {
		return err
	}
	uid, err := a.current(ctx)
	if err != nil {
		return err
	}
	_, err = a.syllabus.SetTopicField(ctx, uid, *sub, *id, model.TopicField(*field), v)
	return err
}

func revisionStage(s string) (model.TopicField, error) {
	switch s {
	case "prelims", string(model.FieldPrelimsRevisions):
		return model.FieldPrelimsRevisions, nil
	case "mains", string(model.FieldMainsRevisions):
		return model.FieldMainsRevisions, nil
	default:
		return "", usagef("-stage must be prelims or mains")
	}
}

func (a *app) revise(ctx context.Context, args []string) error {
	set := a.flags("revise")
	sub := set.String("subject", "", "subject id")
	id := set.String("id", "", "topic id")
	stage := set.String("stage", "prelims", "prelims or mains")
	delta := set.Int("delta", 1, "revision count change")
	if err := parse(set, args); err != nil {
		return err
	}
	st, err := revisionStage(*stage)
	if err != nil {
		return err
	}
	uid, err := a.current(ctx)
	if err != nil {
		return err
	}
	_, err = a.syllabus.AdjustRevisions(ctx, uid, *sub, *id, st, *delta)
	return err
}

// ---- scores ----

func (a *app) showScores(ctx context.Context, _ []string) error {
	uid, err := a.current(ctx)
	if err != nil {
		return err
	}
	p, err := a.profiles.Profile(ctx, uid)
	if err != nil {
		return err
	}
	printJSON(a.stdout, p.Scores)
	return nil
}

func (a *app) scoreAdd(ctx context.Context, args []string) error {
	set := a.flags("score-add")
	var in model.ScoreInput
	set.StringVar(&in.Date, "date", "", "test date (YYYY-MM-DD)")
	set.StringVar(&in.Provider, "provider", "", "mock test provider")
	set.Float64Var(&in.TotalMarks, "total", 0, "total marks")
	set.Float64Var(&in.ObtainedMarks, "obtained", 0, "obtained marks")
	set.Float64Var(&in.Percentile, "percentile", 0, "percentile")
	set.Float64Var(&in.SectionScores.Quant, "quant", 0, "quant section marks")
	set.Float64Var(&in.SectionScores.Reasoning, "reasoning", 0, "reasoning section marks")
	set.Float64Var(&in.SectionScores.English, "english", 0, "english section marks")
	set.Float64Var(&in.SectionScores.GA, "ga", 0, "general awareness section marks")
	if err := parse(set, args); err != nil {
		return err
	}
	if in.Date == "" {
		return usagef("need -date")
	}
	uid, err := a.current(ctx)
	if err != nil {
		return err
	}
	id, _, err := a.scores.AddScore(ctx, uid, in)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, id)
	return nil
}

func (a *app) scoreRm(ctx context.Context, args []string) error {
	set := a.flags("score-rm")
	id := set.String("id", "", "score id")
	if err := parse(set, args); err != nil {
		return err
	}
	uid, err := a.current(ctx)
	if err != nil {
		return err
	}
	_, err = a.scores.DeleteScore(ctx, uid, *id)
	return err
}

// ---- tasks ----

func (a *app) showTasks(ctx context.Context, _ []string) error {
	uid, err := a.current(ctx)
	if err != nil {
		return err
	}
	p, err := a.profiles.Profile(ctx, uid)
	if err != nil {
		return err
	}
	for _, t := range p.Tasks {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(a.stdout, "[%s] %s  %s  %s\n", mark, t.ID, t.Date, t.Title)
	}
	return nil
}

func (a *app) taskAdd(ctx context.Context, args []string) error {
	set := a.flags("task-add")
	title := set.String("title", "", "task title")
	date := set.String("date", "", "due date (YYYY-MM-DD)")
	if err := parse(set, args); err != nil {
		return err
	}
	uid, err := a.current(ctx)
	if err != nil {
		return err
	}
	id, _, err := a.tasks.AddTask(ctx, uid, *title, *date)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, id)
	return nil
}

func (a *app) taskToggle(ctx context.Context, args []string) error {
	set := a.flags("task-toggle")
	id := set.String("id", "", "task id")
	if err := parse(set, args); err != nil {
		return err
	}
	uid, err := a.current(ctx)
	if err != nil {
		return err
	}
	_, err = a.tasks.ToggleTask(ctx, uid, *id)
	return err
}

func (a *app) taskRm(ctx context.Context, args []string) error {
	set := a.flags("task-rm")
	id := set.String("id", "", "task id")
	if err := parse(set, args); err != nil {
		return err
	}
	uid, err := a.current(ctx)
	if err != nil {
		return err
	}
	_, err = a.tasks.DeleteTask(ctx, uid, *id)
	return err
}

func (a *app) target(ctx context.Context, args []string) error {
	set := a.flags("target")
	date := set.String("date", "", "target exam date (YYYY-MM-DD)")
	unset := set.Bool("clear", false, "remove the target date")
	if err := parse(set, args); err != nil {
		return err
	}
	if *unset && *date != "" {
		return usagef("-date and -clear are exclusive")
	}
	uid, err := a.current(ctx)
	if err != nil {
		return err
	}
	if *date == "" && !*unset {
		p, err := a.profiles.Profile(ctx, uid)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, p.TargetExamDate)
		return nil
	}
	_, err = a.tasks.SetTargetExamDate(ctx, uid, *date)
	return err
}

// ---- dashboard, export ----

func (a *app) stats(ctx context.Context, _ []string) error {
	uid, err := a.current(ctx)
	if err != nil {
		return err
	}
	st, err := a.dashboard.Stats(ctx, uid)
	if err != nil {
		return err
	}
	printJSON(a.stdout, st)
	return nil
}

func (a *app) export(ctx context.Context, args []string) error {
	set := a.flags("export")
	out := set.String("o", "bankprep-export.xlsx", "output file")
	if err := parse(set, args); err != nil {
		return err
	}
	uid, err := a.current(ctx)
	if err != nil {
		return err
	}
	p, err := a.profiles.Profile(ctx, uid)
	if err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	if err := export.Write(f, p); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, *out)
	return nil
}

// ---- tutor ----

// exchange sends one prompt and reports the reply text.
func (a *app) exchange(ctx context.Context, t tutor.Asker, prompt string, prior []model.ChatTurn) (string, error) {
	reply, err := t.Ask(ctx, prompt, prior)
	if err != nil {
		return "", err
	}
	if reply.Status == tutor.StatusTransportFailure {
		a.log.Warn("tutor", zap.Error(reply.Err), zap.Int("upstream_status", tutor.StatusCode(reply.Err)))
	}
	return reply.Text, nil
}

func (a *app) ask(ctx context.Context, args []string) error {
	set := a.flags("ask")
	if err := parse(set, args); err != nil {
		return err
	}
	prompt := strings.Join(set.Args(), " ")
	if strings.TrimSpace(prompt) == "" {
		return usagef("ask needs a question")
	}
	text, err := a.exchange(ctx, a.newTutor(a.log), prompt, tutor.Opening())
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, text)
	return nil
}

// chat runs a REPL; each reply is appended to the transcript sent with the
// next question. Empty input is skipped, "exit" or EOF ends the session.
func (a *app) chat(ctx context.Context, _ []string) error {
	t := a.newTutor(a.log)
	transcript := tutor.Opening()
	fmt.Fprintln(a.stdout, tutor.Greeting)

	sc := bufio.NewScanner(a.stdin)
	for {
		fmt.Fprint(a.stdout, "> ")
		if !sc.Scan() {
			fmt.Fprintln(a.stdout)
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		switch line {
		case "":
			continue
		case "exit", "quit":
			return nil
		}
		text, err := a.exchange(ctx, t, line, transcript)
		if err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, text)
		transcript = append(transcript,
			model.ChatTurn{Role: model.RoleUser, Text: line},
			model.ChatTurn{Role: model.RoleModel, Text: text},
		)
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}
