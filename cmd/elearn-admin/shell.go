package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"

	"github.com/target/elearn-admin/internal/apiclient"
	apperrors "github.com/target/elearn-admin/internal/errors"
	"github.com/target/elearn-admin/internal/service"
)

var errNoTerminal = errors.New("stdin is not a terminal")

const shellPrompt = "elearn> "

type shellCommand struct {
	usage       string
	description string
	minArgs     int
	run         func(ctx context.Context, args []string) error
}

// shell is the interactive console. It reads one command per line.
type shell struct {
	session *service.SessionManager
	api     *apiclient.Client
	in      io.Reader
	out     io.Writer

	// readPassword prompts for a password; errNoTerminal falls back to the next input line.
	readPassword func(out io.Writer) (string, error)

	scanner *bufio.Scanner
}

func (sh *shell) commands() map[string]shellCommand {
	return map[string]shellCommand{
		"help":     {usage: "help", description: "Show this help", run: sh.help},
		"login":    {usage: "login <email>", description: "Sign in as a superuser", minArgs: 1, run: sh.login},
		"logout":   {usage: "logout", description: "Sign out and forget this device", run: sh.logout},
		"whoami":   {usage: "whoami", description: "Show the signed-in identity", run: sh.whoami},
		"status":   {usage: "status", description: "Show the session state", run: sh.status},
		"refresh":  {usage: "refresh", description: "Obtain a new access token", run: sh.refresh},
		"overview": {usage: "overview", description: "Show dashboard totals", run: sh.overview},
		"list":     {usage: "list <resource>", description: "List records of a resource", minArgs: 1, run: sh.list},
		"get":      {usage: "get <resource> [id]", description: "Show one record or a singleton resource", minArgs: 1, run: sh.get},
		"create":   {usage: "create <resource> <json>", description: "Create a record", minArgs: 2, run: sh.create},
		"update":   {usage: "update <resource> <id> <json>", description: "Replace fields of a record", minArgs: 3, run: sh.update},
		"delete":   {usage: "delete <resource> <id>", description: "Delete a record", minArgs: 2, run: sh.remove},
	}
}

func (sh *shell) run(ctx context.Context) error {
	sh.scanner = bufio.NewScanner(sh.in)

	status := sh.session.Init(ctx)
	sh.printf("session: %s\n", status)
	if user := sh.session.User(); user != nil {
		sh.printf("signed in as %s\n", user.Email)
	}

	cmds := sh.commands()
	for {
		sh.printf(shellPrompt)
		if !sh.scanner.Scan() {
			sh.printf("\n")
			return sh.scanner.Err()
		}

		fields := strings.Fields(sh.scanner.Text())
		if len(fields) == 0 {
			continue
		}
		name, args := fields[0], fields[1:]
		if name == "quit" || name == "exit" {
			return nil
		}

		cmd, ok := cmds[name]
		if !ok {
			sh.printf("unknown command %q (try help)\n", name)
			continue
		}
		if len(args) < cmd.minArgs {
			sh.printf("usage: %s\n", cmd.usage)
			continue
		}
		if err := cmd.run(ctx, args); err != nil {
			sh.reportError(err)
		}
	}
}

func (sh *shell) help(_ context.Context, _ []string) error {
	cmds := sh.commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	for _, name := range names {
		sh.fprintf(tw, "  %s\t%s\n", cmds[name].usage, cmds[name].description)
	}
	sh.fprintf(tw, "  quit\tLeave the console\n")
	return tw.Flush()
}

func (sh *shell) login(ctx context.Context, args []string) error {
	password, err := sh.readPassword(sh.out)
	if errors.Is(err, errNoTerminal) {
		password, err = sh.nextLine()
	}
	if err != nil {
		return err
	}

	sess, err := sh.session.Login(ctx, args[0], password)
	if err != nil {
		return err
	}
	sh.printf("signed in as %s (session %s)\n", sess.User.Email, sess.ID)
	return nil
}

func (sh *shell) logout(ctx context.Context, _ []string) error {
	sh.session.Logout(ctx)
	sh.printf("signed out\n")
	return nil
}

func (sh *shell) whoami(_ context.Context, _ []string) error {
	user := sh.session.User()
	if user == nil {
		sh.printf("not signed in\n")
		return nil
	}
	sh.printf("id: %s\nemail: %s\nsuperuser: %t\n", user.ID, user.Email, user.IsSuperuser)
	return nil
}

func (sh *shell) status(_ context.Context, _ []string) error {
	snap := sh.session.Snapshot()
	sh.printf("status: %s\n", snap.Status)
	if snap.ID != "" {
		sh.printf("session: %s\nissued: %s\n", snap.ID, snap.IssuedAt.Format(time.RFC3339))
	}
	return nil
}

func (sh *shell) refresh(ctx context.Context, _ []string) error {
	if _, err := sh.session.Refresh(ctx); err != nil {
		return err
	}
	sh.printf("access token refreshed\n")
	return nil
}

func (sh *shell) overview(ctx context.Context, _ []string) error {
	rec, err := sh.api.Overview(ctx)
	if err != nil {
		return err
	}
	return sh.printJSON(rec)
}

func (sh *shell) list(ctx context.Context, args []string) error {
	res, err := apiclient.ParseResource(args[0])
	if err != nil {
		return err
	}
	records, err := sh.api.List(ctx, res, nil)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		sh.printf("no %s\n", res)
		return nil
	}

	tw := tabwriter.NewWriter(sh.out, 0, 4, 2, ' ', 0)
	sh.fprintf(tw, "ID\tRECORD\n")
	for _, rec := range records {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		sh.fprintf(tw, "%s\t%s\n", rec.ID(), raw)
	}
	return tw.Flush()
}

func (sh *shell) get(ctx context.Context, args []string) error {
	res, err := apiclient.ParseResource(args[0])
	if err != nil {
		return err
	}
	var id string
	if len(args) > 1 {
		id = args[1]
	}
	rec, err := sh.api.Get(ctx, res, id)
	if err != nil {
		return err
	}
	return sh.printJSON(rec)
}

func (sh *shell) create(ctx context.Context, args []string) error {
	res, err := apiclient.ParseResource(args[0])
	if err != nil {
		return err
	}
	payload, err := parsePayload(args[1:])
	if err != nil {
		return err
	}
	rec, err := sh.api.Create(ctx, res, payload)
	if err != nil {
		return err
	}
	return sh.printJSON(rec)
}

func (sh *shell) update(ctx context.Context, args []string) error {
	res, err := apiclient.ParseResource(args[0])
	if err != nil {
		return err
	}
	payload, err := parsePayload(args[2:])
	if err != nil {
		return err
	}
	rec, err := sh.api.Update(ctx, res, args[1], payload)
	if err != nil {
		return err
	}
	return sh.printJSON(rec)
}

func (sh *shell) remove(ctx context.Context, args []string) error {
	res, err := apiclient.ParseResource(args[0])
	if err != nil {
		return err
	}
	if err := sh.api.Delete(ctx, res, args[1]); err != nil {
		return err
	}
	sh.printf("deleted %s %s\n", res, args[1])
	return nil
}

// parsePayload joins the remaining words back into one JSON object.
func parsePayload(words []string) (apiclient.Record, error) {
	var rec apiclient.Record
	if err := json.Unmarshal([]byte(strings.Join(words, " ")), &rec); err != nil {
		return nil, apperrors.Validationf("payload must be a JSON object: %v", err)
	}
	if rec == nil {
		return nil, apperrors.Validation("payload must be a JSON object")
	}
	return rec, nil
}

func (sh *shell) nextLine() (string, error) {
	if !sh.scanner.Scan() {
		if err := sh.scanner.Err(); err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return "", io.ErrUnexpectedEOF
	}
	return strings.TrimRight(sh.scanner.Text(), "\r"), nil
}

func (sh *shell) reportError(err error) {
	msg := apperrors.GetMessage(err)
	switch {
	case apperrors.IsRefreshFailed(err):
		sh.printf("error: %s; sign in again with: login <email>\n", msg)
	case apperrors.IsNotAuthorized(err) && sh.session.AccessToken() == "":
		sh.printf("error: %s; sign in with: login <email>\n", msg)
	default:
		sh.printf("error: %s\n", msg)
	}
}

func (sh *shell) printJSON(v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	sh.printf("%s\n", raw)
	return nil
}

func (sh *shell) printf(format string, args ...any) {
	sh.fprintf(sh.out, format, args...)
}

func (sh *shell) fprintf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
