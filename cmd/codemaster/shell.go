package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sakif/codemaster/internal/client"
	"github.com/sakif/codemaster/internal/ui"
	"github.com/sakif/codemaster/internal/workspace"
)

var errQuit = errors.New("quit")

// shell reads one command per line and drives the controller.
type shell struct {
	ctrl     *workspace.Controller
	flow     workspace.DeviceAuthorizer
	out      io.Writer
	renderer *ui.Renderer
}

const helpText = `Commands:
  login <email> <password>        sign in
  github-login                    sign in with GitHub (device flow)
  register <name> <email> <username> <password> [role]
  signup                          toggle between login and register
  logout
  list                            reload snippets
  select <id>                     open a snippet
  new                             start a new snippet
  title <text>                    set the title
  desc <text>                     set the description
  edit <file>                     load code from a file
  show                            print the current code
  save                            save the snippet (creates a version)
  validate                        check the code's syntax
  delete                          delete the selected snippet
  versions                        reload version history
  rollback <n>                    restore version n
  rmversion <version-id>          permanently delete a version
  diff <v1> <v2>                  compare two versions
  metrics <n>                     show metrics for version n
  confirm | cancel                answer the open dialog
  help | quit`

func (s *shell) run(ctx context.Context, in *bufio.Scanner) error {
	fmt.Fprint(s.out, "> ")
	for in.Scan() {
		err := s.exec(ctx, in.Text())
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			var usage usageError
			if errors.As(err, &usage) {
				fmt.Fprintln(s.out, usage.Error())
			}
		}
		if ctx.Err() != nil {
			return nil
		}
		s.render()
		fmt.Fprint(s.out, "> ")
	}
	return in.Err()
}

func (s *shell) render() {
	s.renderer.Render(s.ctrl.View(), s.ctrl.Modal(), s.ctrl.Notifier().Active())
}

type usageError string

func (u usageError) Error() string { return "usage: " + string(u) }

// exec runs one command line. Failures the controller already reported
// through the notifier are returned but not printed again.
func (s *shell) exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := fields[0], fields[1:]
	rest := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), cmd))

	switch cmd {
	case "quit", "exit":
		return errQuit
	case "help":
		fmt.Fprintln(s.out, helpText)
		return nil

	case "login":
		if len(args) != 2 {
			return usageError("login <email> <password>")
		}
		return s.ctrl.Login(ctx, args[0], args[1])
	case "github-login":
		return s.ctrl.LoginGitHub(ctx, s.flow, func(uri, code string) {
			fmt.Fprintf(s.out, "Open %s and enter code %s\n", ui.Sanitize(uri, false), ui.Sanitize(code, false))
		})
	case "signup":
		s.ctrl.ToggleAuthMode()
		return nil
	case "register":
		if len(args) < 4 || len(args) > 5 {
			return usageError("register <name> <email> <username> <password> [role]")
		}
		form := workspace.RegisterForm{Name: args[0], Email: args[1], Username: args[2], Password: args[3]}
		if len(args) == 5 {
			form.Role = args[4]
		}
		s.ctrl.UpdateRegisterForm(form)
		return s.ctrl.Register(ctx, form)
	case "logout":
		s.ctrl.Logout(ctx)
		return nil

	case "list":
		return s.ctrl.LoadSnippets(ctx)
	case "select":
		id, err := intArg(args, "select <id>")
		if err != nil {
			return err
		}
		return s.ctrl.SelectSnippet(ctx, client.SnippetID(id))
	case "new":
		return s.ctrl.NewSnippet(ctx)
	case "title":
		s.ctrl.SetTitle(rest)
		return nil
	case "desc":
		s.ctrl.SetDescription(rest)
		return nil
	case "edit":
		if rest == "" {
			return usageError("edit <file>")
		}
		data, err := os.ReadFile(rest)
		if err != nil {
			fmt.Fprintln(s.out, err)
			return err
		}
		s.ctrl.SetContent(string(data))
		return nil
	case "show":
		fmt.Fprintln(s.out, ui.Sanitize(s.ctrl.View().Editor.Content, true))
		return nil
	case "save":
		return s.ctrl.SaveSnippet(ctx)
	case "validate":
		return s.ctrl.ValidateCode(ctx)
	case "delete":
		return s.ctrl.ConfirmDeleteSnippet()

	case "versions":
		id := s.ctrl.Selected()
		if id == 0 {
			fmt.Fprintln(s.out, "no snippet selected")
			return workspace.ErrNoSelection
		}
		return s.ctrl.LoadVersions(ctx, id)
	case "rollback":
		n, err := intArg(args, "rollback <n>")
		if err != nil {
			return err
		}
		id := s.ctrl.Selected()
		if id == 0 {
			fmt.Fprintln(s.out, "no snippet selected")
			return workspace.ErrNoSelection
		}
		return s.ctrl.Rollback(ctx, id, n)
	case "rmversion":
		versionID, err := intArg(args, "rmversion <version-id>")
		if err != nil {
			return err
		}
		row, ok := s.ctrl.FindVersion(int64(versionID))
		if !ok || !row.CanDelete {
			fmt.Fprintln(s.out, "no deletable version with that id")
			return nil
		}
		s.ctrl.ConfirmDeleteVersion(row.ID, row.VersionNumber)
		return nil
	case "diff":
		if len(args) != 2 {
			return usageError("diff <v1> <v2>")
		}
		v1, err1 := strconv.Atoi(args[0])
		v2, err2 := strconv.Atoi(args[1])
		if err1 != nil || err2 != nil {
			return usageError("diff <v1> <v2>")
		}
		return s.ctrl.DiffVersions(ctx, v1, v2)
	case "metrics":
		n, err := intArg(args, "metrics <n>")
		if err != nil {
			return err
		}
		return s.ctrl.ShowMetrics(ctx, n)

	case "confirm":
		return s.ctrl.Confirm(ctx)
	case "cancel":
		s.ctrl.Cancel()
		return nil
	}

	fmt.Fprintf(s.out, "unknown command %q, try help\n", ui.Sanitize(cmd, false))
	return nil
}

func intArg(args []string, usage string) (int, error) {
	if len(args) != 1 {
		return 0, usageError(usage)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, usageError(usage)
	}
	return n, nil
}
