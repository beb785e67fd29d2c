package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"abricot-ai-api/internal/application/review"
)

var generatePrompt string

var tasksGenerateCmd = &cobra.Command{
	Use:   "generate <project>",
	Short: "Generate task drafts with AI, review them and create them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := resolveProject(cmd, args[0])
		if err != nil {
			return err
		}
		sess := review.NewSession(review.Config{
			ProjectID:    p.ID,
			ProjectTitle: p.Name,
			Generator:    app.gen,
			Creator:      app.tasks,
			OnCommitted: app.tasks.RefreshHook(p.ID, func(err error) {
				fmt.Fprintln(os.Stderr, "warning: task list refresh failed:", err)
			}),
		})
		defer sess.Close()

		r := newReviewREPL(sess, os.Stdin, os.Stdout)
		return r.run(cmd.Context(), generatePrompt)
	},
}

func init() {
	tasksGenerateCmd.Flags().StringVarP(&generatePrompt, "prompt", "p", "", "initial prompt")
}

const reviewHelp = `commands:
  <text>            set the prompt and generate (while composing)
  list              show drafts
  edit <n>          edit draft n (title, then description)
  rm <n>            remove draft n
  regen [text]      generate again, optionally with a new prompt
  commit            create every draft in the project
  quit              discard the drafts and leave`

// reviewREPL 在终端里驱动一次审阅会话
type reviewREPL struct {
	sess *review.Session
	in   *bufio.Scanner
	out  io.Writer
}

func newReviewREPL(sess *review.Session, in io.Reader, out io.Writer) *reviewREPL {
	return &reviewREPL{sess: sess, in: bufio.NewScanner(in), out: out}
}

// run 返回 nil 表示提交完成或用户主动退出
func (r *reviewREPL) run(ctx context.Context, prompt string) error {
	if strings.TrimSpace(prompt) != "" {
		r.generate(ctx, prompt)
	}
	r.prompt()

	for r.in.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(r.in.Text())
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch {
		case line == "":
		case cmd == "quit" || cmd == "q":
			fmt.Fprintln(r.out, "Drafts discarded.")
			return nil
		case cmd == "help" || cmd == "?":
			fmt.Fprintln(r.out, reviewHelp)
		case cmd == "list" || cmd == "ls":
			r.list()
		case cmd == "edit":
			r.edit(arg)
		case cmd == "rm":
			r.remove(arg)
		case cmd == "regen":
			if arg == "" {
				arg = r.sess.Prompt()
			}
			r.generate(ctx, arg)
		case cmd == "commit":
			if done := r.commit(ctx); done {
				return nil
			}
		case r.sess.State() == review.StateCompose:
			r.generate(ctx, line)
		default:
			fmt.Fprintln(r.out, "unknown command, type help")
		}
		r.prompt()
	}
	return r.in.Err()
}

func (r *reviewREPL) prompt() {
	if r.sess.State() == review.StateCompose {
		fmt.Fprint(r.out, "prompt> ")
		return
	}
	fmt.Fprint(r.out, "review> ")
}

func (r *reviewREPL) generate(ctx context.Context, text string) {
	r.sess.SetPrompt(text)
	if !r.sess.CanGenerate() {
		fmt.Fprintf(r.out, "Prompt must be at least %d characters.\n", review.MinPromptLen)
		return
	}
	fmt.Fprintln(r.out, "Generating...")
	if !r.sess.Generate(ctx) {
		if msg := r.sess.Err(); msg != "" {
			fmt.Fprintln(r.out, "Error:", msg)
		}
		return
	}
	r.list()
}

func (r *reviewREPL) list() {
	drafts := r.sess.Drafts()
	if len(drafts) == 0 {
		fmt.Fprintln(r.out, "No drafts.")
		return
	}
	for i, d := range drafts {
		fmt.Fprintf(r.out, "%2d. [%s/%s] %s\n", i+1, d.Status, d.Priority, d.Title)
		if d.Description != "" {
			fmt.Fprintf(r.out, "    %s\n", d.Description)
		}
	}
}

// index 解析 1 起始的序号
func (r *reviewREPL) index(arg string) (int, bool) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > len(r.sess.Drafts()) {
		fmt.Fprintln(r.out, "invalid draft number")
		return 0, false
	}
	return n - 1, true
}

func (r *reviewREPL) edit(arg string) {
	i, ok := r.index(arg)
	if !ok || !r.sess.StartEdit(i) {
		return
	}
	current := r.sess.Drafts()[i]

	title := r.ask(fmt.Sprintf("title [%s]: ", current.Title), current.Title)
	description := r.ask("description [keep]: ", current.Description)
	if !r.sess.EditDraft(i, title, description) {
		r.sess.CancelEdit()
		fmt.Fprintln(r.out, "Edit ignored: title needs 3 to 120 characters.")
		return
	}
	r.list()
}

// ask 空输入时保留原值
func (r *reviewREPL) ask(label, fallback string) string {
	fmt.Fprint(r.out, label)
	if !r.in.Scan() {
		return fallback
	}
	if v := strings.TrimSpace(r.in.Text()); v != "" {
		return v
	}
	return fallback
}

func (r *reviewREPL) remove(arg string) {
	i, ok := r.index(arg)
	if !ok {
		return
	}
	if r.sess.RemoveDraft(i) {
		r.list()
	}
}

func (r *reviewREPL) commit(ctx context.Context) bool {
	if !r.sess.CanCommit() {
		fmt.Fprintln(r.out, "Nothing to commit.")
		return false
	}
	total := len(r.sess.Drafts())
	if err := r.sess.CommitAll(ctx); err != nil {
		fmt.Fprintln(r.out, "Error:", r.sess.Err())
		return false
	}
	fmt.Fprintf(r.out, "%d task(s) created.\n", total)
	return true
}
