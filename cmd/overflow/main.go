package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/BrenoJLeal02/uniespoverflow-front/internal/activity"
	"github.com/BrenoJLeal02/uniespoverflow-front/internal/app"
	"github.com/BrenoJLeal02/uniespoverflow-front/internal/config"
	"github.com/BrenoJLeal02/uniespoverflow-front/internal/forum"
	"github.com/BrenoJLeal02/uniespoverflow-front/internal/state"
	"github.com/BrenoJLeal02/uniespoverflow-front/internal/ui"
)

const usage = `usage: overflow [flags] <command> [args]

commands:
  profile                        show the signed-in user
  posts [userId]                 list posts of a user (default: you)
  post <id>                      show a post with its comments
  like <id> | dislike <id>       vote on a post
  edit-post <id> [-title t] [-description d] [-tags a,b]
  delete-post <id>
  comment <postId> <text>        add a comment
  edit-comment <id> <text>
  delete-comment <id>
  watch [userId]                 keep refreshing the post list
  log [n]                        show the last n activity log lines (default 20)
  logout                         forget the session and saved state
`

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "override config path (optional)")
	token := flag.String("token", "", "session token (defaults to $OVERFLOW_TOKEN)")
	verbose := flag.Bool("v", false, "mirror the activity log to stderr")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "overflow: load .env: %v\n", err)
		}
	}
	if *token == "" {
		*token = os.Getenv("OVERFLOW_TOKEN")
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		return 2
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "overflow: load config: %v\n", err)
		return 1
	}

	var mirror io.Writer
	if *verbose {
		mirror = os.Stderr
	}
	logger, logFile, err := activity.Open(cfg.StateDir, mirror)
	if err != nil {
		fmt.Fprintf(os.Stderr, "overflow: %v\n", err)
		return 1
	}
	defer logFile.Close()

	session, err := app.Open(ctx, app.Options{Config: &cfg, Token: *token, Logger: logger})
	if err != nil {
		logger.Printf("open session: %v", err)
		fmt.Fprintf(os.Stderr, "overflow: %v\n", err)
		return 1
	}
	defer session.Close()

	r := ui.NewRenderer(cfg.Theme)
	cmd := &command{session: session, render: r, token: *token}
	if err := cmd.dispatch(ctx, args[0], args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, r.Error(err))
		if errors.Is(err, errUsage) {
			flag.Usage()
			return 2
		}
		return 1
	}
	if args[0] != "logout" && args[0] != "log" {
		if err := session.Save(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "overflow: save state: %v\n", err)
		}
	}
	return 0
}

var errUsage = errors.New("invalid arguments")

const maxLogLines = 10000

type command struct {
	session *app.Session
	render  ui.Renderer
	token   string
}

func (c *command) dispatch(ctx context.Context, name string, args []string) error {
	switch name {
	case "logout":
		return c.session.Logout(ctx)
	case "log":
		return c.showLog(args)
	}
	if err := c.signIn(ctx); err != nil {
		return err
	}

	switch name {
	case "profile":
		p, _ := c.session.Profile().Profile()
		fmt.Println(c.render.Profile(p))
	case "posts":
		posts, err := c.session.ListPosts(ctx, optional(args))
		if err != nil {
			return err
		}
		fmt.Println(c.render.PostList(posts))
	case "post":
		id, err := single(args)
		if err != nil {
			return err
		}
		return c.showPost(ctx, id)
	case "like", "dislike":
		id, err := single(args)
		if err != nil {
			return err
		}
		if err := c.ensureCached(ctx, id); err != nil {
			return err
		}
		vote := c.session.Posts().LikePost
		if name == "dislike" {
			vote = c.session.Posts().DislikePost
		}
		if err := vote(ctx, id); err != nil {
			return err
		}
		return c.printPost()
	case "edit-post":
		return c.editPost(ctx, args)
	case "delete-post":
		id, err := single(args)
		if err != nil {
			return err
		}
		if err := c.session.Posts().RemovePost(ctx, id); err != nil {
			return err
		}
		fmt.Println("deleted", id)
	case "comment":
		if len(args) < 2 {
			return errUsage
		}
		if err := c.ensureCached(ctx, args[0]); err != nil {
			return err
		}
		if _, err := c.session.AddComment(ctx, args[0], strings.Join(args[1:], " ")); err != nil {
			return err
		}
		return c.printPost()
	case "edit-comment":
		if len(args) < 2 {
			return errUsage
		}
		return c.session.EditComment(ctx, args[0], strings.Join(args[1:], " "))
	case "delete-comment":
		id, err := single(args)
		if err != nil {
			return err
		}
		return c.session.DeleteComment(ctx, id)
	case "watch":
		return c.watch(ctx, optional(args))
	default:
		return fmt.Errorf("unknown command %q: %w", name, errUsage)
	}
	return nil
}

func (c *command) signIn(ctx context.Context) error {
	if c.token == "" {
		return fmt.Errorf("set -token or OVERFLOW_TOKEN: %w", state.ErrUnauthenticated)
	}
	_, err := c.session.SignIn(ctx, c.token)
	return err
}

func (c *command) showPost(ctx context.Context, id string) error {
	if _, err := c.session.OpenPost(ctx, id); err != nil {
		return err
	}
	return c.printPost()
}

func (c *command) printPost() error {
	post, ok := c.session.Posts().Post()
	if !ok {
		return state.ErrNotCached
	}
	viewer, _ := c.session.Profile().Profile()
	fmt.Println(c.render.PostDetail(post, viewer))
	return nil
}

// ensureCached loads id into the detail cache unless it is already there.
func (c *command) ensureCached(ctx context.Context, id string) error {
	if post, ok := c.session.Posts().Post(); ok && post.ID == id {
		return nil
	}
	_, err := c.session.OpenPost(ctx, id)
	return err
}

func (c *command) editPost(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	id := args[0]
	fs := flag.NewFlagSet("edit-post", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	title := fs.String("title", "", "new title")
	description := fs.String("description", "", "new description")
	tags := fs.String("tags", "", "comma separated tags")
	if err := fs.Parse(args[1:]); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	var patch forum.PostPatch
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "title":
			patch.Title = title
		case "description":
			patch.Description = description
		case "tags":
			list := []string{}
			for _, t := range strings.Split(*tags, ",") {
				if t = strings.TrimSpace(t); t != "" {
					list = append(list, t)
				}
			}
			patch.Tags = &list
		}
	})
	if patch.IsEmpty() {
		return fmt.Errorf("nothing to change: %w", errUsage)
	}
	if err := c.session.Posts().UpdatePost(ctx, id, patch); err != nil {
		return err
	}
	return c.printPost()
}

func (c *command) watch(ctx context.Context, ownerID string) error {
	store := c.session.Posts()
	done := c.session.StartRefresher(ctx, ownerID, 0)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return nil
		case <-ticker.C:
			posts, _ := store.Posts()
			fmt.Print("\033[H\033[2J")
			fmt.Println(c.render.PostList(posts))
			fmt.Println(c.render.Status(state.KeyPosts, store.Status(state.KeyPosts)))
		}
	}
}

func (c *command) showLog(args []string) error {
	n := 20
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil || parsed <= 0 {
			return fmt.Errorf("line count %q: %w", args[0], errUsage)
		}
		n = min(parsed, maxLogLines)
	}
	lines, err := activity.Tail(activity.Path(c.session.Config().StateDir), n)
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Println(line)
	}
	return nil
}

func single(args []string) (string, error) {
	if len(args) != 1 {
		return "", errUsage
	}
	return args[0], nil
}

func optional(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
