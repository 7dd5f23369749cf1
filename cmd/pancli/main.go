package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/lunaticfringe9/openpan/config"
	"github.com/lunaticfringe9/openpan/internal/api"
	"github.com/lunaticfringe9/openpan/internal/auth"
	"github.com/lunaticfringe9/openpan/internal/credstore"
	"github.com/lunaticfringe9/openpan/internal/files"
	"github.com/lunaticfringe9/openpan/internal/transfer"
	"github.com/lunaticfringe9/openpan/pkg/env"
	"github.com/lunaticfringe9/openpan/pkg/logging"
)

// appContext bundles the long-lived collaborators every command shares.
type appContext struct {
	session *auth.Session
	client  *api.Client
	store   *credstore.Store
	authn   *auth.Authenticator
	files   *files.Service
	engine  *transfer.Engine
}

func buildApp() (*appContext, error) {
	store, err := credstore.Open(config.Config.CredStorePath)
	if err != nil {
		return nil, err
	}

	session := auth.NewSession()
	client := api.NewClient(config.Config.APIBase, config.Config.UserAgent, session)

	app := &appContext{
		session: session,
		client:  client,
		store:   store,
		authn:   auth.NewAuthenticator(client, session, store),
		files:   files.NewService(client),
	}
	app.engine = transfer.NewEngine(client, printProgress)
	return app, nil
}

func (a *appContext) close() {
	if a.store != nil {
		a.store.Close()
	}
}

// printProgress is the CLI's progress sink.
func printProgress(ev transfer.Event) {
	switch ev.Status {
	case transfer.StatusError:
		fmt.Printf("\n%s: error: %s\n", ev.ID, ev.Message)
	case transfer.StatusFinished:
		fmt.Printf("\r%s: 100%% done\n", ev.ID)
	default:
		fmt.Printf("\r%s: %s %d%%", ev.ID, ev.Status, ev.Progress)
	}
}

// requireLogin restores a session from stored credentials before a command
// that needs one.
func (a *appContext) requireLogin(ctx context.Context) error {
	ok, err := a.authn.TryAutoLogin(ctx)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("not logged in, run `pancli login` first")
	}
	return nil
}

func main() {
	env.LoadEnv()
	config.LoadConfig(".")
	logging.InitLogger(config.Config.Debug)

	var appCtx *appContext

	app := &cli.App{
		Name:  "pancli",
		Usage: "123pan cloud drive client",
		Before: func(c *cli.Context) error {
			var err error
			appCtx, err = buildApp()
			return err
		},
		After: func(c *cli.Context) error {
			if appCtx != nil {
				appCtx.close()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:  "login",
				Usage: "Sign in and persist credentials",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Aliases: []string{"u"}, Required: true},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true},
				},
				Action: func(c *cli.Context) error {
					return appCtx.authn.Login(c.Context, c.String("user"), c.String("password"))
				},
			},
			{
				Name:  "logout",
				Usage: "Clear the session and stored credentials",
				Action: func(c *cli.Context) error {
					return appCtx.authn.Logout()
				},
			},
			{
				Name:      "ls",
				Usage:     "List a remote folder (default: root)",
				ArgsUsage: "[folder-id]",
				Action: func(c *cli.Context) error {
					if err := appCtx.requireLogin(c.Context); err != nil {
						return err
					}
					folderID := int64(0)
					if c.Args().Present() {
						id, err := strconv.ParseInt(c.Args().First(), 10, 64)
						if err != nil {
							return fmt.Errorf("invalid folder id: %q", c.Args().First())
						}
						folderID = id
					}
					entries, err := appCtx.files.List(c.Context, folderID)
					if err != nil {
						return err
					}
					for _, e := range entries {
						kind := "file"
						if e.IsFolder() {
							kind = "dir"
						}
						fmt.Printf("%-12d %-4s %12d  %s\n", e.FileID, kind, e.Size, e.FileName)
					}
					return nil
				},
			},
			{
				Name:      "upload",
				Usage:     "Upload a local file",
				ArgsUsage: "<local-path>",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "parent", Usage: "target folder id", Value: 0},
				},
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("usage: pancli upload <local-path>")
					}
					if err := appCtx.requireLogin(c.Context); err != nil {
						return err
					}
					return appCtx.engine.Upload(c.Context, c.Int64("parent"), c.Args().First())
				},
			},
			{
				Name:      "download",
				Usage:     "Download a remote file or folder archive",
				ArgsUsage: "<file-id> <save-path>",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "parent", Usage: "folder id containing the file", Value: 0},
				},
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 2 {
						return fmt.Errorf("usage: pancli download <file-id> <save-path>")
					}
					if err := appCtx.requireLogin(c.Context); err != nil {
						return err
					}
					fileID, err := strconv.ParseInt(c.Args().Get(0), 10, 64)
					if err != nil {
						return fmt.Errorf("invalid file id: %q", c.Args().Get(0))
					}
					entries, err := appCtx.files.List(c.Context, c.Int64("parent"))
					if err != nil {
						return err
					}
					for _, e := range entries {
						if e.FileID == fileID {
							return appCtx.engine.Download(c.Context, e, c.Args().Get(1))
						}
					}
					return fmt.Errorf("file %d not found in folder %d", fileID, c.Int64("parent"))
				},
			},
			{
				Name:      "mkdir",
				Usage:     "Create a remote folder",
				ArgsUsage: "<name>",
				Flags: []cli.Flag{
					&cli.Int64Flag{Name: "parent", Usage: "parent folder id", Value: 0},
				},
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("usage: pancli mkdir <name>")
					}
					if err := appCtx.requireLogin(c.Context); err != nil {
						return err
					}
					return appCtx.files.CreateFolder(c.Context, c.Int64("parent"), c.Args().First())
				},
			},
			{
				Name:      "rm",
				Usage:     "Move a remote file or folder to the recycle bin",
				ArgsUsage: "<file-id>",
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 1 {
						return fmt.Errorf("usage: pancli rm <file-id>")
					}
					if err := appCtx.requireLogin(c.Context); err != nil {
						return err
					}
					fileID, err := strconv.ParseInt(c.Args().First(), 10, 64)
					if err != nil {
						return fmt.Errorf("invalid file id: %q", c.Args().First())
					}
					return appCtx.files.Trash(c.Context, fileID)
				},
			},
			{
				Name:      "share",
				Usage:     "Create a share link for one or more files",
				ArgsUsage: "<file-id>...",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "pwd", Usage: "extraction password"},
				},
				Action: func(c *cli.Context) error {
					if c.Args().Len() == 0 {
						return fmt.Errorf("usage: pancli share <file-id>...")
					}
					if err := appCtx.requireLogin(c.Context); err != nil {
						return err
					}
					var ids []int64
					for _, arg := range c.Args().Slice() {
						id, err := strconv.ParseInt(arg, 10, 64)
						if err != nil {
							return fmt.Errorf("invalid file id: %q", arg)
						}
						ids = append(ids, id)
					}
					result, err := appCtx.files.Share(c.Context, ids, c.String("pwd"))
					if err != nil {
						return err
					}
					fmt.Printf("share url: %s\n", result.URL)
					if result.Password != "" {
						fmt.Printf("password:  %s\n", result.Password)
					}
					return nil
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logging.Log.Fatal(err)
	}
}
