// Command relayctl manages the relay administrators and bans from a shell.
//
//	relayctl [-dsn DSN] add-admin <id> [display name] [signature]
//	relayctl [-dsn DSN] remove-admin <id>
//	relayctl [-dsn DSN] list-admins
//	relayctl [-dsn DSN] purge-bans [-days N]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/ivankudzin/tgapp/postrelay/internal/config"
	pgrepo "github.com/ivankudzin/tgapp/postrelay/internal/repo/postgres"
	"github.com/ivankudzin/tgapp/postrelay/internal/services/admins"
	"github.com/ivankudzin/tgapp/postrelay/internal/services/bans"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "relayctl:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	defaults := config.Default()
	dsnDefault := os.Getenv("POSTGRES_DSN")
	if dsnDefault == "" {
		dsnDefault = defaults.Postgres.DSN
	}

	fs := flag.NewFlagSet("relayctl", flag.ContinueOnError)
	dsn := fs.String("dsn", dsnDefault, "postgres dsn")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errors.New("command is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgrepo.NewPool(ctx, *dsn)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pgrepo.EnsureSchema(ctx, pool); err != nil {
		return err
	}

	directory := admins.NewDirectory(pgrepo.NewAdminRepo(pool), pgrepo.ErrAdminNotFound)
	cmdArgs := fs.Args()[1:]

	switch fs.Arg(0) {
	case "add-admin":
		return addAdmin(ctx, directory, cmdArgs)
	case "remove-admin":
		if len(cmdArgs) != 1 {
			return errors.New("usage: remove-admin <id>")
		}
		id, err := strconv.ParseInt(cmdArgs[0], 10, 64)
		if err != nil {
			return fmt.Errorf("parse admin id: %w", err)
		}
		removed, err := directory.Remove(ctx, id)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("admin %d not found", id)
		}
		fmt.Printf("admin %d removed\n", id)
		return nil
	case "list-admins":
		return listAdmins(ctx, directory)
	case "purge-bans":
		bfs := flag.NewFlagSet("purge-bans", flag.ContinueOnError)
		days := bfs.Int("days", defaults.Premoderation.BanDays, "ban window in days")
		if err := bfs.Parse(cmdArgs); err != nil {
			return err
		}
		purged, err := bans.NewService(pgrepo.NewBanRepo(pool), *days, zap.NewNop()).PurgeExpired(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%d expired bans removed\n", purged)
		return nil
	default:
		return fmt.Errorf("unknown command %q", fs.Arg(0))
	}
}

func addAdmin(ctx context.Context, directory *admins.Directory, args []string) error {
	if len(args) == 0 || len(args) > 3 {
		return errors.New("usage: add-admin <id> [display name] [signature]")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("parse admin id: %w", err)
	}

	var name string
	if len(args) > 1 {
		name = args[1]
	}
	if err := directory.Add(ctx, id, name); err != nil {
		return err
	}
	if len(args) > 2 {
		if err := directory.SetSignature(ctx, id, args[2]); err != nil {
			return err
		}
	}
	fmt.Printf("admin %d added\n", id)
	return nil
}

func listAdmins(ctx context.Context, directory *admins.Directory) error {
	list, err := directory.List(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSIGNATURE\tADDED")
	for _, a := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", a.ID, a.DisplayName, a.Signature, a.CreatedAt.Format(time.DateOnly))
	}
	return w.Flush()
}
