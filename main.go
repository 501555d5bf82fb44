package main

import (
	"context"
	"fmt"
	"os"

	"github.com/MixinNetwork/entangler/entangler"
	"github.com/MixinNetwork/entangler/store"
	"github.com/MixinNetwork/mixin/logger"
	"github.com/gagliardetto/solana-go"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "entangler",
		Usage: "entangle NFT collections with custodied twins",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Value:   "~/.mixin/entangler/data",
				Usage:   "database directory path",
				EnvVars: []string{"ENTANGLER_DIR"},
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "~/.mixin/entangler/config.toml",
				Usage:   "configuration file path",
				EnvVars: []string{"ENTANGLER_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "keypair",
				Aliases: []string{"k"},
				Value:   "~/.config/solana/id.json",
				Usage:   "solana-keygen keypair file of the signer",
				EnvVars: []string{"ENTANGLER_KEYPAIR"},
			},
			&cli.IntFlag{
				Name:    "log",
				Value:   logger.INFO,
				Usage:   "log level",
				EnvVars: []string{"ENTANGLER_LOG"},
			},
		},
		Commands: commands,
	}
	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type node struct {
	conf    *Configuration
	store   *store.BadgerStore
	program *entangler.Program
	query   *entangler.Query
}

func setupNode(c *cli.Context) (*node, error) {
	logger.SetLevel(c.Int("log"))

	conf, err := Setup(c.String("config"))
	if err != nil {
		return nil, err
	}
	if c.IsSet("dir") || conf.Store.Dir == "" {
		conf.Store.Dir = expandPath(c.String("dir"))
	}
	if c.IsSet("keypair") || conf.Keypair == "" {
		conf.Keypair = expandPath(c.String("keypair"))
	}

	var deployer solana.PublicKey
	if conf.Program.Deployer != "" {
		deployer, err = solana.PublicKeyFromBase58(conf.Program.Deployer)
		if err != nil {
			return nil, fmt.Errorf("invalid deployer %s: %w", conf.Program.Deployer, err)
		}
	}

	ctx := c.Context
	if ctx == nil {
		ctx = context.Background()
	}
	sc := store.DefaultConfig(conf.Store.Dir)
	sc.SyncWrites = conf.Store.SyncWrites
	db, err := store.OpenBadger(ctx, sc)
	if err != nil {
		return nil, err
	}
	program, err := entangler.NewProgram(db, deployer)
	if err != nil {
		db.Close()
		return nil, err
	}
	query, err := entangler.NewQuery(ctx, db, conf.API.CacheTTL)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &node{
		conf:    conf,
		store:   db,
		program: program,
		query:   query,
	}, nil
}

func (n *node) Close() error {
	return n.store.Close()
}

func (n *node) keypair() (solana.PrivateKey, error) {
	priv, err := solana.PrivateKeyFromSolanaKeygenFile(n.conf.Keypair)
	if err != nil {
		return nil, fmt.Errorf("load keypair %s: %w", n.conf.Keypair, err)
	}
	return priv, nil
}

func withNode(fn func(c *cli.Context, n *node) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		n, err := setupNode(c)
		if err != nil {
			return err
		}
		defer n.Close()
		return fn(c, n)
	}
}
