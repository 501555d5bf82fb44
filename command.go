package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/MixinNetwork/entangler/api"
	"github.com/MixinNetwork/entangler/entangler"
	"github.com/MixinNetwork/entangler/token"
	"github.com/fox-one/mixin-sdk-go"
	"github.com/gagliardetto/solana-go"
	"github.com/gofrs/uuid"
	"github.com/urfave/cli/v2"
)

var commands = []*cli.Command{
	{
		Name:  "state",
		Usage: "manage the global entangler state",
		Subcommands: []*cli.Command{
			{
				Name:  "set",
				Usage: "create or update the global state",
				Flags: instructionFlags(
					&cli.StringFlag{Name: "admin", Usage: "admin public key, defaults to the signer"},
					&cli.StringFlag{Name: "earner", Usage: "fee earner public key, defaults to the signer"},
					&cli.StringFlag{Name: "fee-mint", Usage: "fee mint public key", Required: true},
					&cli.StringFlag{Name: "price", Usage: "entry price in fee mint units", Value: "0"},
				),
				Action: withNode(setState),
			},
			{
				Name:   "show",
				Usage:  "print the global state",
				Action: withNode(showState),
			},
		},
	},
	{
		Name:  "collection",
		Usage: "manage entangled collections",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "entangle an original collection",
				Flags: instructionFlags(
					&cli.StringFlag{Name: "id", Usage: "collection id, random when empty"},
					&cli.StringFlag{Name: "original", Usage: "original collection mint", Required: true},
					&cli.UintFlag{Name: "royalties", Usage: "royalties of the entangled tokens in basis points"},
					&cli.BoolFlag{Name: "one-way", Usage: "forbid disentangling"},
				),
				Action: withNode(createCollection),
			},
			{
				Name:  "list",
				Usage: "list entangled collections",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 100},
				},
				Action: withNode(listCollections),
			},
			{
				Name:      "show",
				Usage:     "print an entangled collection",
				ArgsUsage: "ID",
				Action:    withNode(showCollection),
			},
		},
	},
	{
		Name:  "entry",
		Usage: "manage collection entries",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "register a key for a collection, paying the entry price",
				Flags: instructionFlags(
					&cli.StringFlag{Name: "key", Required: true},
					&cli.StringFlag{Name: "id", Usage: "collection id", Required: true},
				),
				Action: withNode(createEntry),
			},
			{
				Name:      "show",
				Usage:     "print a collection entry",
				ArgsUsage: "KEY",
				Action:    withNode(showEntry),
			},
		},
	},
	{
		Name:  "pair",
		Usage: "manage entangled pairs",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "mint the entangled twin of an original token into escrow",
				Flags: instructionFlags(pairFlags()...),
				Action: withNode(pairInstruction(func(id, mint solana.PublicKey) entangler.Instruction {
					return &entangler.InitializePair{Id: id, OriginalMint: mint}
				})),
			},
			{
				Name:   "show",
				Usage:  "print an entangled pair",
				Flags:  pairFlags(),
				Action: withNode(showPair),
			},
		},
	},
	{
		Name:  "entangle",
		Usage: "swap an original token for its entangled twin",
		Flags: instructionFlags(pairFlags()...),
		Action: withNode(pairInstruction(func(id, mint solana.PublicKey) entangler.Instruction {
			return &entangler.Entangle{Id: id, OriginalMint: mint}
		})),
	},
	{
		Name:  "disentangle",
		Usage: "swap an entangled token back for its original",
		Flags: instructionFlags(pairFlags()...),
		Action: withNode(pairInstruction(func(id, mint solana.PublicKey) entangler.Instruction {
			return &entangler.Disentangle{Id: id, OriginalMint: mint}
		})),
	},
	{
		Name:  "burn",
		Usage: "burn the escrowed original of an entangled pair",
		Flags: instructionFlags(pairFlags()...),
		Action: withNode(pairInstruction(func(id, mint solana.PublicKey) entangler.Instruction {
			return &entangler.BurnOriginal{Id: id, OriginalMint: mint}
		})),
	},
	{
		Name:  "token",
		Usage: "local token ledger helpers",
		Subcommands: []*cli.Command{
			{
				Name:  "create-mint",
				Usage: "create a fungible mint owned by the signer",
				Flags: []cli.Flag{
					&cli.UintFlag{Name: "decimals", Value: 6},
				},
				Action: withNode(createMint),
			},
			{
				Name:  "mint-to",
				Usage: "mint tokens to a wallet",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mint", Required: true},
					&cli.StringFlag{Name: "to", Usage: "receiving wallet, defaults to the signer"},
					&cli.StringFlag{Name: "amount", Required: true},
				},
				Action: withNode(mintTo),
			},
			{
				Name:  "create-nft",
				Usage: "create a non-fungible token owned by the signer",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Required: true},
					&cli.StringFlag{Name: "symbol"},
					&cli.StringFlag{Name: "uri"},
					&cli.UintFlag{Name: "royalties"},
					&cli.StringFlag{Name: "collection", Usage: "collection mint, verified when the signer is its authority"},
				},
				Action: withNode(createNFT),
			},
			{
				Name:  "balance",
				Usage: "print the balance of a wallet",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "mint", Required: true},
					&cli.StringFlag{Name: "owner", Usage: "wallet, defaults to the signer"},
				},
				Action: withNode(balance),
			},
		},
	},
	{
		Name:  "journal",
		Usage: "list executed requests",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "trace", Usage: "print a single request"},
			&cli.Int64Flag{Name: "offset", Usage: "unix nanoseconds to start from"},
			&cli.IntFlag{Name: "limit", Value: 100},
		},
		Action: withNode(listJournals),
	},
	{
		Name:   "serve",
		Usage:  "run the read only HTTP API",
		Action: withNode(serve),
	},
}

func instructionFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags, &cli.StringFlag{
		Name:  "trace-seed",
		Usage: "derive the trace id from the signer and this seed, so retries are idempotent",
	})
}

func pairFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "id", Usage: "collection id", Required: true},
		&cli.StringFlag{Name: "mint", Usage: "original mint", Required: true},
	}
}

func (n *node) execute(c *cli.Context, ix entangler.Instruction) error {
	priv, err := n.keypair()
	if err != nil {
		return err
	}
	traceId := uuid.Must(uuid.NewV4()).String()
	if seed := c.String("trace-seed"); seed != "" {
		traceId = mixin.UniqueConversationID(priv.PublicKey().String(), seed)
	}
	req, err := entangler.NewRequest(traceId, ix, priv)
	if err != nil {
		return err
	}
	j, err := n.program.Execute(c.Context, req)
	if err != nil {
		return err
	}
	return printJSON(map[string]interface{}{
		"trace_id":    j.TraceId,
		"instruction": j.Instruction,
		"signer":      j.Signer.String(),
		"created_at":  j.CreatedAt,
	})
}

// signerOr returns the public key in flag name, or the signer's when empty.
func (n *node) signerOr(c *cli.Context, name string) (solana.PublicKey, error) {
	if s := c.String(name); s != "" {
		return solana.PublicKeyFromBase58(s)
	}
	priv, err := n.keypair()
	if err != nil {
		return solana.PublicKey{}, err
	}
	return priv.PublicKey(), nil
}

func setState(c *cli.Context, n *node) error {
	admin, err := n.signerOr(c, "admin")
	if err != nil {
		return err
	}
	earner, err := n.signerOr(c, "earner")
	if err != nil {
		return err
	}
	feeMint, err := solana.PublicKeyFromBase58(c.String("fee-mint"))
	if err != nil {
		return err
	}
	m, err := n.query.Ledger().ReadMint(feeMint)
	if err != nil {
		return fmt.Errorf("fee mint %s: %w", feeMint, err)
	}
	price, err := parseAmount(c.String("price"), m.Decimals)
	if err != nil {
		return err
	}
	return n.execute(c, &entangler.SetEntanglerState{
		Admin:   admin,
		Earner:  earner,
		Price:   price,
		FeeMint: feeMint,
	})
}

func showState(c *cli.Context, n *node) error {
	st, err := n.query.ReadEntanglerState()
	if err != nil {
		return err
	}
	if st == nil {
		return fmt.Errorf("state %s not initialized", entangler.StateAddress())
	}
	amount := strconv.FormatUint(st.Price, 10)
	if m, err := n.query.Ledger().ReadMint(st.FeeMint); err == nil {
		amount = formatAmount(st.Price, m.Decimals)
	}
	return printJSON(map[string]interface{}{
		"address":  entangler.StateAddress().String(),
		"admin":    st.Admin.String(),
		"earner":   st.Earner.String(),
		"fee_mint": st.FeeMint.String(),
		"price":    st.Price,
		"amount":   amount,
	})
}

func createCollection(c *cli.Context, n *node) error {
	id := solana.NewWallet().PublicKey()
	if s := c.String("id"); s != "" {
		k, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			return err
		}
		id = k
	}
	original, err := solana.PublicKeyFromBase58(c.String("original"))
	if err != nil {
		return err
	}
	royalties := c.Uint("royalties")
	if royalties > uint(entangler.MaxRoyalties) {
		return fmt.Errorf("royalties %d above %d", royalties, entangler.MaxRoyalties)
	}
	fmt.Printf("collection %s => %s\n", id, entangler.CollectionAddress(id))
	return n.execute(c, &entangler.CreateCollection{
		Id:                     id,
		Royalties:              uint16(royalties),
		OneWay:                 c.Bool("one-way"),
		OriginalCollectionMint: original,
	})
}

func listCollections(c *cli.Context, n *node) error {
	collections, err := n.query.ListCollections(c.Int("limit"))
	if err != nil {
		return err
	}
	for _, col := range collections {
		err = printCollection(col)
		if err != nil {
			return err
		}
	}
	return nil
}

func showCollection(c *cli.Context, n *node) error {
	id, err := solana.PublicKeyFromBase58(c.Args().First())
	if err != nil {
		return err
	}
	col, err := n.query.ReadCollection(id)
	if err != nil {
		return err
	}
	if col == nil {
		return fmt.Errorf("collection %s not found", id)
	}
	return printCollection(col)
}

func printCollection(col *entangler.EntangledCollection) error {
	return printJSON(map[string]interface{}{
		"address":                   entangler.CollectionAddress(col.Id).String(),
		"id":                        col.Id.String(),
		"original_collection_mint":  col.OriginalCollectionMint.String(),
		"entangled_collection_mint": col.EntangledCollectionMint.String(),
		"royalties":                 col.Royalties,
		"one_way":                   col.OneWay,
	})
}

func createEntry(c *cli.Context, n *node) error {
	id, err := solana.PublicKeyFromBase58(c.String("id"))
	if err != nil {
		return err
	}
	st, err := n.query.ReadEntanglerState()
	if err != nil {
		return err
	}
	if st == nil {
		return fmt.Errorf("state %s not initialized", entangler.StateAddress())
	}
	return n.execute(c, &entangler.CreateCollectionEntry{
		Key:     c.String("key"),
		Id:      id,
		FeeMint: st.FeeMint,
		Earner:  st.Earner,
	})
}

func showEntry(c *cli.Context, n *node) error {
	key := c.Args().First()
	e, err := n.query.ReadEntry(key)
	if err != nil {
		return err
	}
	if e == nil {
		return fmt.Errorf("entry %s not found", key)
	}
	address, _ := entangler.EntryAddress(key)
	return printJSON(map[string]interface{}{
		"address": address.String(),
		"id":      e.Id.String(),
		"key":     e.Key,
	})
}

func parsePair(c *cli.Context) (solana.PublicKey, solana.PublicKey, error) {
	id, err := solana.PublicKeyFromBase58(c.String("id"))
	if err != nil {
		return solana.PublicKey{}, solana.PublicKey{}, err
	}
	mint, err := solana.PublicKeyFromBase58(c.String("mint"))
	return id, mint, err
}

func pairInstruction(build func(id, mint solana.PublicKey) entangler.Instruction) func(*cli.Context, *node) error {
	return func(c *cli.Context, n *node) error {
		id, mint, err := parsePair(c)
		if err != nil {
			return err
		}
		return n.execute(c, build(id, mint))
	}
}

func showPair(c *cli.Context, n *node) error {
	id, mint, err := parsePair(c)
	if err != nil {
		return err
	}
	p, err := n.query.ReadPair(id, mint)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("pair %s not initialized", entangler.PairAddress(entangler.EntangledMintAddress(id, mint)))
	}
	return printJSON(map[string]interface{}{
		"address":        entangler.PairAddress(p.EntangledMint).String(),
		"original_mint":  p.OriginalMint.String(),
		"entangled_mint": p.EntangledMint.String(),
		"state":          p.State.String(),
	})
}

// withLedger runs fn on a ledger invoked by the system program, signed by
// the local keypair.
func (n *node) withLedger(c *cli.Context, fn func(l *token.Ledger, auth token.Authority) error) error {
	priv, err := n.keypair()
	if err != nil {
		return err
	}
	auth, err := token.KeyAuthority(priv)
	if err != nil {
		return err
	}
	return n.store.RunTransaction(c.Context, func(txn entangler.Txn) error {
		return fn(token.NewLedger(txn, solana.SystemProgramID), auth)
	})
}

func createMint(c *cli.Context, n *node) error {
	decimals := c.Uint("decimals")
	if decimals > 18 {
		return fmt.Errorf("too many decimals %d", decimals)
	}
	mint := solana.NewWallet().PublicKey()
	err := n.withLedger(c, func(l *token.Ledger, auth token.Authority) error {
		return l.InitializeMint(mint, uint8(decimals), auth.Key(), auth.Key())
	})
	if err != nil {
		return err
	}
	fmt.Printf("mint %s\n", mint)
	return nil
}

func mintTo(c *cli.Context, n *node) error {
	mint, err := solana.PublicKeyFromBase58(c.String("mint"))
	if err != nil {
		return err
	}
	to, err := n.signerOr(c, "to")
	if err != nil {
		return err
	}
	return n.withLedger(c, func(l *token.Ledger, auth token.Authority) error {
		m, err := l.ReadMint(mint)
		if err != nil {
			return err
		}
		amount, err := parseAmount(c.String("amount"), m.Decimals)
		if err != nil {
			return err
		}
		ata, err := l.CreateAssociatedAccount(to, mint)
		if err != nil {
			return err
		}
		return l.MintTo(mint, ata, auth, amount)
	})
}

func createNFT(c *cli.Context, n *node) error {
	args := &token.NFTArgs{
		Name:   c.String("name"),
		Symbol: c.String("symbol"),
		Uri:    c.String("uri"),
	}
	royalties := c.Uint("royalties")
	if royalties > uint(entangler.MaxRoyalties) {
		return fmt.Errorf("royalties %d above %d", royalties, entangler.MaxRoyalties)
	}
	args.SellerFeeBasisPoints = uint16(royalties)
	if s := c.String("collection"); s != "" {
		k, err := solana.PublicKeyFromBase58(s)
		if err != nil {
			return err
		}
		args.Collection = k
	}
	mint := solana.NewWallet().PublicKey()
	err := n.withLedger(c, func(l *token.Ledger, auth token.Authority) error {
		_, err := l.CreateNFT(mint, auth, args)
		return err
	})
	if err != nil {
		return err
	}
	fmt.Printf("nft %s\n", mint)
	return nil
}

func balance(c *cli.Context, n *node) error {
	mint, err := solana.PublicKeyFromBase58(c.String("mint"))
	if err != nil {
		return err
	}
	owner, err := n.signerOr(c, "owner")
	if err != nil {
		return err
	}
	l := n.query.Ledger()
	m, err := l.ReadMint(mint)
	if err != nil {
		return err
	}
	amount, err := l.Balance(owner, mint)
	if err != nil {
		return err
	}
	fmt.Printf("%s %s\n", formatAmount(amount, m.Decimals), mint)
	return nil
}

func listJournals(c *cli.Context, n *node) error {
	if id := c.String("trace"); id != "" {
		j, err := n.query.ReadJournal(id)
		if err != nil {
			return err
		}
		if j == nil {
			return fmt.Errorf("request %s not found", id)
		}
		return printJournal(j)
	}
	var offset time.Time
	if ns := c.Int64("offset"); ns > 0 {
		offset = time.Unix(0, ns)
	}
	journals, err := n.query.ListJournals(offset, c.Int("limit"))
	if err != nil {
		return err
	}
	for _, j := range journals {
		err = printJournal(j)
		if err != nil {
			return err
		}
	}
	return nil
}

func printJournal(j *entangler.Journal) error {
	return printJSON(map[string]interface{}{
		"trace_id":    j.TraceId,
		"signer":      j.Signer.String(),
		"instruction": j.Instruction,
		"digest":      j.Digest.String(),
		"created_at":  j.CreatedAt.UnixNano(),
	})
}

func serve(c *cli.Context, n *node) error {
	return api.NewServer(n.query).Run(n.conf.API.Listen)
}

func printJSON(v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}
