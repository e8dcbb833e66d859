package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/MixinNetwork/solfactory/store"
	"github.com/gagliardetto/solana-go"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	bp := flag.String("d", "~/.solfactory/data", "database directory path")
	cp := flag.String("c", "~/.solfactory/config.toml", "configuration file path")
	nonce := flag.String("n", "", "trace id nonce, change it to retry a failed transaction")
	flag.Parse()

	conf, err := Setup(expandHome(*cp))
	if err != nil {
		panic(err)
	}
	db, err := store.OpenBadger(ctx, expandHome(*bp))
	if err != nil {
		panic(err)
	}
	defer db.Close()

	wkr, err := NewWorker(ctx, db, conf)
	if err != nil {
		panic(err)
	}

	args := flag.Args()
	if len(args) == 0 {
		args = []string{"run"}
	}
	switch args[0] {
	case "setup":
		err = wkr.Setup(ctx, *nonce)
	case "issue":
		if len(args) != 3 {
			usage()
		}
		id := parseId(args[1])
		var traceId string
		traceId, err = wkr.Issue(ctx, id, args[2], *nonce)
		fmt.Println(traceId)
	case "airdrop":
		if len(args) != 3 {
			usage()
		}
		id := parseId(args[1])
		buyer, perr := solana.PublicKeyFromBase58(args[2])
		if perr != nil {
			panic(perr)
		}
		var traceId string
		traceId, err = wkr.Airdrop(ctx, id, buyer, *nonce)
		fmt.Println(traceId)
	case "show":
		if len(args) != 2 {
			usage()
		}
		var out string
		out, err = wkr.Show(parseId(args[1]))
		fmt.Print(out)
	case "receipt":
		if len(args) != 2 {
			usage()
		}
		r, rerr := wkr.Receipt(args[1])
		if r != nil {
			fmt.Printf("%s %d %s %s\n", r.TraceId, r.State, r.CreatedAt, r.Error)
		}
		err = rerr
	case "run":
		wkr.Run(ctx)
	default:
		usage()
	}
	if err != nil {
		panic(err)
	}
}

func parseId(s string) uint64 {
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		panic(err)
	}
	return id
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: solfactory [-c config] [-d dir] [-n nonce] setup|issue <id> <uri>|airdrop <id> <buyer>|show <id>|receipt <trace>|run")
	os.Exit(2)
}
