package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	api "github.com/forever-free1/GeneDB/api/http"
	"github.com/forever-free1/GeneDB/command"
	"github.com/forever-free1/GeneDB/storage/dnastore"
	"github.com/forever-free1/GeneDB/watch"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: genedb [-data <dir>] [-listen <addr>] <command-file> <num-buffers> <block-size>")
}

func main() {
	dataDir := flag.String("data", "data", "数据目录")
	listen := flag.String("listen", "", "HTTP 监听地址，为空则执行完命令文件后直接退出")
	flag.Usage = usage
	flag.Parse()

	args := flag.Args()
	if len(args) != 3 {
		usage()
		os.Exit(1)
	}
	numBuffers, err := strconv.Atoi(args[1])
	if err != nil || numBuffers <= 0 {
		fmt.Fprintf(os.Stderr, "Invalid buffer count of %s\n", args[1])
		os.Exit(1)
	}
	blockSize, err := strconv.Atoi(args[2])
	if err != nil || blockSize <= 0 {
		fmt.Fprintf(os.Stderr, "Invalid block size of %s\n", args[2])
		os.Exit(1)
	}
	commandFile, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "command-file \"%s\" not found\n", args[0])
		os.Exit(1)
	}
	defer commandFile.Close()

	registry := prometheus.NewRegistry()
	db, err := dnastore.Open(*dataDir,
		dnastore.WithNumBuffers(numBuffers),
		dnastore.WithBlockSize(blockSize),
		dnastore.WithRegisterer(registry),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Memory Manager initialization failed: %v\n", err)
		os.Exit(1)
	}

	ctrl := command.NewController(db, os.Stdout)
	if err := ctrl.Run(commandFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		_ = db.Close()
		os.Exit(1)
	}

	if *listen != "" {
		hub := watch.NewHub()
		defer hub.Close()
		server := api.NewServer(*listen, db, hub, registry)
		if err := server.Start(); err != nil {
			fmt.Fprintln(os.Stderr, err)
			_ = db.Close()
			os.Exit(1)
		}
	}

	if err := db.Close(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
