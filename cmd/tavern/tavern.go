package main

import (
	"fmt"
	"os"

	"github.com/akamensky/argparse"
	"github.com/tavernkeep/tavern/server"
)

func main() {
	parser := argparse.NewParser("tavern", "Community site server")
	configFile := parser.String("c", "config", &argparse.Options{Help: "Configuration file", Default: "tavern.json"})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	srv, err := server.NewServer(*configFile)
	if err != nil {
		fmt.Printf("Failed to start server: %v\n", err)
		os.Exit(1)
	}
	srv.ListenForKillSignals()
	if err := srv.ListenHTTP(); err != nil {
		srv.Log.Infof("HTTP server exited: %v", err)
	}
}
