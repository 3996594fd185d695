package main

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
)

const usage = `usage: huffpack <command> [flags] [args]

commands:
  serve        run the web service (default)
  compress     compress a file
  decompress   restore a compressed file
  tree         print the code table and tree of a file or artifact
  remote       compress or decompress through a running server
`

func runServe(config *Config, args []string) error {
	fs := newFlagSet("serve", "")
	listen := fs.String("listen", config.Listen, "address to listen on")
	save := fs.Bool("save", false, "store the effective settings in the config file")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	config.Listen = *listen

	if *save {
		if err := config.Save(); err != nil {
			log.Printf("cannot save config: %s", err)
		}
	}

	// templates live next to the binary
	if len(os.Args) > 0 {
		dir, _ := filepath.Split(os.Args[0])
		if _, err := os.Stat(filepath.Join(dir, "templates")); dir != "" && err == nil {
			if err := os.Chdir(dir); err != nil {
				return fmt.Errorf("cannot cd into %q: %w", dir, err)
			}
		}
	}

	gin.SetMode(gin.ReleaseMode)
	r, err := NewServer(config).Engine()
	if err != nil {
		return err
	}

	l, err := net.Listen("tcp", config.Listen)
	if err != nil {
		return err
	}

	log.Printf("Starting up a server on http://%s/", l.Addr())
	return r.RunListener(l)
}

func main() {
	config := &Config{}
	err := config.Init()
	if err != nil {
		log.Fatalf("cannot init config system: %s", err)
	}
	err = config.Load()
	if err != nil {
		log.Fatalf("error loading config file: %s", err)
	}

	commands := map[string]func(*Config, []string) error{
		"serve":      runServe,
		"compress":   runCompress,
		"decompress": runDecompress,
		"tree":       runTree,
		"remote":     runRemote,
	}

	name, args := "serve", []string{}
	if len(os.Args) > 1 {
		name, args = os.Args[1], os.Args[2:]
	}

	cmd, ok := commands[name]
	if !ok {
		fmt.Fprint(os.Stderr, usage)
		if name == "help" || name == "-h" || name == "--help" {
			return
		}
		os.Exit(2)
	}

	if err := cmd(config, args); err != nil {
		if errors.Is(err, ErrUsage) {
			os.Exit(2)
		}
		log.Fatalf("%s: %s", name, err)
	}
}

// vim: ai:ts=8:sw=8:noet:syntax=go
