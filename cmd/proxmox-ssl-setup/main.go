package main

import (
	"github.com/matthew-on-git/proxmox-ssl-setup/internal/cli"
)

// version is set by goreleaser via ldflags
var version = "dev"

func main() {
	cli.SetVersion(version)
	cli.Execute()
}
