// Command iotctl is the operator command line for an iotinator master.
package main

import (
	"os"

	"github.com/iotinator/iotinator-master/internal/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(cli.Execute(version))
}
