// Command server runs the login application the browser suite targets.
package main

import (
	"os"
)

func main() {
	if err := Execute(os.Args[1:]); err != nil {
		PrintError(err)
		os.Exit(1)
	}
}
