// The main package for the creto-votes executable.
package main

import "github.com/devoid00/creto-votes/cmd"

func main() {
	cmd.Execute()
}
