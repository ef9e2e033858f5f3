package main

import "numpycheck/cmd"

func main() {
	cmd.Execute()
}
