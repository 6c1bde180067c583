package main

import "github.com/iksnae/dialog-search/cmd"

func main() {
	cmd.Execute()
}
