package main

import "github.com/visavoyage/visavoyage/cmd"

func main() {
	cmd.Execute()
}
