package main

import "github.com/dodogabrie/image-processing-leggio/cmd/leggio/cmd"

func main() {
	cmd.Execute()
}
