package main

import "github.com/kiesman99/raster2vector/cmd"

func main() {
	cmd.Execute()
}
