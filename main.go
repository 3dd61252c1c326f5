package main

import "tbl-merger/cmd"

func main() {
	cmd.Execute()
}
