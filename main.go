package main

import "dem-manager/cmd"

func main() {
	cmd.Execute()
}
