package main

import "twiin-backend/cmd"

func main() {
	cmd.Run()
}
