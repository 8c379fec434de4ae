package main

import "github.com/Toasterson/bastel-project-webhookinator/cmd"

func main() {
	cmd.Execute()
}
