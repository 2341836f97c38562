package main

import "github.com/vibast-solutions/ms-go-contacts/cmd"

func main() {
	cmd.Execute()
}
