package main

import "github.com/progalaxyelabs/stonescript-auth-go/cmd/authctl/cmd"

func main() {
	cmd.Execute()
}
