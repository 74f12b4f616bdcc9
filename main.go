package main

import "evacsim/cmd"

func main() {
	cmd.Execute()
}
