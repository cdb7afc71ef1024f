package main

import "github.com/akashicode/pdfsect/cmd"

func main() {
	cmd.Execute()
}
