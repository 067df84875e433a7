package main

import (
	"unfold/internal/appshell"
	"unfold/internal/unfoldapp"
)

func main() { appshell.Main(unfoldapp.RunContext) }
