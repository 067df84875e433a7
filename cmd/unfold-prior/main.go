package main

import (
	"unfold/internal/appshell"
	"unfold/internal/priorapp"
)

func main() { appshell.Main(priorapp.RunContext) }
