package main

import (
	"fmt"
	"os"
)

func leave() {
	os.Exit(2) // allowed outside main.main
}

func main() {
	fmt.Println("starting")
	os.Exit(1) // want "avoid using os.Exit in main.main"
}
