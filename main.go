package main

import (
	"log"

	"github.com/voyora/zara/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
