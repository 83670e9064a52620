package main

import (
	"log"

	"github.com/ameijboom/glance/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatalf("glance: %v", err)
	}
}
