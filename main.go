package main

import (
	"log"
	"os"
	"os/exec"
)

func main() {
	// Run the worker and HTTP service from cmd/server
	cmd := exec.Command("go", append([]string{"run", "./cmd/server"}, os.Args[1:]...)...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		log.Fatalf("Failed to run server: %v", err)
	}
}
