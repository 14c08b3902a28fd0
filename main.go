package main

import (
	"log"
	"os"

	"realestate-ledger/cmd"
)

func main() {
	log.SetOutput(os.Stderr)
	// Ldate | Ltime for date and time, Lshortfile for file:line
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cmd.Execute()
}
