package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/tricholab/tricho-pipeline/cmd/tricho-pipeline/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		payload, jsonErr := json.Marshal(map[string]string{"error": err.Error()})
		if jsonErr != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		} else {
			fmt.Fprintln(os.Stderr, string(payload))
		}
		os.Exit(1)
	}
}
