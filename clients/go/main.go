// Sellmo CLI - command line client for the landing page API
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/namahsea/sellmo-landing-page/clients/go/sellmo"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	client := sellmo.NewClient(os.Getenv("SELLMO_URL"))
	cmd := os.Args[1]

	switch cmd {
	case "health":
		resp, err := client.Health()
		if resp != nil {
			printJSON(resp)
		}
		exitOnError(err)

	case "intro":
		resp, err := client.Intro()
		exitOnError(err)
		fmt.Printf("run %s (transition %dms)\n", resp.RunID, resp.TransitionMs)
		for _, e := range resp.Entries {
			fmt.Printf("  +%5dms  %s\n", e.RevealAtMs, e.ID)
		}

	case "signup", "signup-form":
		if len(os.Args) < 3 {
			fmt.Fprintf(os.Stderr, "Usage: sellmo %s <email> [form-name]\n", cmd)
			os.Exit(1)
		}
		formName := ""
		if len(os.Args) > 3 {
			formName = os.Args[3]
		}

		var (
			resp *sellmo.SignupResponse
			err  error
		)
		if cmd == "signup" {
			resp, err = client.Signup(os.Args[2], formName)
		} else {
			resp, err = client.SignupForm(os.Args[2], formName)
		}
		exitOnError(err)
		fmt.Printf("%s (%s)\n", resp.Message, resp.Email)

	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`Sellmo CLI

Usage: sellmo <command> [args]

Commands:
  health                          Check server health
  intro                           Show the chat intro timeline
  signup <email> [form-name]      Sign up with a JSON request
  signup-form <email> [form-name] Sign up the way the HTML form does

Environment:
  SELLMO_URL   Server URL (default: https://justsellmo.com)`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printJSON(v interface{}) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(data))
}
