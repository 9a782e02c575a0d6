// Command operator-hash prints the bcrypt hash to put in OPERATOR_TOKEN_HASH.
// The token is read from stdin so it stays out of shell history.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	cost := flag.Int("cost", bcrypt.DefaultCost, "bcrypt cost")
	flag.Parse()

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		fmt.Fprintln(os.Stderr, "read token:", err)
		os.Exit(1)
	}
	token := strings.TrimSpace(line)
	if token == "" {
		fmt.Fprintln(os.Stderr, "empty token")
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(token), *cost)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hash token:", err)
		os.Exit(1)
	}
	fmt.Println(string(hash))
}
