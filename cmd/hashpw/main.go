// Command hashpw prints a bcrypt hash for a company password, for use in the
// identities section of the server config.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"shelterhub/internal/identity/secrets"
)

func main() {
	password := strings.Join(os.Args[1:], " ")
	if password == "" {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintln(os.Stderr, "usage: hashpw <password> (or pipe it on stdin)")
			os.Exit(2)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	hash, err := secrets.Hash(password)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
