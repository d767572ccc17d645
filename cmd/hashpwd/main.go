// Hashpwd prints the Argon2id hash for a password, ready to paste into
// ADMIN_PASSWORD_HASH.
package main

import (
	"flag"
	"fmt"
	"log"

	"fable-lab/auth"
)

func main() {
	password := flag.String("password", "", "Password to hash")
	flag.Parse()

	if *password == "" {
		log.Fatal("Usage: hashpwd -password <password>")
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatal("Hashing failed: ", err)
	}
	fmt.Println(hash)
}
