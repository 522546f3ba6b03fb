// gensecret prints a random hex secret suitable for JWT_SECRET.
package main

import (
	"crypto/rand"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
)

const defaultSecretBytes = 64

func main() {
	n := flag.Int("bytes", defaultSecretBytes, "number of random bytes")
	flag.Parse()

	secret, err := generate(rand.Reader, *n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gensecret: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(secret)
}

func generate(r io.Reader, n int) (string, error) {
	if n < 32 {
		return "", fmt.Errorf("at least 32 bytes are required, got %d", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
